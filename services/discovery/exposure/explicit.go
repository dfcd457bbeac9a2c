// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package exposure

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
)

// ExplicitExposedValues reads the module header's exposing clause by walking
// the tree with a cursor.
//
// Description:
//
//	Walks file > module_declaration > exposing_list and expects
//	"exposing" "(" next. A ".." marks a wildcard. Otherwise the items up to
//	")" are scanned: exposed types, exposed operators and commas are
//	skipped, each exposed value contributes its identifier. Comments are
//	skipped by the cursor itself.
//
// Inputs:
//
//	root   - The "file" node.
//	source - The text the tree was built from.
//
// Outputs:
//
//	Clause - Wildcard, or the exposed value names in source order.
//	error  - ErrNoModuleHeader joined with a *ast.NavError when the file has
//	         no module declaration; *ast.NavError or *ast.NodeError for any
//	         other structural mismatch.
func ExplicitExposedValues(root *sitter.Node, source []byte) (Clause, error) {
	c := ast.NewCursor(root)

	if err := c.FirstChild(); err != nil {
		return Clause{}, fmt.Errorf("%w: %w", ErrNoModuleHeader, err)
	}
	if err := c.SeekSibling(ast.KindModuleDeclaration); err != nil {
		return Clause{}, fmt.Errorf("%w: %w", ErrNoModuleHeader, err)
	}

	if err := c.FirstChild(); err != nil {
		return Clause{}, err
	}
	if err := c.SeekSibling(ast.KindExposingList); err != nil {
		return Clause{}, err
	}

	if err := c.FirstChild(); err != nil {
		return Clause{}, err
	}
	if err := c.Expect(ast.KindExposing); err != nil {
		return Clause{}, err
	}
	if err := c.NextSibling(); err != nil {
		return Clause{}, err
	}
	if err := c.Expect(ast.KindLeftParenthesis); err != nil {
		return Clause{}, err
	}
	if err := c.NextSibling(); err != nil {
		return Clause{}, err
	}

	var clause Clause
	if c.Kind() == ast.KindDoubleDot {
		clause.Wildcard = true
		if err := c.NextSibling(); err != nil {
			return Clause{}, err
		}
	} else {
		values, err := scanExposedItems(c, source)
		if err != nil {
			return Clause{}, err
		}
		clause.Values = values
	}

	if err := c.Expect(ast.KindRightParenthesis); err != nil {
		return Clause{}, err
	}
	return clause, nil
}

// scanExposedItems collects exposed value names until it reaches a node that
// is not an exposed item or a comma. The cursor is left on that node.
func scanExposedItems(c *ast.Cursor, source []byte) ([]string, error) {
	values := []string{}
	for {
		switch c.Kind() {
		case ast.KindExposedType, ast.KindExposedOperator, ast.KindComma:
		case ast.KindExposedValue:
			err := c.WithChild(func(id *ast.Cursor) error {
				if err := id.Expect(ast.KindLowerCaseIdentifier); err != nil {
					return err
				}
				values = append(values, id.Text(source))
				return nil
			})
			if err != nil {
				return nil, err
			}
		default:
			return values, nil
		}

		if err := c.NextSibling(); err != nil {
			return nil, err
		}
	}
}
