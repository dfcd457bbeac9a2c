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
	"errors"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
)

// TopLevelValues returns the name of every value declaration that is a
// direct child of the file root, in source order.
//
// Description:
//
//	Only the root's children are visited, so bindings inside let blocks,
//	lambdas or case branches are never seen. For each value declaration the
//	cursor descends two levels, into the left-hand side and then its head
//	identifier, so argument patterns and bodies never contribute. Type
//	annotations, type declarations, ports, infix declarations and
//	destructuring declarations such as "(a, b) = ..." are passed over.
//
//	A file whose root has no non-comment children yields an empty list.
//
// Outputs:
//
//	[]string - Head identifiers in source order. Never nil on success.
//	error    - *ast.NavError if a value declaration lacks the expected
//	           nesting, which only a grammar change can cause.
func TopLevelValues(root *sitter.Node, source []byte) ([]string, error) {
	names := []string{}

	c := ast.NewCursor(root)
	if err := c.FirstChild(); err != nil {
		if ast.IsNavigationError(err) {
			return names, nil
		}
		return nil, err
	}

	for {
		if c.Kind() == ast.KindValueDeclaration {
			err := c.WithChild(func(lhs *ast.Cursor) error {
				// Destructuring declarations bind no single name.
				if lhs.Kind() != ast.KindFunctionDeclarationLeft {
					return nil
				}
				return lhs.WithChild(func(head *ast.Cursor) error {
					if err := head.Expect(ast.KindLowerCaseIdentifier); err != nil {
						return err
					}
					names = append(names, head.Text(source))
					return nil
				})
			})
			if err != nil {
				return nil, err
			}
		}

		if err := c.NextSibling(); err != nil {
			if errors.Is(err, ast.ErrNoSibling) {
				return names, nil
			}
			return nil, err
		}
	}
}
