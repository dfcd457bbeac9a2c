// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// Elm Tree-sitter Node Types
//
// This file lists the node kinds of the tree-sitter-elm grammar that the
// exposure resolvers depend on. The resolvers match on these exact strings and
// on the child positions sketched below, so a grammar upgrade that renames a
// kind or reshapes one of these nodes is a breaking change.
//
// Reference: https://github.com/elm-tooling/tree-sitter-elm/blob/main/grammar.js

// GrammarID names the grammar build the node kinds below were written
// against. It is part of every cached result's key.
const GrammarID = "smacker/go-tree-sitter/elm@20240827"

// Node kind constants for Elm CST traversal.
const (
	// Root
	KindFile = "file"

	// Module header
	KindModuleDeclaration = "module_declaration"
	KindExposingList      = "exposing_list"
	KindExposing          = "exposing"
	KindDoubleDot         = "double_dot"

	// Anonymous punctuation inside exposing_list
	KindLeftParenthesis  = "("
	KindRightParenthesis = ")"
	KindComma            = ","

	// Exposed items
	KindExposedValue    = "exposed_value"
	KindExposedType     = "exposed_type"
	KindExposedOperator = "exposed_operator"

	// Declarations
	KindValueDeclaration        = "value_declaration"
	KindFunctionDeclarationLeft = "function_declaration_left"
	KindTypeAnnotation          = "type_annotation"
	KindTypeDeclaration         = "type_declaration"
	KindTypeAliasDeclaration    = "type_alias_declaration"
	KindPortAnnotation          = "port_annotation"
	KindInfixDeclaration        = "infix_declaration"

	// Identifiers
	KindLowerCaseIdentifier = "lower_case_identifier"
	KindUpperCaseIdentifier = "upper_case_identifier"

	// Comments (extras: may appear between any two siblings)
	KindLineComment  = "line_comment"
	KindBlockComment = "block_comment"
)

// IsComment reports whether kind is one of the grammar's comment kinds.
func IsComment(kind string) bool {
	return kind == KindLineComment || kind == KindBlockComment
}

// Elm CST Structure Reference
//
// file
// ├── module_declaration
// │   ├── "port"? "module"
// │   ├── upper_case_qid (name)
// │   └── exposing_list (field: exposing)
// │       ├── exposing
// │       ├── "("
// │       ├── double_dot                       (exposing (..))
// │       │   or
// │       ├── exposed_value                    (first child: lower_case_identifier)
// │       ├── ","
// │       ├── exposed_type                     (Type or Type(..))
// │       └── ")"
// ├── import_clause*
// ├── type_annotation                          (f : T)
// ├── value_declaration
// │   ├── function_declaration_left            (or pattern, for "(a, b) = ...")
// │   │   ├── lower_case_identifier            (head name)
// │   │   └── pattern*                         (arguments)
// │   ├── eq
// │   └── expression                           (body, may hold let_in_expr)
// ├── type_declaration / type_alias_declaration
// ├── port_annotation
// └── infix_declaration

// Tree-sitter query patterns used by the exposure package.
//
// Each pattern captures exactly one node. They are compiled once per process
// and shared read-only by every resolution.
const (
	// QueryExposingList locates the module header's exposing clause.
	QueryExposingList = `(module_declaration exposing: (exposing_list) @list)`

	// QueryWildcard matches the ".." of "exposing (..)". It is anchored on the
	// exposing list itself so "Type(..)" items never look like a wildcard.
	QueryWildcard = `(exposing_list (double_dot) @wildcard)`

	// QueryExposedValues matches every exposed value item.
	QueryExposedValues = `(exposed_value) @value`

	// QueryTopLevelValues matches the head identifier of each function-style
	// value declaration that is a direct child of the file root. Destructuring
	// declarations such as "(a, b) = ..." have no head name and never match.
	QueryTopLevelValues = `(file (value_declaration . (function_declaration_left . (lower_case_identifier) @name)))`
)
