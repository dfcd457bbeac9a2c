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

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Sentinel errors for parse and traversal failures.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrParseFailed indicates that no syntax tree could be produced.
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidContent indicates the content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates the content exceeds the parser's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrSyntaxErrors indicates the tree contains ERROR or MISSING nodes and
	// the parser was configured to reject such trees.
	ErrSyntaxErrors = errors.New("source contains syntax errors")

	// ErrNoChildren indicates a cursor tried to descend into a leaf node.
	ErrNoChildren = errors.New("node should have children")

	// ErrNoSibling indicates a cursor ran out of non-comment siblings.
	ErrNoSibling = errors.New("node should have had a next sibling")

	// ErrUnexpectedNode indicates a node of the wrong kind at a position
	// where a specific kind was required.
	ErrUnexpectedNode = errors.New("unexpected node kind")
)

// NodeRef identifies a CST node by kind and location.
//
// NodeRef is a plain value copied out of the tree so that errors carrying it
// remain printable after the tree is closed.
type NodeRef struct {
	Kind      string `json:"kind"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`

	// Line is 1-indexed, Column is 0-indexed.
	Line   int `json:"line"`
	Column int `json:"column"`
}

// RefOf captures the identifying details of node.
func RefOf(node *sitter.Node) NodeRef {
	if node == nil {
		return NodeRef{}
	}
	p := node.StartPoint()
	return NodeRef{
		Kind:      node.Type(),
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
		Line:      int(p.Row) + 1,
		Column:    int(p.Column),
	}
}

// String formats the reference as "kind at line:col [start,end)".
func (r NodeRef) String() string {
	return fmt.Sprintf("%s at %d:%d [%d,%d)", r.Kind, r.Line, r.Column, r.StartByte, r.EndByte)
}

// NavError reports a cursor move that found no child or sibling.
//
// Node is the node the cursor was on when the move was attempted, or the
// last comment skipped over when only comments remained.
type NavError struct {
	Op   string
	Node NodeRef
	Err  error
}

func (e *NavError) Error() string {
	return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Node)
}

// Unwrap returns ErrNoChildren or ErrNoSibling.
func (e *NavError) Unwrap() error {
	return e.Err
}

// NodeError reports a node whose kind differs from the one required.
type NodeError struct {
	Want string
	Got  NodeRef
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%v: want %s, got %s", ErrUnexpectedNode, e.Want, e.Got)
}

// Unwrap returns ErrUnexpectedNode.
func (e *NodeError) Unwrap() error {
	return ErrUnexpectedNode
}

// NewNodeError creates a NodeError for node, which should have been of kind want.
func NewNodeError(want string, node *sitter.Node) *NodeError {
	return &NodeError{Want: want, Got: RefOf(node)}
}

// ParseError provides detailed information about a parse failure.
//
// ParseError wraps an underlying error with additional context about
// where the error occurred in the source file. It implements the
// error interface and can be unwrapped to access the underlying cause.
//
// Example:
//
//	doc, err := parser.Parse(ctx, content, "tests/Main.elm")
//	if err != nil {
//	    var parseErr *ParseError
//	    if errors.As(err, &parseErr) {
//	        fmt.Printf("Error at %s:%d:%d: %s\n",
//	            parseErr.FilePath, parseErr.Line, parseErr.Column, parseErr.Message)
//	    }
//	}
type ParseError struct {
	// FilePath is the path to the file where the error occurred.
	FilePath string

	// Line is the 1-indexed line number where the error occurred.
	// May be 0 if the error is not associated with a specific line.
	Line int

	// Column is the 0-indexed column where the error occurred.
	Column int

	// Message describes the error in human-readable form.
	Message string

	// Cause is the underlying error that triggered this parse error.
	Cause error
}

// Error returns a formatted error message including file location.
//
// Format depends on available location information:
//   - With line and column: "Main.elm:10:5: unexpected token"
//   - With line only:       "Main.elm:10: unexpected token"
//   - Without location:     "Main.elm: unexpected token"
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WrapParseError wraps an error with file context.
//
// If the error is already a ParseError, it returns it unchanged.
// Returns nil if err is nil.
func WrapParseError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap ParseErrors
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}

	return &ParseError{
		FilePath: filePath,
		Message:  err.Error(),
		Cause:    err,
	}
}

// IsNavigationError checks if an error is a cursor navigation failure.
func IsNavigationError(err error) bool {
	return errors.Is(err, ErrNoChildren) || errors.Is(err, ErrNoSibling)
}
