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
	sitter "github.com/smacker/go-tree-sitter"
)

// Cursor is a forward-only navigator over a CST that never rests on a comment.
//
// Description:
//
//	Cursor offers the two moves the exposure resolvers need: descend to the
//	first child and advance to the next sibling. Both moves skip over
//	line_comment and block_comment nodes on landing, so callers never see a
//	comment as the current node. A failed move leaves the cursor where it was
//	and reports the node at which the move was attempted.
//
//	Ascending is only possible through WithChild, which returns the cursor to
//	the parent on every exit path.
//
// Thread Safety:
//
//	Cursor is not safe for concurrent use. It is a transient value bound to a
//	single tree; create one per traversal.
type Cursor struct {
	node *sitter.Node

	// ancestors holds the nodes WithChild must return to, innermost last.
	ancestors []*sitter.Node
}

// NewCursor creates a cursor positioned on node.
func NewCursor(node *sitter.Node) *Cursor {
	return &Cursor{node: node}
}

// Node returns the node the cursor is on.
func (c *Cursor) Node() *sitter.Node {
	return c.node
}

// Kind returns the kind of the current node.
func (c *Cursor) Kind() string {
	return c.node.Type()
}

// Text returns the source text spanned by the current node.
func (c *Cursor) Text(source []byte) string {
	return c.node.Content(source)
}

// FirstChild moves to the first non-comment child of the current node.
//
// Outputs:
//
//	error - *NavError wrapping ErrNoChildren if the node is a leaf, or
//	        ErrNoSibling if every child is a comment. The cursor does not
//	        move on error.
func (c *Cursor) FirstChild() error {
	if c.node.ChildCount() == 0 {
		return &NavError{Op: "first child", Node: RefOf(c.node), Err: ErrNoChildren}
	}
	target, err := skipComments(c.node.Child(0))
	if err != nil {
		return err
	}
	c.ancestors = append(c.ancestors, c.node)
	c.node = target
	return nil
}

// NextSibling moves to the next non-comment sibling of the current node.
//
// Outputs:
//
//	error - *NavError wrapping ErrNoSibling if no non-comment sibling follows.
//	        The cursor does not move on error.
func (c *Cursor) NextSibling() error {
	next := c.node.NextSibling()
	if next == nil {
		return &NavError{Op: "next sibling", Node: RefOf(c.node), Err: ErrNoSibling}
	}
	target, err := skipComments(next)
	if err != nil {
		return err
	}
	c.node = target
	return nil
}

// SeekSibling advances until the current node has the given kind. The
// current node itself is checked first.
func (c *Cursor) SeekSibling(kind string) error {
	for c.Kind() != kind {
		if err := c.NextSibling(); err != nil {
			return err
		}
	}
	return nil
}

// Expect returns a *NodeError unless the current node has the given kind.
func (c *Cursor) Expect(kind string) error {
	if c.Kind() != kind {
		return NewNodeError(kind, c.node)
	}
	return nil
}

// WithChild descends to the first child, runs fn, and returns to the parent.
//
// Description:
//
//	The cursor is restored to the node it was on before the call no matter
//	how fn exits, including early error returns. Navigation inside fn may
//	move the cursor across siblings of the child; those moves are discarded.
//	If the descent itself fails, fn is not called and the error is returned.
func (c *Cursor) WithChild(fn func(*Cursor) error) error {
	if err := c.FirstChild(); err != nil {
		return err
	}
	depth := len(c.ancestors)
	defer func() {
		c.node = c.ancestors[depth-1]
		c.ancestors = c.ancestors[:depth-1]
	}()
	return fn(c)
}

// skipComments returns the first non-comment node at or after node among its
// siblings.
func skipComments(node *sitter.Node) (*sitter.Node, error) {
	for IsComment(node.Type()) {
		next := node.NextSibling()
		if next == nil {
			return nil, &NavError{Op: "skip comments", Node: RefOf(node), Err: ErrNoSibling}
		}
		node = next
	}
	return node, nil
}
