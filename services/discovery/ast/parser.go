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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/elm"
)

const (
	// DefaultMaxFileSize is the largest source the parser accepts by default.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged.
	WarnFileSize = 1024 * 1024

	// maxErrorSearchDepth bounds the recursive search for the first error node.
	maxErrorSearchDepth = 256
)

// Language returns the tree-sitter Elm grammar shared by the parser and the
// exposure queries.
func Language() *sitter.Language {
	return elm.GetLanguage()
}

// ElmParserOption configures an ElmParser instance.
type ElmParserOption func(*ElmParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
func WithMaxFileSize(bytes int64) ElmParserOption {
	return func(p *ElmParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithRejectSyntaxErrors makes Parse fail with ErrSyntaxErrors when the tree
// contains ERROR or MISSING nodes, instead of returning the error-tolerant tree.
func WithRejectSyntaxErrors(reject bool) ElmParserOption {
	return func(p *ElmParser) {
		p.rejectSyntaxErrors = reject
	}
}

// ElmParser turns Elm source text into a concrete syntax tree.
//
// Description:
//
//	ElmParser wraps the tree-sitter Elm grammar. It is the only place this
//	module touches the grammar as a parser; everything downstream works on the
//	resulting Document.
//
// Thread Safety:
//
//	ElmParser instances are safe for concurrent use. Each Parse call creates
//	its own tree-sitter parser internally.
type ElmParser struct {
	maxFileSize        int64
	rejectSyntaxErrors bool
}

// NewElmParser creates a new ElmParser with the given options.
//
// Example:
//
//	parser := NewElmParser(WithMaxFileSize(1 << 20))
func NewElmParser(opts ...ElmParserOption) *ElmParser {
	p := &ElmParser{
		maxFileSize: DefaultMaxFileSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// MaxFileSize returns the largest accepted source size in bytes.
func (p *ElmParser) MaxFileSize() int64 {
	return p.maxFileSize
}

// RejectsSyntaxErrors reports whether trees with ERROR or MISSING nodes fail.
func (p *ElmParser) RejectsSyntaxErrors() bool {
	return p.rejectSyntaxErrors
}

// Document is a parsed Elm source file.
//
// Description:
//
//	Document owns the source bytes and the tree built over them. Nodes
//	obtained from Root are only valid until Close is called.
//
// Thread Safety:
//
//	A Document may be read by multiple goroutines until it is closed.
type Document struct {
	// FilePath identifies the file the source came from.
	FilePath string

	// Source is the text the tree was built from.
	Source []byte

	// Hash is the hex SHA256 of Source.
	Hash string

	// HasSyntaxErrors is true if the tree contains ERROR or MISSING nodes.
	HasSyntaxErrors bool

	tree *sitter.Tree
}

// Root returns the root "file" node.
func (d *Document) Root() *sitter.Node {
	return d.tree.RootNode()
}

// Close releases the tree. Safe to call more than once.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// Parse builds the CST for Elm source code.
//
// Description:
//
//	Parse validates the content, runs the tree-sitter Elm grammar over it and
//	returns a Document. Tree-sitter is error tolerant, so syntactically broken
//	source still yields a tree unless WithRejectSyntaxErrors is set.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw Elm source bytes. Must be valid UTF-8.
//   - filePath: Path used in errors and telemetry.
//
// Outputs:
//   - *Document: The parsed file. Caller must call Close.
//   - error: A *ParseError wrapping one of ErrFileTooLarge, ErrInvalidContent,
//     ErrParseFailed, ErrSyntaxErrors, or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *ElmParser) Parse(ctx context.Context, content []byte, filePath string) (*Document, error) {
	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, time.Since(start), false, false)
		return nil, WrapParseError(fmt.Errorf("parse canceled before start: %w", err), filePath)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, time.Since(start), false, false)
		return nil, WrapParseError(fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize), filePath)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, time.Since(start), false, false)
		return nil, WrapParseError(fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent), filePath)
	}

	hash := sha256.Sum256(content)

	// New parser per call for thread safety
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, time.Since(start), false, false)
		return nil, WrapParseError(fmt.Errorf("%w: %v", ErrParseFailed, err), filePath)
	}
	if tree == nil || tree.RootNode() == nil {
		recordParseMetrics(ctx, time.Since(start), false, false)
		return nil, WrapParseError(fmt.Errorf("%w: tree-sitter returned no tree", ErrParseFailed), filePath)
	}

	doc := &Document{
		FilePath:        filePath,
		Source:          content,
		Hash:            hex.EncodeToString(hash[:]),
		HasSyntaxErrors: tree.RootNode().HasError(),
		tree:            tree,
	}

	if doc.HasSyntaxErrors && p.rejectSyntaxErrors {
		ref := RefOf(firstErrorNode(doc.Root(), 0))
		doc.Close()
		recordParseMetrics(ctx, time.Since(start), true, false)
		return nil, &ParseError{
			FilePath: filePath,
			Line:     ref.Line,
			Column:   ref.Column,
			Message:  fmt.Sprintf("%v near %s", ErrSyntaxErrors, ref.Kind),
			Cause:    ErrSyntaxErrors,
		}
	}

	if err := ctx.Err(); err != nil {
		doc.Close()
		recordParseMetrics(ctx, time.Since(start), doc.HasSyntaxErrors, false)
		return nil, WrapParseError(fmt.Errorf("parse canceled after tree-sitter: %w", err), filePath)
	}

	recordParseMetrics(ctx, time.Since(start), doc.HasSyntaxErrors, true)
	return doc, nil
}

// firstErrorNode returns the first ERROR or MISSING node in document order,
// or node itself if none is found below it.
func firstErrorNode(node *sitter.Node, depth int) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() || depth > maxErrorSearchDepth {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		return firstErrorNode(child, depth+1)
	}
	return node
}
