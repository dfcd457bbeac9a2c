// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package exposure decides which top-level values of an Elm module are
// candidate test entry points.
//
// A module either exposes an explicit list of names, in which case the value
// (lower-case) names of that list are the candidates, or exposes everything
// with "exposing (..)", in which case every top-level value declaration is a
// candidate. Two interchangeable strategies implement this: a cursor walk
// (explicit.go, toplevel.go) that spells the rules out step by step, and a set
// of tree-sitter queries (query.go) used in production.
package exposure

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
)

var (
	// ErrNoModuleHeader indicates the cursor strategy found no module
	// declaration. It is joined with the underlying navigation error.
	ErrNoModuleHeader = errors.New("no module declaration")

	// ErrUnknownStrategy indicates a strategy name that has no resolver.
	ErrUnknownStrategy = errors.New("unknown resolution strategy")

	// ErrUnknownHeaderlessPolicy indicates an unrecognized headerless policy.
	ErrUnknownHeaderlessPolicy = errors.New("unknown headerless policy")
)

// Strategy names a resolution implementation.
type Strategy string

const (
	// StrategyQuery resolves with precompiled tree-sitter queries.
	StrategyQuery Strategy = "query"

	// StrategyCursor resolves by walking the tree with an ast.Cursor.
	StrategyCursor Strategy = "cursor"
)

// HeaderlessPolicy decides what the query strategy returns for a file with no
// module declaration.
type HeaderlessPolicy string

const (
	// HeaderlessEmpty yields no candidates.
	HeaderlessEmpty HeaderlessPolicy = "empty"

	// HeaderlessTopLevel treats the file as "exposing (..)" and yields every
	// top-level value, matching the compiler's implicit header.
	HeaderlessTopLevel HeaderlessPolicy = "top_level"
)

// Outcome records which rule produced a Resolution.
type Outcome string

const (
	// OutcomeExplicit means the names come from an explicit exposing list.
	OutcomeExplicit Outcome = "explicit"

	// OutcomeWildcard means the module exposes everything and the names are
	// its top-level values.
	OutcomeWildcard Outcome = "wildcard"

	// OutcomeHeaderless means no module declaration was found.
	OutcomeHeaderless Outcome = "headerless"
)

// Clause is the resolved exposing clause of a module header.
//
// When Wildcard is true Values is nil. Otherwise Values holds the exposed
// value names in source order, duplicates included, possibly empty.
type Clause struct {
	Wildcard bool
	Values   []string
}

// Resolution is the candidate list for one file.
type Resolution struct {
	// Names are candidate identifiers in source order. Never nil.
	Names []string `json:"names"`

	// Outcome is the rule that produced Names.
	Outcome Outcome `json:"outcome"`
}

// Resolver produces the candidate test names of a parsed Elm file.
//
// Thread Safety:
//
//	Implementations are safe for concurrent use on different trees.
type Resolver interface {
	// Resolve returns the candidates for the tree rooted at root. The ctx is
	// used for tracing only; resolution never blocks.
	Resolve(ctx context.Context, root *sitter.Node, source []byte) (*Resolution, error)

	// Strategy returns the strategy this resolver implements.
	Strategy() Strategy

	// Fingerprint identifies every setting that can change the result for a
	// given source, for use in cache keys.
	Fingerprint() string
}

// Option configures a Resolver built by New.
type Option func(*options)

type options struct {
	headerless HeaderlessPolicy
}

// WithHeaderlessPolicy sets the query strategy's behavior for files without a
// module declaration. The cursor strategy ignores it and always fails.
func WithHeaderlessPolicy(policy HeaderlessPolicy) Option {
	return func(o *options) {
		o.headerless = policy
	}
}

// New returns the resolver for strategy.
//
// Outputs:
//
//	Resolver - NewQueryResolver or NewCursorResolver result.
//	error    - ErrUnknownStrategy or ErrUnknownHeaderlessPolicy.
func New(strategy Strategy, opts ...Option) (Resolver, error) {
	o := options{headerless: HeaderlessEmpty}
	for _, opt := range opts {
		opt(&o)
	}

	switch o.headerless {
	case HeaderlessEmpty, HeaderlessTopLevel:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeaderlessPolicy, o.headerless)
	}

	switch strategy {
	case StrategyQuery:
		return NewQueryResolver(o.headerless), nil
	case StrategyCursor:
		return NewCursorResolver(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

func fingerprint(strategy Strategy, headerless HeaderlessPolicy) string {
	return fmt.Sprintf("%s|headerless=%s|%s", strategy, headerless, ast.GrammarID)
}
