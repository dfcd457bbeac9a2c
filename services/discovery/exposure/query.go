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
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
)

// compiledQueries holds the four exposure queries. Built once per process and
// never mutated, so the queries may be shared by concurrent query cursors.
type compiledQueries struct {
	exposingList   *sitter.Query
	wildcard       *sitter.Query
	exposedValues  *sitter.Query
	topLevelValues *sitter.Query
}

var (
	queries     *compiledQueries
	queriesErr  error
	queriesOnce sync.Once
)

// loadQueries compiles the exposure queries on first use.
func loadQueries() (*compiledQueries, error) {
	queriesOnce.Do(func() {
		lang := ast.Language()
		compile := func(name, pattern string) *sitter.Query {
			if queriesErr != nil {
				return nil
			}
			q, err := sitter.NewQuery([]byte(pattern), lang)
			if err != nil {
				queriesErr = fmt.Errorf("compile %s query: %w", name, err)
				return nil
			}
			return q
		}

		q := &compiledQueries{
			exposingList:   compile("exposing list", ast.QueryExposingList),
			wildcard:       compile("wildcard", ast.QueryWildcard),
			exposedValues:  compile("exposed values", ast.QueryExposedValues),
			topLevelValues: compile("top-level values", ast.QueryTopLevelValues),
		}
		if queriesErr == nil {
			queries = q
		}
	})
	return queries, queriesErr
}

// Span is the extent of a node, in bytes and in row/column points.
type Span struct {
	StartByte  uint32
	EndByte    uint32
	StartPoint sitter.Point
	EndPoint   sitter.Point
}

func spanOf(node *sitter.Node) Span {
	return Span{
		StartByte:  node.StartByte(),
		EndByte:    node.EndByte(),
		StartPoint: node.StartPoint(),
		EndPoint:   node.EndPoint(),
	}
}

// captures runs q over root and returns the first capture of each match in
// match order. A nil span searches the whole tree.
func captures(q *sitter.Query, root *sitter.Node, span *Span) []*sitter.Node {
	qc := sitter.NewQueryCursor()
	defer qc.Close()

	if span != nil {
		qc.SetPointRange(span.StartPoint, span.EndPoint)
	}
	qc.Exec(q, root)

	var nodes []*sitter.Node
	for {
		m, ok := qc.NextMatch()
		if !ok {
			return nodes
		}
		if len(m.Captures) == 0 {
			continue
		}
		nodes = append(nodes, m.Captures[0].Node)
	}
}

// FindExposingList locates the module header's exposing clause.
//
// Outputs:
//
//	Span  - Extent of the exposing_list node.
//	bool  - False if the file has no module declaration.
//	error - Non-nil only if the queries failed to compile.
func FindExposingList(root *sitter.Node) (Span, bool, error) {
	q, err := loadQueries()
	if err != nil {
		return Span{}, false, err
	}

	nodes := captures(q.exposingList, root, nil)
	if len(nodes) == 0 {
		return Span{}, false, nil
	}
	return spanOf(nodes[0]), true, nil
}

// QueryExplicitExposedValues reads the exposing clause within span with
// queries. Type names never match the exposed value query, so they are
// excluded without any skip logic.
func QueryExplicitExposedValues(root *sitter.Node, source []byte, span Span) (Clause, error) {
	q, err := loadQueries()
	if err != nil {
		return Clause{}, err
	}

	if len(captures(q.wildcard, root, &span)) > 0 {
		return Clause{Wildcard: true}, nil
	}

	nodes := captures(q.exposedValues, root, &span)
	values := make([]string, 0, len(nodes))
	for _, n := range nodes {
		values = append(values, n.Content(source))
	}
	return Clause{Values: values}, nil
}

// QueryTopLevelValues returns the head identifier of every top-level value
// declaration over the whole tree, in source order.
func QueryTopLevelValues(root *sitter.Node, source []byte) ([]string, error) {
	q, err := loadQueries()
	if err != nil {
		return nil, err
	}

	nodes := captures(q.topLevelValues, root, nil)
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Content(source))
	}
	return names, nil
}

// QueryExposedValues is the production resolution path.
//
// Description:
//
//	No exposing clause: the headerless policy decides (empty list, or all
//	top-level values). Wildcard clause: all top-level values of the whole
//	tree. Otherwise: the exposed value names of the clause in source order.
func QueryExposedValues(root *sitter.Node, source []byte, headerless HeaderlessPolicy) (*Resolution, error) {
	span, found, err := FindExposingList(root)
	if err != nil {
		return nil, err
	}

	if !found {
		if headerless == HeaderlessTopLevel {
			names, err := QueryTopLevelValues(root, source)
			if err != nil {
				return nil, err
			}
			return &Resolution{Names: names, Outcome: OutcomeHeaderless}, nil
		}
		return &Resolution{Names: []string{}, Outcome: OutcomeHeaderless}, nil
	}

	clause, err := QueryExplicitExposedValues(root, source, span)
	if err != nil {
		return nil, err
	}
	if !clause.Wildcard {
		return &Resolution{Names: clause.Values, Outcome: OutcomeExplicit}, nil
	}

	names, err := QueryTopLevelValues(root, source)
	if err != nil {
		return nil, err
	}
	return &Resolution{Names: names, Outcome: OutcomeWildcard}, nil
}

// QueryResolver resolves candidates with precompiled tree-sitter queries.
//
// Thread Safety:
//
//	Safe for concurrent use. The compiled queries are shared read-only and
//	every call uses its own query cursors.
type QueryResolver struct {
	headerless HeaderlessPolicy
}

// NewQueryResolver creates a QueryResolver with the given headerless policy.
// An empty policy means HeaderlessEmpty.
func NewQueryResolver(headerless HeaderlessPolicy) *QueryResolver {
	if headerless == "" {
		headerless = HeaderlessEmpty
	}
	return &QueryResolver{headerless: headerless}
}

// Strategy returns StrategyQuery.
func (r *QueryResolver) Strategy() Strategy {
	return StrategyQuery
}

// Fingerprint identifies the resolver configuration.
func (r *QueryResolver) Fingerprint() string {
	return fingerprint(StrategyQuery, r.headerless)
}

// Resolve runs QueryExposedValues.
func (r *QueryResolver) Resolve(ctx context.Context, root *sitter.Node, source []byte) (*Resolution, error) {
	_, span := startResolveSpan(ctx, StrategyQuery)
	defer span.End()

	res, err := QueryExposedValues(root, source, r.headerless)
	finishResolveSpan(span, res, err)
	return res, err
}
