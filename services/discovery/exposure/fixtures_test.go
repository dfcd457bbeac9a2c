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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
)

// parseForTest parses source and closes the document when the test ends.
func parseForTest(t testing.TB, source string) *ast.Document {
	t.Helper()
	doc, err := ast.NewElmParser().Parse(context.Background(), []byte(source), "Test.elm")
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

// resolutionCase is a source file and the candidates both strategies must
// return for it.
type resolutionCase struct {
	name    string
	source  string
	want    []string
	outcome Outcome
}

// sharedCases hold for every strategy. Headerless files are excluded since
// the strategies disagree on them.
var sharedCases = []resolutionCase{
	{
		name:    "wildcard",
		source:  "module Main exposing (..)\none=1\ntwo=2",
		want:    []string{"one", "two"},
		outcome: OutcomeWildcard,
	},
	{
		name:    "explicit single",
		source:  "module Main exposing (one)\none=1\ntwo=2",
		want:    []string{"one"},
		outcome: OutcomeExplicit,
	},
	{
		name:    "explicit only types",
		source:  "port module Main.Pain exposing (Int)\n",
		want:    []string{},
		outcome: OutcomeExplicit,
	},
	{
		name:    "types interleaved with values",
		source:  "port module Main.Pain exposing (int, Int, test, Test)\n",
		want:    []string{"int", "test"},
		outcome: OutcomeExplicit,
	},
	{
		name:    "block comment in list",
		source:  "port module Main.Pain exposing (int, Int, {- -}test, Test)\n",
		want:    []string{"int", "test"},
		outcome: OutcomeExplicit,
	},
	{
		name:    "line comment in list",
		source:  "port module Main.Pain exposing (int, Int, -- comment\n    test, Test)\n",
		want:    []string{"int", "test"},
		outcome: OutcomeExplicit,
	},
	{
		name:    "comment before header",
		source:  "-- some comment\nmodule Main.Pain exposing (int, Int,\n    test, Test)\n",
		want:    []string{"int", "test"},
		outcome: OutcomeExplicit,
	},
	{
		name:    "duplicates preserved",
		source:  "module Main exposing (a, b, a)\na = 1\nb = 2\n",
		want:    []string{"a", "b", "a"},
		outcome: OutcomeExplicit,
	},
	{
		name:    "union type with constructors is not a wildcard",
		source:  "module Main exposing (Msg(..), suite)\ntype Msg = A | B\nsuite = 1\nother = 2\n",
		want:    []string{"suite"},
		outcome: OutcomeExplicit,
	},
	{
		name: "comments everywhere",
		source: `
module{--}Main {-
    {{-}-}-
-}exposing--{-
    ({--}one{--}
    ,
    -- notExport
    two{-{-{-{--}-}{--}-}{-{--}-}-},Type{--}({--}..{--}){--}
    ,    three
    )--
`,
		want:    []string{"one", "two", "three"},
		outcome: OutcomeExplicit,
	},
	{
		name: "annotation and definition count once",
		source: `module Main exposing (..)

test = 3
differentTest: Test.Test
differentTest =
    w
`,
		want:    []string{"test", "differentTest"},
		outcome: OutcomeWildcard,
	},
	{
		name: "let bindings are not top level",
		source: `module Main exposing (..)

type Test = Igore

withNestedValues: Test.Test
withNestedValues a =
    let
        shouldIgnore = Test.test
    in
    ()

shouldIgnoreToo = 1
`,
		want:    []string{"withNestedValues", "shouldIgnoreToo"},
		outcome: OutcomeWildcard,
	},
	{
		name: "strings and comments that look like code",
		source: `
module Main exposing ( ..)

one="\"{-"
two="""-}
notAThing = something
\"""
notAThing2 = something
"""
three = '"' {- "
notAThing3 = something
-}
four{--}=--{-
    1
five = something
--}
`,
		want:    []string{"one", "two", "three", "four", "five"},
		outcome: OutcomeWildcard,
	},
	{
		name: "ports and types are skipped",
		source: `port module Main exposing (..)

port send : String -> Cmd msg

type alias Model = { count : Int }

type Msg = Increment

suite : Test
suite = describe "x" []
`,
		want:    []string{"suite"},
		outcome: OutcomeWildcard,
	},
	{
		name: "destructuring declarations bind no candidate",
		source: `module Main exposing (..)

( first, second ) = ( 1, 2 )

suite = first
`,
		want:    []string{"suite"},
		outcome: OutcomeWildcard,
	},
}

// resolvers returns every strategy under test.
func resolvers() []Resolver {
	return []Resolver{NewCursorResolver(), NewQueryResolver(HeaderlessEmpty)}
}

func TestResolvers_SharedCases(t *testing.T) {
	for _, r := range resolvers() {
		for _, tc := range sharedCases {
			t.Run(string(r.Strategy())+"/"+tc.name, func(t *testing.T) {
				doc := parseForTest(t, tc.source)

				res, err := r.Resolve(context.Background(), doc.Root(), doc.Source)
				require.NoError(t, err)
				require.Equal(t, tc.want, res.Names)
				require.Equal(t, tc.outcome, res.Outcome)
			})
		}
	}
}

func TestResolvers_Idempotent(t *testing.T) {
	for _, r := range resolvers() {
		for _, tc := range sharedCases {
			doc := parseForTest(t, tc.source)

			first, err := r.Resolve(context.Background(), doc.Root(), doc.Source)
			require.NoError(t, err)
			second, err := r.Resolve(context.Background(), doc.Root(), doc.Source)
			require.NoError(t, err)

			require.Equal(t, first, second, "%s/%s", r.Strategy(), tc.name)
		}
	}
}
