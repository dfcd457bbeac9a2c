// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package collector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
	"github.com/AleutianAI/elmtest/services/discovery/cache"
	"github.com/AleutianAI/elmtest/services/discovery/exposure"
)

func src(path, content string) Source {
	return Source{Path: path, Content: []byte(content)}
}

func TestAllTests_EndToEnd(t *testing.T) {
	modules, err := AllTests(context.Background(), []Source{
		src("tests/Wildcard.elm", "module Main exposing (..)\none=1\ntwo=2"),
		src("tests/Explicit.elm", "module Main exposing (one)\none=1\ntwo=2"),
	})
	require.NoError(t, err)

	assert.Equal(t, []TestModule{
		{Path: "tests/Wildcard.elm", Tests: []string{"one", "two"}},
		{Path: "tests/Explicit.elm", Tests: []string{"one"}},
	}, modules)
}

func TestAllTests_EmptyBatch(t *testing.T) {
	modules, err := AllTests(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, modules)
	assert.Empty(t, modules)
}

func TestAllTests_HeaderlessFileIsEmpty(t *testing.T) {
	modules, err := AllTests(context.Background(), []Source{src("Loose.elm", "one = 1\n")})
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Empty(t, modules[0].Tests)
}

func TestCollect_PreservesInputOrder(t *testing.T) {
	var sources []Source
	var want []TestModule
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		path := "tests/" + strings.ToUpper(name) + ".elm"
		sources = append(sources, src(path, "module M exposing ("+name+"Test)\n"+name+"Test = 1\n"))
		want = append(want, TestModule{Path: path, Tests: []string{name + "Test"}})
	}

	modules, err := New(nil, WithConcurrency(8)).Collect(context.Background(), sources)
	require.NoError(t, err)
	assert.Equal(t, want, modules)
}

func TestCollect_FailureIsIsolated(t *testing.T) {
	c := New(exposure.NewCursorResolver())

	modules, err := c.Collect(context.Background(), []Source{
		src("Good.elm", "module Good exposing (a)\na = 1\n"),
		src("Loose.elm", "a = 1\n"),
		src("Bad.elm", "module Bad exposing (b)\n\xff"),
		src("Other.elm", "module Other exposing (..)\nc = 1\n"),
	})

	assert.Equal(t, []TestModule{
		{Path: "Good.elm", Tests: []string{"a"}},
		{Path: "Other.elm", Tests: []string{"c"}},
	}, modules)

	var collectErr *CollectError
	require.ErrorAs(t, err, &collectErr)
	require.Len(t, collectErr.Failures, 2)
	assert.Equal(t, "Loose.elm", collectErr.Failures[0].Path)
	assert.Equal(t, "Bad.elm", collectErr.Failures[1].Path)

	assert.ErrorIs(t, err, exposure.ErrNoModuleHeader)
	assert.ErrorIs(t, err, ast.ErrInvalidContent)
	assert.Contains(t, err.Error(), "2 files failed")
	assert.Contains(t, err.Error(), "Loose.elm")
}

func TestFileError_PathAppearsOnce(t *testing.T) {
	_, err := New(nil).Collect(context.Background(), []Source{src("Bad.elm", "module Bad exposing (b)\n\xff")})

	var collectErr *CollectError
	require.ErrorAs(t, err, &collectErr)
	require.Len(t, collectErr.Failures, 1)

	msg := collectErr.Failures[0].Error()
	assert.True(t, strings.HasPrefix(msg, "Bad.elm: "), msg)
	assert.Equal(t, 1, strings.Count(msg, "Bad.elm"), msg)

	// Errors that do not carry the path still get it as a prefix.
	fe := &FileError{Path: "Loose.elm", Err: exposure.ErrNoModuleHeader}
	assert.Equal(t, "Loose.elm: "+exposure.ErrNoModuleHeader.Error(), fe.Error())
}

func TestCollect_FailFast(t *testing.T) {
	c := New(exposure.NewCursorResolver(), WithConcurrency(1), WithFailFast(true))

	modules, err := c.Collect(context.Background(), []Source{
		src("First.elm", "module First exposing (a)\na = 1\n"),
		src("Loose.elm", "a = 1\n"),
		src("Never.elm", "module Never exposing (b)\nb = 1\n"),
		src("AlsoNever.elm", "a = 1\n"),
	})

	assert.Equal(t, []TestModule{{Path: "First.elm", Tests: []string{"a"}}}, modules)

	var collectErr *CollectError
	require.ErrorAs(t, err, &collectErr)
	require.Len(t, collectErr.Failures, 1)
	assert.Equal(t, "Loose.elm", collectErr.Failures[0].Path)
	assert.Equal(t, "1 file failed: Loose.elm: "+collectErr.Failures[0].Err.Error(), err.Error())
}

func TestCollect_RejectSyntaxErrors(t *testing.T) {
	broken := src("Broken.elm", "module Broken exposing (a)\na = = =\n")

	_, err := New(nil).Collect(context.Background(), []Source{broken})
	require.NoError(t, err)

	c := New(nil, WithParser(ast.NewElmParser(ast.WithRejectSyntaxErrors(true))))
	_, err = c.Collect(context.Background(), []Source{broken})
	assert.ErrorIs(t, err, ast.ErrSyntaxErrors)
}

func TestCollect_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	modules, err := New(nil).Collect(ctx, []Source{src("A.elm", "module A exposing (a)\na = 1\n")})
	assert.Nil(t, modules)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCollect_UsesCache(t *testing.T) {
	store, err := cache.Open(cache.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	resolver := exposure.NewQueryResolver(exposure.HeaderlessEmpty)
	c := New(resolver, WithCache(store))
	source := src("A.elm", "module A exposing (..)\none = 1\ntwo = 2\n")

	modules, err := c.Collect(context.Background(), []Source{source})
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, modules[0].Tests)

	key := cache.Key(c.fingerprint(), source.Content)
	cached, hit, err := store.Load(context.Background(), key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []string{"one", "two"}, cached)

	// A planted entry proves the second run reads from the cache.
	require.NoError(t, store.Save(context.Background(), key, []string{"fromCache"}))
	modules, err = c.Collect(context.Background(), []Source{{Path: "Renamed.elm", Content: source.Content}})
	require.NoError(t, err)
	assert.Equal(t, []TestModule{{Path: "Renamed.elm", Tests: []string{"fromCache"}}}, modules)
}

func TestCollect_CacheKeyDependsOnSettings(t *testing.T) {
	query := New(exposure.NewQueryResolver(exposure.HeaderlessEmpty))
	topLevel := New(exposure.NewQueryResolver(exposure.HeaderlessTopLevel))
	strict := New(exposure.NewQueryResolver(exposure.HeaderlessEmpty),
		WithParser(ast.NewElmParser(ast.WithRejectSyntaxErrors(true))))

	assert.NotEqual(t, query.fingerprint(), topLevel.fingerprint())
	assert.NotEqual(t, query.fingerprint(), strict.fingerprint())
}

func TestWithConcurrency_Clamps(t *testing.T) {
	assert.Equal(t, 1, New(nil, WithConcurrency(0)).concurrency)
	assert.Equal(t, MaxConcurrency, New(nil, WithConcurrency(1000)).concurrency)
	assert.Equal(t, DefaultConcurrency, New(nil).concurrency)
}
