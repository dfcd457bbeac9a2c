// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package collector turns a batch of Elm sources into test modules.
//
// Each file is parsed, its exposing clause resolved, and the result paired
// with the file path. Files are independent: a failure is attributed to its
// file and the rest of the batch still completes unless fail-fast is enabled.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
	"github.com/AleutianAI/elmtest/services/discovery/cache"
	"github.com/AleutianAI/elmtest/services/discovery/exposure"
)

const (
	// DefaultConcurrency is the number of files processed at once.
	DefaultConcurrency = 4

	// MaxConcurrency caps WithConcurrency.
	MaxConcurrency = 64
)

// Source is one input file.
type Source struct {
	// Path identifies the file. It is echoed back, never opened.
	Path string

	// Content is the Elm source text.
	Content []byte
}

// TestModule pairs a file with its candidate test names.
type TestModule struct {
	Path  string   `json:"path"`
	Tests []string `json:"tests"`
}

// Option configures a Collector.
type Option func(*Collector)

// WithConcurrency bounds the number of files processed at once. Values are
// clamped to [1, MaxConcurrency].
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		c.concurrency = min(max(n, 1), MaxConcurrency)
	}
}

// WithFailFast stops scheduling files after the first failure. Files already
// in flight finish; files never started are not reported.
func WithFailFast(failFast bool) Option {
	return func(c *Collector) {
		c.failFast = failFast
	}
}

// WithCache enables the candidate cache. A nil store disables it.
func WithCache(store *cache.Store) Option {
	return func(c *Collector) {
		c.cache = store
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithParser replaces the default ElmParser.
func WithParser(p *ast.ElmParser) Option {
	return func(c *Collector) {
		if p != nil {
			c.parser = p
		}
	}
}

// Collector discovers candidate tests across many files.
//
// Description:
//
//	Collector runs parse then resolve for every Source with bounded
//	parallelism. Each file gets its own tree-sitter parser inside
//	ast.ElmParser; the resolver's compiled queries are shared read-only.
//	Results keep input order regardless of completion order.
//
// Error Policy:
//
//	Collect-all by default: every file is attempted and the failures are
//	returned together as a *CollectError next to the successful modules.
//	With WithFailFast, scheduling stops at the first failure.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Collector struct {
	parser      *ast.ElmParser
	resolver    exposure.Resolver
	cache       *cache.Store
	concurrency int
	failFast    bool
	logger      *slog.Logger
}

// New creates a Collector resolving with resolver. A nil resolver selects
// the query strategy with the default headerless policy.
func New(resolver exposure.Resolver, opts ...Option) *Collector {
	if resolver == nil {
		resolver = exposure.NewQueryResolver("")
	}
	c := &Collector{
		parser:      ast.NewElmParser(),
		resolver:    resolver,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AllTests collects with the default configuration: query strategy, empty
// result for headerless files, collect-all.
func AllTests(ctx context.Context, sources []Source) ([]TestModule, error) {
	return New(nil).Collect(ctx, sources)
}

// Collect discovers candidates for every source.
//
// Outputs:
//
//	[]TestModule - Successful files, in input order. Never nil.
//	error - *CollectError when any file failed, or the context error if ctx
//	        was canceled. Modules are still returned with a *CollectError.
func (c *Collector) Collect(ctx context.Context, sources []Source) ([]TestModule, error) {
	type slot struct {
		module TestModule
		done   bool
	}
	slots := make([]slot, len(sources))
	failures := make([]*FileError, len(sources))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	sem := make(chan struct{}, c.concurrency)

	scheduled := 0
schedule:
	for i, src := range sources {
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			break schedule
		}
		if gctx.Err() != nil {
			<-sem
			break
		}
		scheduled++

		i, src := i, src
		g.Go(func() error {
			defer func() { <-sem }()

			names, err := c.CollectFile(gctx, src)
			if err != nil {
				if c.failFast && runCtx.Err() != nil && ctx.Err() == nil && errors.Is(err, context.Canceled) {
					// Interrupted by another file's failure.
					recordFile("skipped")
					return nil
				}
				failures[i] = &FileError{Path: src.Path, Err: err}
				recordFile("failed")
				c.logger.Warn("test discovery failed",
					slog.String("file", src.Path),
					slog.String("error", err.Error()),
				)
				if c.failFast {
					cancel()
					return failures[i]
				}
				return nil
			}

			slots[i] = slot{module: TestModule{Path: src.Path, Tests: names}, done: true}
			recordFile("ok")
			recordCandidates(len(names))
			return nil
		})
	}

	// The first error is already recorded in failures.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	if skipped := len(sources) - scheduled; skipped > 0 {
		filesTotal.WithLabelValues("skipped").Add(float64(skipped))
		c.logger.Info("fail-fast: files not scheduled", slog.Int("skipped", skipped))
	}

	modules := make([]TestModule, 0, len(sources))
	for _, s := range slots {
		if s.done {
			modules = append(modules, s.module)
		}
	}

	var failed []*FileError
	for _, f := range failures {
		if f != nil {
			failed = append(failed, f)
		}
	}
	if len(failed) > 0 {
		return modules, &CollectError{Failures: failed}
	}
	return modules, nil
}

// CollectFile discovers the candidates of a single source.
//
// Outputs:
//
//	[]string - Candidate names in source order. Never nil on success.
//	error - Parse or resolution failure.
func (c *Collector) CollectFile(ctx context.Context, src Source) ([]string, error) {
	start := time.Now()
	defer func() {
		fileDurationSeconds.WithLabelValues(string(c.resolver.Strategy())).Observe(time.Since(start).Seconds())
	}()

	var key string
	if c.cache != nil {
		key = cache.Key(c.fingerprint(), src.Content)
		names, hit, err := c.cache.Load(ctx, key)
		switch {
		case err != nil:
			recordCacheLookup("error")
			c.logger.Warn("candidate cache lookup failed",
				slog.String("file", src.Path),
				slog.String("error", err.Error()),
			)
		case hit:
			recordCacheLookup("hit")
			return names, nil
		default:
			recordCacheLookup("miss")
		}
	}

	doc, err := c.parser.Parse(ctx, src.Content, src.Path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	res, err := c.resolver.Resolve(ctx, doc.Root(), doc.Source)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("test candidates resolved",
		slog.String("file", src.Path),
		slog.String("outcome", string(res.Outcome)),
		slog.Int("candidate_count", len(res.Names)),
	)

	if c.cache != nil {
		if err := c.cache.Save(ctx, key, res.Names); err != nil {
			c.logger.Warn("candidate cache save failed",
				slog.String("file", src.Path),
				slog.String("error", err.Error()),
			)
		}
	}
	return res.Names, nil
}

// fingerprint covers the resolver and the parser settings that can turn a
// cached success into a failure.
func (c *Collector) fingerprint() string {
	return fmt.Sprintf("%s|max_file_size=%d|reject_syntax_errors=%t",
		c.resolver.Fingerprint(), c.parser.MaxFileSize(), c.parser.RejectsSyntaxErrors())
}
