// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log/slog"

	"github.com/AleutianAI/elmtest/services/discovery"
	"github.com/AleutianAI/elmtest/services/discovery/ast"
	"github.com/AleutianAI/elmtest/services/discovery/cache"
	"github.com/AleutianAI/elmtest/services/discovery/collector"
	"github.com/AleutianAI/elmtest/services/discovery/config"
	"github.com/AleutianAI/elmtest/services/discovery/exposure"
	"github.com/AleutianAI/elmtest/services/discovery/telemetry"
)

// loadConfig reads --config and applies a non-empty strategy override.
func loadConfig(strategyOverride string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if strategyOverride != "" {
		cfg.Strategy = strategyOverride
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// buildCollector wires the parser, resolver and optional cache from cfg.
// The returned store is nil when caching is disabled; the caller closes it.
func buildCollector(cfg *config.Config, logger *slog.Logger) (*collector.Collector, *cache.Store, error) {
	resolver, err := exposure.New(
		exposure.Strategy(cfg.Strategy),
		exposure.WithHeaderlessPolicy(exposure.HeaderlessPolicy(cfg.Headerless)),
	)
	if err != nil {
		return nil, nil, err
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cache.Config{
			Path:     cfg.Cache.Path,
			InMemory: cfg.Cache.InMemory,
			TTL:      cfg.Cache.TTL,
			Logger:   logger,
		})
		if err != nil {
			// The cache is an optimization; discovery works without it.
			logger.Warn("candidate cache unavailable, continuing without it",
				slog.String("path", cfg.Cache.Path),
				slog.String("error", err.Error()),
			)
			store = nil
		}
	}

	parser := ast.NewElmParser(
		ast.WithMaxFileSize(cfg.MaxFileSize),
		ast.WithRejectSyntaxErrors(cfg.RejectSyntaxErrors),
	)

	c := collector.New(resolver,
		collector.WithParser(parser),
		collector.WithConcurrency(cfg.Concurrency),
		collector.WithFailFast(cfg.FailFast),
		collector.WithCache(store),
		collector.WithLogger(logger),
	)
	return c, store, nil
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = versionString()
	tc.TraceExporter = cfg.Telemetry.TraceExporter
	tc.MetricExporter = cfg.Telemetry.MetricExporter
	tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	return tc
}

func versionString() string {
	return "v" + discovery.ServiceVersion
}
