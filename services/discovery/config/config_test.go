// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elmtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "query", cfg.Strategy)
	assert.Equal(t, "empty", cfg.Headerless)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.False(t, cfg.RejectSyntaxErrors)
	assert.False(t, cfg.FailFast)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 168*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 12230, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
strategy: cursor
concurrency: 8
cache:
  enabled: true
  in_memory: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cursor", cfg.Strategy)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Cache.InMemory)
	// Untouched keys keep their defaults.
	assert.Equal(t, "empty", cfg.Headerless)
	assert.Equal(t, 168*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 12230, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown strategy", "strategy: regex"},
		{"unknown headerless", "headerless: all"},
		{"zero concurrency", "concurrency: 0"},
		{"too much concurrency", "concurrency: 65"},
		{"non-positive max size", "max_file_size: 0"},
		{"persistent cache without path", "cache:\n  enabled: true\n  path: \"\""},
		{"zero ttl", "cache:\n  ttl: 0s"},
		{"bad port", "server:\n  port: 70000"},
		{"unknown exporter", "telemetry:\n  trace_exporter: jaeger"},
		{"otlp without endpoint", "telemetry:\n  trace_exporter: otlp\n  otlp_endpoint: \"\""},
		{"unknown key", "stratgy: query"},
		{"malformed", "strategy: [query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_InMemoryCacheNeedsNoPath(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  enabled: true\n  in_memory: true\n  path: \"\""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Cache.Path)
}

func TestLoad_FileTooLarge(t *testing.T) {
	big := make([]byte, MaxYAMLFileSize+1)
	for i := range big {
		big[i] = '#'
	}
	path := writeConfig(t, string(big))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
