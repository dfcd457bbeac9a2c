// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads discovery settings from YAML.
//
// Defaults are embedded in the binary; a user file is decoded over them so
// missing keys keep their default values. The merged result is validated with
// go-playground/validator.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed discovery_defaults.yaml
var defaultConfigYAML []byte

// MaxYAMLFileSize bounds the size of a user configuration file.
const MaxYAMLFileSize = 1 << 20

// ErrInvalidConfig is wrapped by every error Load returns for bad input.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full discovery configuration.
type Config struct {
	// Strategy selects the exposure resolver: "query" or "cursor".
	Strategy string `yaml:"strategy" validate:"oneof=query cursor"`

	// Headerless selects what the query strategy returns for files with no
	// module header: "empty" or "top_level".
	Headerless string `yaml:"headerless" validate:"oneof=empty top_level"`

	// Concurrency bounds the number of files processed at once.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=64"`

	// MaxFileSize is the largest source accepted, in bytes.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`

	// RejectSyntaxErrors makes a CST containing ERROR or MISSING nodes a
	// parse failure.
	RejectSyntaxErrors bool `yaml:"reject_syntax_errors"`

	// FailFast stops scheduling files after the first failure.
	FailFast bool `yaml:"fail_fast"`

	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CacheConfig configures the badger candidate cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Path     string        `yaml:"path" validate:"required_if=Enabled true InMemory false"`
	InMemory bool          `yaml:"in_memory"`
	TTL      time.Duration `yaml:"ttl" validate:"gt=0"`
}

// ServerConfig configures `elmtest serve`.
type ServerConfig struct {
	Port  int  `yaml:"port" validate:"min=1,max=65535"`
	Debug bool `yaml:"debug"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=otlp stdout none"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=prometheus stdout none"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the embedded defaults.
//
// Panics if the embedded YAML is invalid, which is a build defect.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads the configuration file at path and merges it over the defaults.
//
// Description:
//
//	An empty path returns the defaults. The file must not exceed
//	MaxYAMLFileSize and must not contain unknown keys.
//
// Inputs:
//
//	path - YAML file path, or "" for defaults only.
//
// Outputs:
//
//	*Config - Validated configuration. Never nil on success.
//	error - Wraps ErrInvalidConfig for parse or validation failures, or the
//	        underlying os error if the file cannot be read.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("%w: %s exceeds maximum size (%d > %d)",
			ErrInvalidConfig, path, info.Size(), MaxYAMLFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("discovery config loaded",
		slog.String("path", path),
		slog.String("strategy", cfg.Strategy),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Bool("cache_enabled", cfg.Cache.Enabled),
	)
	return cfg, nil
}

// Parse decodes data over the embedded defaults and validates the result.
// Nil or empty data yields the defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := decodeStrict(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrInvalidConfig, err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := decodeStrict(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// A file holding only comments decodes to nothing.
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	return nil
}
