// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache persists resolved candidate lists between runs.
//
// Storage layout:
//
//	elmtest/candidates/v1/{sha256(fingerprint, source)}  ->  gob-encoded []string
//	                                                        TTL: configurable
//
// The key covers the resolver fingerprint (strategy, headerless policy,
// grammar) and the source bytes, not the file path, so identical sources share
// an entry and any change to either produces a fresh key. Stale entries are
// left for badger's TTL to expire.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultTTL is the lifetime of a cached entry when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// keyPrefix is prepended to the content hash. Versioned so the value format
// can change without collisions.
const keyPrefix = "elmtest/candidates/v1/"

// errCacheMiss distinguishes a missing key from a storage failure.
var errCacheMiss = errors.New("cache miss")

// Config configures Open.
type Config struct {
	// Path is the directory for badger files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory. Useful for tests.
	InMemory bool

	// TTL is the lifetime of each entry. Zero means DefaultTTL.
	TTL time.Duration

	// Logger receives cache diagnostics and badger's own log output.
	// If nil, slog.Default() is used and badger's logging is disabled.
	Logger *slog.Logger
}

// Store is a badger-backed candidate cache.
//
// A nil *Store is valid and behaves as a cache that never hits and discards
// writes.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
	owned  bool
}

// badgerLogger adapts slog to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens a badger database according to cfg and wraps it in a Store that
// owns it. Close releases the database.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := NewStore(db, cfg.TTL, cfg.Logger)
	s.owned = true
	return s, nil
}

// NewStore wraps an already opened database. The caller keeps ownership of db.
//
// Inputs:
//
//	db     - Opened badger database. Must not be nil.
//	ttl    - Entry lifetime. Zero or negative means DefaultTTL.
//	logger - May be nil.
func NewStore(db *badger.DB, ttl time.Duration, logger *slog.Logger) *Store {
	if db == nil {
		panic("cache.NewStore: db must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, ttl: ttl, logger: logger}
}

// Key derives the cache key for source resolved under fingerprint.
func Key(fingerprint string, source []byte) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

// Load returns the cached candidates for key.
//
// Outputs:
//
//	[]string - Cached names, never nil on a hit.
//	bool     - False on a miss (absent or expired key) or nil Store.
//	error    - Storage or decode failure.
func (s *Store) Load(ctx context.Context, key string) ([]string, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get cache key: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy value: %w", err)
		}
		return nil
	})
	if errors.Is(err, errCacheMiss) {
		s.logger.Debug("candidate cache: miss", slog.String("key", shortKey(key)))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("candidate cache load: %w", err)
	}

	var names []string
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&names); err != nil {
		return nil, false, fmt.Errorf("candidate cache decode: %w", err)
	}
	if names == nil {
		names = []string{}
	}

	s.logger.Debug("candidate cache: hit",
		slog.String("key", shortKey(key)),
		slog.Int("candidate_count", len(names)),
	)
	return names, true, nil
}

// Save stores names under key with the configured TTL.
func (s *Store) Save(ctx context.Context, key string, names []string) error {
	if s == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if names == nil {
		names = []string{}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(names); err != nil {
		return fmt.Errorf("candidate cache encode: %w", err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), buf.Bytes()).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("candidate cache save: %w", err)
	}
	return nil
}

// Close closes the database if the Store opened it.
func (s *Store) Close() error {
	if s == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
