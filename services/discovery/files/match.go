// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package files turns command-line patterns into Elm sources and watches
// them for changes.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AleutianAI/elmtest/services/discovery/collector"
)

// ElmExt is the extension of Elm source files.
const ElmExt = ".elm"

// DefaultPattern is where elm-test looks for tests when no pattern is given.
const DefaultPattern = "tests/**/*.elm"

// ErrNoPatterns is returned by Match when called without patterns.
var ErrNoPatterns = errors.New("no patterns provided")

// Match expands globs (including ** and {a,b}) into a sorted, deduplicated
// list of .elm files. A pattern naming a directory matches every .elm file
// below it.
func Match(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	seen := make(map[string]bool)
	var matches []string

	for _, pattern := range patterns {
		pattern = filepath.Clean(pattern)
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			pattern = filepath.Join(pattern, "**", "*"+ElmExt)
		}

		list, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching pattern %q: %w", pattern, err)
		}

		for _, path := range list {
			if !strings.HasSuffix(path, ElmExt) || seen[path] {
				continue
			}
			seen[path] = true
			matches = append(matches, path)
		}
	}

	sort.Strings(matches)
	return matches, nil
}

// Load reads every path into a collector.Source, preserving order.
func Load(paths []string) ([]collector.Source, error) {
	sources := make([]collector.Source, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		sources = append(sources, collector.Source{Path: path, Content: content})
	}
	return sources, nil
}
