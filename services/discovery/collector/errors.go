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
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/elmtest/services/discovery/ast"
)

// FileError attributes a failure to one source file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	// A ParseError for the same file already leads with the path.
	var parseErr *ast.ParseError
	if errors.As(e.Err, &parseErr) && parseErr.FilePath == e.Path {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// CollectError aggregates the per-file failures of one Collect call.
//
// Failures are in input order. errors.Is and errors.As see every failure
// through Unwrap.
type CollectError struct {
	Failures []*FileError
}

func (e *CollectError) Error() string {
	if len(e.Failures) == 1 {
		return "1 file failed: " + e.Failures[0].Error()
	}
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d files failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *CollectError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
