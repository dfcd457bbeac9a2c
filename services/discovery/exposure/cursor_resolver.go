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

	sitter "github.com/smacker/go-tree-sitter"
)

// CursorResolver resolves candidates with ExplicitExposedValues and
// TopLevelValues.
//
// A file without a module declaration is an error for this resolver
// (ErrNoModuleHeader), unlike QueryResolver.
type CursorResolver struct{}

// NewCursorResolver creates a CursorResolver.
func NewCursorResolver() *CursorResolver {
	return &CursorResolver{}
}

// Strategy returns StrategyCursor.
func (r *CursorResolver) Strategy() Strategy {
	return StrategyCursor
}

// Fingerprint identifies the resolver configuration.
func (r *CursorResolver) Fingerprint() string {
	return fingerprint(StrategyCursor, "")
}

// Resolve returns the explicit exposed values, or every top-level value when
// the module exposes "(..)".
func (r *CursorResolver) Resolve(ctx context.Context, root *sitter.Node, source []byte) (*Resolution, error) {
	_, span := startResolveSpan(ctx, StrategyCursor)
	defer span.End()

	res, err := ExposedValues(root, source)
	finishResolveSpan(span, res, err)
	return res, err
}

// ExposedValues combines the cursor-walk resolvers: explicit names when the
// header lists them, otherwise all top-level values.
func ExposedValues(root *sitter.Node, source []byte) (*Resolution, error) {
	clause, err := ExplicitExposedValues(root, source)
	if err != nil {
		return nil, err
	}
	if !clause.Wildcard {
		return &Resolution{Names: clause.Values, Outcome: OutcomeExplicit}, nil
	}

	names, err := TopLevelValues(root, source)
	if err != nil {
		return nil, err
	}
	return &Resolution{Names: names, Outcome: OutcomeWildcard}, nil
}
