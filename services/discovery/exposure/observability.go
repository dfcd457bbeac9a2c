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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("elmtest.exposure")

// startResolveSpan creates a span for one resolution. Caller must call span.End().
func startResolveSpan(ctx context.Context, strategy Strategy) (context.Context, trace.Span) {
	return tracer.Start(ctx, "exposure.Resolve",
		trace.WithAttributes(attribute.String("exposure.strategy", string(strategy))),
	)
}

// finishResolveSpan records the outcome of a resolution on span.
func finishResolveSpan(span trace.Span, res *Resolution, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return
	}
	span.SetAttributes(
		attribute.String("exposure.outcome", string(res.Outcome)),
		attribute.Int("exposure.candidate_count", len(res.Names)),
	)
}
