// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("elmtest.ast")
	meter  = otel.Meter("elmtest.ast")
)

// parseInstruments are the otel instruments reported by ElmParser.Parse.
//
// They are created on first use, after telemetry.Init has had a chance to
// install the real meter provider. A failure to create any of them disables
// parse metrics for the life of the process; parsing itself is unaffected.
type parseInstruments struct {
	// duration covers the whole Parse call, rejected inputs included.
	duration metric.Float64Histogram

	// outcomes counts Parse calls by "outcome": ok, rejected.
	outcomes metric.Int64Counter

	// syntaxErrors counts trees holding ERROR or MISSING nodes, whether or
	// not WithRejectSyntaxErrors turned them into failures.
	syntaxErrors metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	instruments     *parseInstruments
)

func loadInstruments() *parseInstruments {
	instrumentsOnce.Do(func() {
		duration, err := meter.Float64Histogram("ast_parse_duration_seconds",
			metric.WithDescription("Time spent in ElmParser.Parse"),
			metric.WithUnit("s"),
		)
		if err != nil {
			return
		}
		outcomes, err := meter.Int64Counter("ast_parse_total",
			metric.WithDescription("ElmParser.Parse calls by outcome"),
		)
		if err != nil {
			return
		}
		syntaxErrors, err := meter.Int64Counter("ast_tree_syntax_errors_total",
			metric.WithDescription("Elm trees containing ERROR or MISSING nodes"),
		)
		if err != nil {
			return
		}
		instruments = &parseInstruments{
			duration:     duration,
			outcomes:     outcomes,
			syntaxErrors: syntaxErrors,
		}
	})
	return instruments
}

// recordParseMetrics reports one Parse call. success is false for every
// rejection: oversize, invalid UTF-8, cancellation, grammar failure and, when
// enabled, syntax errors.
func recordParseMetrics(ctx context.Context, duration time.Duration, hasSyntaxErrors, success bool) {
	inst := loadInstruments()
	if inst == nil {
		return
	}

	outcome := "ok"
	if !success {
		outcome = "rejected"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	inst.duration.Record(ctx, duration.Seconds(), attrs)
	inst.outcomes.Add(ctx, 1, attrs)
	if hasSyntaxErrors {
		inst.syntaxErrors.Add(ctx, 1)
	}
}

// startParseSpan opens the "ElmParser.Parse" span. The caller ends it.
func startParseSpan(ctx context.Context, filePath string, contentSize int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ElmParser.Parse",
		trace.WithAttributes(
			attribute.String("ast.language", "elm"),
			attribute.String("ast.file", filePath),
			attribute.Int("ast.content_size", contentSize),
		),
	)
}
