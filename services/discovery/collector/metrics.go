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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// filesTotal counts files by outcome.
	// Labels: status (ok, failed, skipped)
	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elmtest",
		Subsystem: "collector",
		Name:      "files_total",
		Help:      "Files processed by outcome",
	}, []string{"status"})

	// candidatesTotal counts candidate names emitted.
	candidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "elmtest",
		Subsystem: "collector",
		Name:      "candidates_total",
		Help:      "Candidate test names found",
	})

	// fileDurationSeconds measures parse plus resolve time per file.
	// Labels: strategy (query, cursor)
	fileDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "elmtest",
		Subsystem: "collector",
		Name:      "file_duration_seconds",
		Help:      "Per-file discovery latency",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"strategy"})

	// cacheLookupsTotal counts candidate cache lookups.
	// Labels: result (hit, miss, error)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elmtest",
		Subsystem: "collector",
		Name:      "cache_lookups_total",
		Help:      "Candidate cache lookups by result",
	}, []string{"result"})
)

func recordFile(status string) {
	filesTotal.WithLabelValues(status).Inc()
}

func recordCandidates(n int) {
	candidatesTotal.Add(float64(n))
}

func recordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}
