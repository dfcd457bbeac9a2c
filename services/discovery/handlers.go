// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discovery exposes Elm test discovery over HTTP.
package discovery

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/elmtest/services/discovery/collector"
)

// Handlers serves the discovery endpoints.
//
// Thread Safety: Safe for concurrent use. The Collector is shared.
type Handlers struct {
	collector *collector.Collector
	strategy  string
}

// NewHandlers creates handlers backed by c. strategy is reported by the
// health endpoint.
func NewHandlers(c *collector.Collector, strategy string) *Handlers {
	return &Handlers{collector: c, strategy: strategy}
}

// HandleDiscover handles POST /v1/discovery/tests.
//
// Description:
//
//	Runs the collector over the posted sources. Files that fail are listed
//	in failures and do not affect the others.
//
// Response:
//
//	200 OK: DiscoverResponse, at least one file succeeded (or none failed)
//	400 Bad Request: Malformed or invalid body
//	422 Unprocessable Entity: DiscoverResponse, every file failed
//	500 Internal Server Error: Collection aborted
func (h *Handlers) HandleDiscover(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDiscover")

	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	sources := make([]collector.Source, len(req.Files))
	for i, f := range req.Files {
		sources[i] = collector.Source{Path: f.Path, Content: []byte(f.Source)}
	}

	modules, err := h.collector.Collect(c.Request.Context(), sources)

	resp := DiscoverResponse{
		RequestID: requestID,
		Modules:   make([]ModuleResult, 0, len(modules)),
		Failures:  []FailureResult{},
	}
	for _, m := range modules {
		resp.Modules = append(resp.Modules, ModuleResult{Path: m.Path, Tests: m.Tests})
	}

	if err != nil {
		var collectErr *collector.CollectError
		if !errors.As(err, &collectErr) {
			logger.Error("Discovery aborted", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: "Discovery aborted",
				Code:  "DISCOVERY_FAILED",
			})
			return
		}
		for _, f := range collectErr.Failures {
			resp.Failures = append(resp.Failures, FailureResult{Path: f.Path, Error: f.Err.Error()})
		}
	}

	logger.Info("Discovery complete",
		"files", len(sources),
		"modules", len(resp.Modules),
		"failures", len(resp.Failures),
	)

	status := http.StatusOK
	if len(resp.Modules) == 0 && len(resp.Failures) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

// HandleHealth handles GET /v1/discovery/health. Always 200 while running.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		Version:  ServiceVersion,
		Strategy: h.strategy,
	})
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
