// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package discovery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/elmtest/services/discovery/collector"
	"github.com/AleutianAI/elmtest/services/discovery/exposure"
)

func newTestRouter(c *collector.Collector) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandlers(c, "query"))
	return router
}

func postJSON(t *testing.T, router http.Handler, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/discovery/tests", &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleDiscover_OK(t *testing.T) {
	router := newTestRouter(collector.New(nil))

	rec := postJSON(t, router, DiscoverRequest{Files: []FileInput{
		{Path: "tests/A.elm", Source: "module A exposing (..)\none = 1\ntwo = 2\n"},
		{Path: "tests/B.elm", Source: "module B exposing (one, Msg(..))\none = 1\n"},
	}}, map[string]string{"X-Request-ID": "req-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	var resp DiscoverResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, []ModuleResult{
		{Path: "tests/A.elm", Tests: []string{"one", "two"}},
		{Path: "tests/B.elm", Tests: []string{"one"}},
	}, resp.Modules)
	assert.Empty(t, resp.Failures)
}

func TestHandleDiscover_PartialFailure(t *testing.T) {
	router := newTestRouter(collector.New(exposure.NewCursorResolver()))

	rec := postJSON(t, router, DiscoverRequest{Files: []FileInput{
		{Path: "Good.elm", Source: "module Good exposing (a)\na = 1\n"},
		{Path: "Loose.elm", Source: "a = 1\n"},
	}}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DiscoverResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Modules, 1)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "Loose.elm", resp.Failures[0].Path)
	assert.Contains(t, resp.Failures[0].Error, "no module declaration")
}

func TestHandleDiscover_AllFailed(t *testing.T) {
	router := newTestRouter(collector.New(exposure.NewCursorResolver()))

	rec := postJSON(t, router, DiscoverRequest{Files: []FileInput{
		{Path: "Loose.elm", Source: "a = 1\n"},
	}}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp DiscoverResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Modules)
	assert.Len(t, resp.Failures, 1)
}

func TestHandleDiscover_BadRequest(t *testing.T) {
	router := newTestRouter(collector.New(nil))

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"files": [`},
		{"no files", DiscoverRequest{}},
		{"empty files", `{"files": []}`},
		{"missing path", DiscoverRequest{Files: []FileInput{{Source: "a = 1"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), "INVALID_REQUEST"))
		})
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(collector.New(nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/discovery/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceVersion, resp.Version)
	assert.Equal(t, "query", resp.Strategy)
}
