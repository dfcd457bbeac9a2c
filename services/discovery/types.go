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

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.1.0"

// MaxFilesPerRequest bounds the size of one discovery request.
const MaxFilesPerRequest = 1000

// DiscoverRequest is the body of POST /v1/discovery/tests.
type DiscoverRequest struct {
	// Files are the sources to scan, in the order results are wanted.
	Files []FileInput `json:"files" binding:"required,min=1,max=1000,dive"`
}

// FileInput is one Elm source in a DiscoverRequest.
type FileInput struct {
	// Path identifies the file in the response. It is never opened.
	Path string `json:"path" binding:"required"`

	// Source is the Elm source text. May be empty.
	Source string `json:"source"`
}

// DiscoverResponse is the body returned by POST /v1/discovery/tests.
type DiscoverResponse struct {
	RequestID string          `json:"request_id"`
	Modules   []ModuleResult  `json:"modules"`
	Failures  []FailureResult `json:"failures"`
}

// ModuleResult is the candidate list of one file.
type ModuleResult struct {
	Path  string   `json:"path"`
	Tests []string `json:"tests"`
}

// FailureResult reports why one file produced no candidates.
type FailureResult struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// HealthResponse is the body of GET /v1/discovery/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Strategy string `json:"strategy"`
}

// ErrorResponse is returned for request-level errors.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
