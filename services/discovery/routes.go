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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the discovery endpoints.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/discovery/tests - Discover candidate tests in posted sources
//	GET  /v1/discovery/health - Health check
//
// Example:
//
//	v1 := router.Group("/v1")
//	discovery.RegisterRoutes(v1, discovery.NewHandlers(c, "query"))
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	d := rg.Group("/discovery")
	{
		d.POST("/tests", handlers.HandleDiscover)
		d.GET("/health", handlers.HandleHealth)
	}
}
