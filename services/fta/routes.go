// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package fta

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all fault tree analysis routes with the
// router.
//
// Description:
//
//	Registers all /v1/fta/* endpoints with the given Gin router
//	group. The router group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Analysis Endpoints:
//
//	POST /v1/fta/analyze - Run a minimal cut set analysis
//	POST /v1/fta/validate - Validate a model without analyzing it
//
// Archive Endpoints:
//
//	GET  /v1/fta/reports - List archived reports, newest first
//	GET  /v1/fta/reports/:id - Fetch one archived report
//
// Health Endpoints:
//
//	GET  /v1/fta/health - Health check
//	GET  /v1/fta/ready - Readiness check
//
// Example:
//
//	service := fta.NewService(fta.DefaultServiceConfig())
//	handlers := fta.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	fta.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	fta := rg.Group("/fta")
	{
		// Analysis
		fta.POST("/analyze", handlers.HandleAnalyze)
		fta.POST("/validate", handlers.HandleValidate)

		// Report archive
		fta.GET("/reports", handlers.HandleListReports)
		fta.GET("/reports/:id", handlers.HandleGetReport)

		// Health checks
		fta.GET("/health", handlers.HandleHealth)
		fta.GET("/ready", handlers.HandleReady)
	}
}
