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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TalusRisk/TalusPSA/services/fta/archive"
	"github.com/TalusRisk/TalusPSA/services/fta/graph"
	"github.com/TalusRisk/TalusPSA/services/fta/mef"
	"github.com/TalusRisk/TalusPSA/services/fta/mocus"
)

// statusClientClosedRequest is nginx's code for a client that went
// away mid-request. Not in net/http.
const statusClientClosedRequest = 499

// Handlers contains the HTTP handlers for the analysis service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyze handles POST /v1/fta/analyze.
//
// Description:
//
//	Parses the submitted model, runs the full cut set analysis, and
//	returns the report. When the service has an archive, the report
//	is retained and can be fetched later by its run ID.
//
// Request Body:
//
//	AnalyzeRequest
//
// Response:
//
//	200 OK: report.Report
//	400 Bad Request: Malformed request or model document
//	422 Unprocessable Entity: Model failed semantic validation
//	504 Gateway Timeout: Analysis exceeded the service time limit
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Request validation failed", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Analyzing model",
		"model_bytes", len(req.Model),
		"order_limit", req.OrderLimit)

	rep, err := h.svc.AnalyzeDocument(c.Request.Context(), []byte(req.Model), req.Settings())
	if err != nil {
		statusCode, errCode := modelErrorStatus(err, "ANALYSIS_FAILED")
		logger.Error("Analysis failed", "error", err, "code", errCode)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Analysis complete",
		"run_id", rep.RunID,
		"model", rep.Model,
		"products", len(rep.Products),
		"expansions", rep.Summary.Expansions)

	c.JSON(http.StatusOK, rep)
}

// HandleValidate handles POST /v1/fta/validate.
//
// Description:
//
//	Parses and validates the submitted model without analyzing it.
//	Returns element counts and any warnings for a valid model.
//
// Request Body:
//
//	ValidateRequest
//
// Response:
//
//	200 OK: ValidateResponse
//	400 Bad Request: Malformed request or model document
//	422 Unprocessable Entity: Model failed semantic validation
func (h *Handlers) HandleValidate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleValidate")

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Request validation failed", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	model, vr, err := h.svc.ValidateDocument([]byte(req.Model))
	if err != nil {
		statusCode, errCode := modelErrorStatus(err, "VALIDATION_FAILED")
		logger.Warn("Model validation failed", "error", err, "code", errCode)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	top, err := model.TopGate()
	if err != nil {
		logger.Error("Top gate lookup failed after validation", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
		return
	}

	logger.Info("Model validated",
		"model", model.Name,
		"warnings", len(vr.Warnings))

	c.JSON(http.StatusOK, ValidateResponse{
		Valid:       true,
		Model:       model.Name,
		TopEvent:    top.Name,
		BasicEvents: model.NumBasicEvents(),
		HouseEvents: len(model.HouseEvents()),
		Gates:       len(model.Gates()),
		Warnings:    vr.Warnings,
	})
}

// HandleListReports handles GET /v1/fta/reports.
//
// Description:
//
//	Lists archived reports, newest first.
//
// Query Parameters:
//
//	limit: Maximum number of entries (optional, default 100)
//
// Response:
//
//	200 OK: ListReportsResponse
//	400 Bad Request: Malformed limit
//	503 Service Unavailable: No archive configured
func (h *Handlers) HandleListReports(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListReports")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			logger.Warn("Invalid limit", "limit", raw)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be a non-negative integer",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		limit = n
	}

	entries, err := h.svc.Reports(c.Request.Context(), limit)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "LIST_FAILED"
		if errors.Is(err, ErrNoArchive) {
			statusCode = http.StatusServiceUnavailable
			errCode = "NO_ARCHIVE"
		}
		logger.Error("Report listing failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	c.JSON(http.StatusOK, ListReportsResponse{
		Reports: entries,
		Count:   len(entries),
	})
}

// HandleGetReport handles GET /v1/fta/reports/:id.
//
// Description:
//
//	Fetches one archived report by its run ID.
//
// Response:
//
//	200 OK: report.Report
//	400 Bad Request: Malformed run ID
//	404 Not Found: No report under that ID
//	503 Service Unavailable: No archive configured
func (h *Handlers) HandleGetReport(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetReport")

	runID := c.Param("id")
	rep, err := h.svc.Report(c.Request.Context(), runID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "FETCH_FAILED"

		if errors.Is(err, archive.ErrBadRunID) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_RUN_ID"
		} else if errors.Is(err, archive.ErrNotFound) {
			statusCode = http.StatusNotFound
			errCode = "REPORT_NOT_FOUND"
		} else if errors.Is(err, ErrNoArchive) {
			statusCode = http.StatusServiceUnavailable
			errCode = "NO_ARCHIVE"
		}

		logger.Warn("Report fetch failed", "run_id", runID, "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	c.JSON(http.StatusOK, rep)
}

// HandleHealth handles GET /v1/fta/health.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/fta/ready.
//
// Description:
//
//	Returns the readiness status of the service. When an archive is
//	configured, readiness includes a round trip through the store.
//
// Response:
//
//	200 OK: ReadyResponse (Status="ready")
//	503 Service Unavailable: ReadyResponse (Status="not_ready")
func (h *Handlers) HandleReady(c *gin.Context) {
	if h.svc.config.Archive != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if _, err := h.svc.Reports(ctx, 1); err != nil {
			c.Header("Retry-After", "10")
			c.JSON(http.StatusServiceUnavailable, ReadyResponse{
				Status: "not_ready",
				Reason: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, ReadyResponse{Status: "ready"})
}

// modelErrorStatus maps a model processing error to an HTTP status
// and machine code. Document and request shape problems are 400;
// models that parse but fail semantic validation are 422; everything
// unrecognized falls through to 500 with the given code.
func modelErrorStatus(err error, fallback string) (int, string) {
	statusCode := http.StatusInternalServerError
	errCode := fallback

	if errors.Is(err, ErrEmptyModel) {
		statusCode = http.StatusBadRequest
		errCode = "EMPTY_MODEL"
	} else if errors.Is(err, ErrModelTooLarge) {
		statusCode = http.StatusBadRequest
		errCode = "MODEL_TOO_LARGE"
	} else if errors.Is(err, mef.ErrInvalidModel) {
		statusCode = http.StatusBadRequest
		errCode = "INVALID_MODEL"
	} else if errors.Is(err, mef.ErrDuplicateElement) {
		statusCode = http.StatusBadRequest
		errCode = "DUPLICATE_ELEMENT"
	} else if errors.Is(err, mocus.ErrInvalidOrderLimit) {
		statusCode = http.StatusBadRequest
		errCode = "INVALID_ORDER_LIMIT"
	} else if errors.Is(err, mef.ErrUndefinedElement) {
		statusCode = http.StatusUnprocessableEntity
		errCode = "UNDEFINED_ELEMENT"
	} else if errors.Is(err, mef.ErrCyclicGraph) {
		statusCode = http.StatusUnprocessableEntity
		errCode = "CYCLIC_MODEL"
	} else if errors.Is(err, mef.ErrInvalidGate) {
		statusCode = http.StatusUnprocessableEntity
		errCode = "INVALID_GATE"
	} else if errors.Is(err, mef.ErrInvalidVoteNumber) {
		statusCode = http.StatusUnprocessableEntity
		errCode = "INVALID_VOTE_NUMBER"
	} else if errors.Is(err, graph.ErrNotCoherent) {
		statusCode = http.StatusUnprocessableEntity
		errCode = "NOT_COHERENT"
	} else if errors.Is(err, context.DeadlineExceeded) {
		statusCode = http.StatusGatewayTimeout
		errCode = "ANALYSIS_TIMEOUT"
	} else if errors.Is(err, context.Canceled) {
		statusCode = statusClientClosedRequest
		errCode = "REQUEST_CANCELLED"
	}

	return statusCode, errCode
}

// getOrCreateRequestID returns the request ID from the X-Request-ID
// header, generating one if absent. The ID is echoed on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
