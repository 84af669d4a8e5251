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
	"github.com/go-playground/validator/v10"

	"github.com/TalusRisk/TalusPSA/pkg/validation"
	"github.com/TalusRisk/TalusPSA/services/fta/archive"
)

// ServiceVersion is the fault tree analysis service version.
const ServiceVersion = "1.0.0"

const (
	// MaxModelDocumentBytes is the maximum size of a submitted model
	// document. Large models belong on the CLI, not in a request body.
	MaxModelDocumentBytes = 1 * 1024 * 1024 // 1MB

	// MaxHouseOverrides is the maximum number of house event
	// overrides per request.
	MaxHouseOverrides = 64

	// MaxRequestOrderLimit is the maximum cut set width a request may
	// ask for. Wider enumerations belong on the CLI.
	MaxRequestOrderLimit = 100
)

// ftaValidate is the validator instance for request types.
// Initialized in init() with custom validators.
var ftaValidate *validator.Validate

func init() {
	ftaValidate = validator.New()

	_ = ftaValidate.RegisterValidation("maxmodelbytes", validateMaxModelBytes)
	_ = ftaValidate.RegisterValidation("elementname", validateElementName)
}

// validateMaxModelBytes checks that a string field does not exceed
// MaxModelDocumentBytes. Byte length, not rune count, so oversized
// payloads are rejected regardless of encoding.
func validateMaxModelBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxModelDocumentBytes
}

// validateElementName checks that a string field is a well-formed
// model element name.
func validateElementName(fl validator.FieldLevel) bool {
	return validation.ValidateElementName(fl.Field().String()) == nil
}

// AnalyzeRequest is the request body for POST /v1/fta/analyze.
type AnalyzeRequest struct {
	// Model is the YAML model document. Required.
	Model string `json:"model" validate:"required,maxmodelbytes"`

	// OrderLimit caps cut set width. Default: the service default.
	OrderLimit int `json:"order_limit" validate:"gte=0,lte=100"`

	// AssumeCoherent promises the model contains no negation.
	AssumeCoherent bool `json:"assume_coherent"`

	// TrueHouse and FalseHouse override declared house event states
	// before analysis.
	TrueHouse  []string `json:"true_house" validate:"max=64,dive,elementname"`
	FalseHouse []string `json:"false_house" validate:"max=64,dive,elementname"`
}

// Validate checks the request against its constraints.
func (r *AnalyzeRequest) Validate() error {
	return ftaValidate.Struct(r)
}

// Settings translates the request knobs for the service.
func (r *AnalyzeRequest) Settings() AnalysisSettings {
	return AnalysisSettings{
		OrderLimit:     r.OrderLimit,
		AssumeCoherent: r.AssumeCoherent,
		TrueHouse:      r.TrueHouse,
		FalseHouse:     r.FalseHouse,
	}
}

// ValidateRequest is the request body for POST /v1/fta/validate.
type ValidateRequest struct {
	// Model is the YAML model document. Required.
	Model string `json:"model" validate:"required,maxmodelbytes"`
}

// Validate checks the request against its constraints.
func (r *ValidateRequest) Validate() error {
	return ftaValidate.Struct(r)
}

// ValidateResponse is the response for POST /v1/fta/validate.
type ValidateResponse struct {
	// Valid is true when the model parsed and validated. Errors are
	// reported through ErrorResponse instead, so this is always true.
	Valid bool `json:"valid"`

	// Model is the model name.
	Model string `json:"model"`

	// TopEvent is the resolved top gate name.
	TopEvent string `json:"top_event"`

	// BasicEvents, HouseEvents, and Gates count declared elements.
	BasicEvents int `json:"basic_events"`
	HouseEvents int `json:"house_events"`
	Gates       int `json:"gates"`

	// Warnings lists non-fatal model oddities.
	Warnings []string `json:"warnings,omitempty"`
}

// ListReportsResponse is the response for GET /v1/fta/reports.
type ListReportsResponse struct {
	// Reports are archive entries, newest first.
	Reports []archive.Entry `json:"reports"`

	// Count is len(Reports), for clients that page by count.
	Count int `json:"count"`
}

// HealthResponse is the response for GET /v1/fta/health.
type HealthResponse struct {
	// Status is "healthy" if the service is running.
	Status string `json:"status"`

	// Version is the service version.
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /v1/fta/ready.
type ReadyResponse struct {
	// Status is "ready" or "not_ready".
	Status string `json:"status"`

	// Reason explains a not_ready status.
	Reason string `json:"reason,omitempty"`
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	// Error is a human-readable error message.
	Error string `json:"error"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}
