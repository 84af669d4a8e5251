// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Package fta provides the fault tree analysis HTTP service.
//
// The service exposes endpoints for:
//   - Running a full minimal cut set analysis on a submitted model
//   - Validating a model without analyzing it
//   - Browsing archived analysis reports
package fta

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/TalusRisk/TalusPSA/services/fta/archive"
	"github.com/TalusRisk/TalusPSA/services/fta/graph"
	"github.com/TalusRisk/TalusPSA/services/fta/mef"
	"github.com/TalusRisk/TalusPSA/services/fta/mocus"
	"github.com/TalusRisk/TalusPSA/services/fta/report"
)

// ServiceConfig configures the fault tree analysis service.
type ServiceConfig struct {
	// OrderLimit is the default maximum cut set width when a request
	// does not set its own.
	// Default: 20
	OrderLimit int

	// MaxModelBytes is the maximum size of a submitted model document.
	// Default: 1MB
	MaxModelBytes int

	// MaxAnalysisDuration is the maximum wall time for one analysis
	// run, enumeration included. Zero means no limit.
	// Default: 30s
	MaxAnalysisDuration time.Duration

	// Archive is the report store. When nil, reports are returned to
	// the caller but not retained.
	Archive *archive.Store
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		OrderLimit:          mocus.DefaultOrderLimit,
		MaxModelBytes:       MaxModelDocumentBytes,
		MaxAnalysisDuration: 30 * time.Second,
	}
}

// Service runs fault tree analyses.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Every analysis works on its
//	own parse of the model document; nothing is shared between runs
//	except the archive store, which synchronizes internally.
type Service struct {
	config ServiceConfig
}

// NewService creates a fault tree analysis service.
//
// Inputs:
//   - config: service configuration; zero fields fall back to the
//     DefaultServiceConfig values.
//
// Outputs:
//   - *Service: ready to serve analyses.
func NewService(config ServiceConfig) *Service {
	defaults := DefaultServiceConfig()
	if config.OrderLimit <= 0 {
		config.OrderLimit = defaults.OrderLimit
	}
	if config.MaxModelBytes <= 0 {
		config.MaxModelBytes = defaults.MaxModelBytes
	}
	if config.MaxAnalysisDuration < 0 {
		config.MaxAnalysisDuration = 0
	}
	return &Service{config: config}
}

// AnalysisSettings selects how one analysis run behaves.
type AnalysisSettings struct {
	// OrderLimit caps cut set width. Zero means the service default.
	OrderLimit int

	// AssumeCoherent promises the model contains no negation and
	// skips complement handling. A broken promise fails the run.
	AssumeCoherent bool

	// TrueHouse and FalseHouse override declared house event states
	// before preprocessing. Unknown names fail the run.
	TrueHouse  []string
	FalseHouse []string
}

// Analyze runs a full analysis of a parsed model.
//
// Description:
//
//	Validates the model, applies house event overrides, preprocesses
//	the tree, enumerates minimal cut sets, and renders the outcome as
//	a report. Validation warnings ride along on the report. When the
//	service has an archive, the report is stored before it is
//	returned; an archive failure fails the run, so a returned report
//	is always a retained report.
//
// Inputs:
//   - ctx: cancellation; also bounds the run when MaxAnalysisDuration
//     is set.
//   - model: the parsed symbolic model.
//   - settings: per-run knobs; zero order limit means the service
//     default.
//
// Outputs:
//   - *report.Report: the analysis outcome.
//   - error: parse-layer errors from mef, structural errors from
//     graph, mocus.ErrInvalidOrderLimit, or a context error when the
//     run was cancelled or timed out.
func (s *Service) Analyze(ctx context.Context, model *mef.FaultTree,
	settings AnalysisSettings) (*report.Report, error) {
	tracer := otel.Tracer("talus.fta")
	ctx, span := tracer.Start(ctx, "fta.Analyze")
	defer span.End()

	if s.config.MaxAnalysisDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.MaxAnalysisDuration)
		defer cancel()
	}

	if settings.OrderLimit <= 0 {
		settings.OrderLimit = s.config.OrderLimit
	}

	vr, err := model.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tree, err := graph.NewTree(model)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for _, name := range settings.TrueHouse {
		if err := tree.ForceHouse(name, true); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	for _, name := range settings.FalseHouse {
		if err := tree.ForceHouse(name, false); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	preStart := time.Now()
	if err := tree.Preprocess(ctx, graph.PreprocessOptions{
		AssumeCoherent: settings.AssumeCoherent,
	}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	preElapsed := time.Since(preStart)

	mocusStart := time.Now()
	res, err := mocus.Analyze(ctx, tree, mocus.Options{
		OrderLimit: settings.OrderLimit,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	mocusElapsed := time.Since(mocusStart)

	rep, err := report.New(model, tree, res, report.Settings{
		OrderLimit:     settings.OrderLimit,
		AssumeCoherent: settings.AssumeCoherent,
		TrueHouse:      settings.TrueHouse,
		FalseHouse:     settings.FalseHouse,
	}, report.Timing{
		Preprocess: preElapsed,
		Analysis:   mocusElapsed,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rep.Warnings = vr.Warnings

	if s.config.Archive != nil {
		if err := s.config.Archive.Put(ctx, rep); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("archive report: %w", err)
		}
	}

	span.SetAttributes(
		attribute.String("fta.model", rep.Model),
		attribute.Int("fta.products", len(rep.Products)),
		attribute.Int("fta.expansions", rep.Summary.Expansions),
	)
	return rep, nil
}

// AnalyzeDocument parses a model document and analyzes it.
//
// Inputs:
//   - ctx: cancellation.
//   - doc: the YAML model document.
//   - settings: per-run knobs, as for Analyze.
//
// Outputs:
//   - *report.Report: the analysis outcome.
//   - error: ErrEmptyModel, ErrModelTooLarge, or any Analyze error.
func (s *Service) AnalyzeDocument(ctx context.Context, doc []byte,
	settings AnalysisSettings) (*report.Report, error) {
	model, err := s.parseDocument(doc)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, model, settings)
}

// ValidateDocument parses and validates a model document without
// analyzing it.
//
// Outputs:
//   - *mef.FaultTree: the parsed model.
//   - *mef.ValidationResult: warnings for a valid model.
//   - error: ErrEmptyModel, ErrModelTooLarge, or a mef parse or
//     validation error.
func (s *Service) ValidateDocument(doc []byte) (*mef.FaultTree, *mef.ValidationResult, error) {
	model, err := s.parseDocument(doc)
	if err != nil {
		return nil, nil, err
	}
	vr, err := model.Validate()
	if err != nil {
		return nil, nil, err
	}
	return model, vr, nil
}

// Reports lists archived reports, newest first.
func (s *Service) Reports(ctx context.Context, limit int) ([]archive.Entry, error) {
	if s.config.Archive == nil {
		return nil, ErrNoArchive
	}
	return s.config.Archive.List(ctx, limit)
}

// Report fetches one archived report by run ID.
func (s *Service) Report(ctx context.Context, runID string) (*report.Report, error) {
	if s.config.Archive == nil {
		return nil, ErrNoArchive
	}
	return s.config.Archive.Get(ctx, runID)
}

// parseDocument enforces document limits and parses the model.
func (s *Service) parseDocument(doc []byte) (*mef.FaultTree, error) {
	if len(doc) == 0 {
		return nil, ErrEmptyModel
	}
	if len(doc) > s.config.MaxModelBytes {
		return nil, fmt.Errorf("document is %d bytes, limit %d: %w",
			len(doc), s.config.MaxModelBytes, ErrModelTooLarge)
	}
	return mef.Parse(bytes.NewReader(doc))
}
