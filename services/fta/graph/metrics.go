// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for indexed tree operations.
var (
	tracer = otel.Tracer("talus.fta.graph")
	meter  = otel.Meter("talus.fta.graph")
)

// Metrics for preprocessing operations.
var (
	preprocessLatency metric.Float64Histogram
	preprocessTotal   metric.Int64Counter
	preprocessGates   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		preprocessLatency, err = meter.Float64Histogram(
			"fta_preprocess_duration_seconds",
			metric.WithDescription("Duration of fault tree preprocessing"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		preprocessTotal, err = meter.Int64Counter(
			"fta_preprocess_total",
			metric.WithDescription("Total number of preprocessing runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		preprocessGates, err = meter.Int64Histogram(
			"fta_preprocess_gates",
			metric.WithDescription("Number of gates held after preprocessing"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordPreprocessMetrics records metrics for one preprocessing run.
func recordPreprocessMetrics(ctx context.Context, duration time.Duration, gateCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	preprocessLatency.Record(ctx, duration.Seconds(), attrs)
	preprocessTotal.Add(ctx, 1, attrs)

	if success {
		preprocessGates.Record(ctx, int64(gateCount))
	}
}

// startPreprocessSpan creates a span for a preprocessing run.
func startPreprocessSpan(ctx context.Context, basicCount, gateCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Tree.Preprocess",
		trace.WithAttributes(
			attribute.Int("fta.basic_events", basicCount),
			attribute.Int("fta.gates", gateCount),
		),
	)
}

// setPreprocessSpanResult sets the result attributes on a preprocessing
// span.
func setPreprocessSpanResult(span trace.Span, gateCount, moduleCount int) {
	span.SetAttributes(
		attribute.Int("fta.gates_after", gateCount),
		attribute.Int("fta.modules", moduleCount),
	)
}
