// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package mocus

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for cut set enumeration.
var (
	tracer = otel.Tracer("talus.fta.mocus")
	meter  = otel.Meter("talus.fta.mocus")
)

// Metrics for enumeration runs.
var (
	analyzeLatency  metric.Float64Histogram
	analyzeTotal    metric.Int64Counter
	analyzeProducts metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analyzeLatency, err = meter.Float64Histogram(
			"fta_mocus_duration_seconds",
			metric.WithDescription("Duration of minimal cut set enumeration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analyzeTotal, err = meter.Int64Counter(
			"fta_mocus_total",
			metric.WithDescription("Total number of enumeration runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analyzeProducts, err = meter.Int64Histogram(
			"fta_mocus_products",
			metric.WithDescription("Number of minimal cut sets returned"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordAnalyzeMetrics records metrics for one enumeration run.
func recordAnalyzeMetrics(ctx context.Context, duration time.Duration, products int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	analyzeLatency.Record(ctx, duration.Seconds(), attrs)
	analyzeTotal.Add(ctx, 1, attrs)

	if success {
		analyzeProducts.Record(ctx, int64(products))
	}
}

// startAnalyzeSpan creates a span for an enumeration run.
func startAnalyzeSpan(ctx context.Context, basicCount, orderLimit int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "mocus.Analyze",
		trace.WithAttributes(
			attribute.Int("fta.basic_events", basicCount),
			attribute.Int("fta.order_limit", orderLimit),
		),
	)
}

// setAnalyzeSpanResult sets the result attributes on an enumeration
// span.
func setAnalyzeSpanResult(span trace.Span, products, expansions int) {
	span.SetAttributes(
		attribute.Int("fta.products", products),
		attribute.Int("fta.expansions", expansions),
	)
}
