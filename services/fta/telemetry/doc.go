// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Package telemetry wires OpenTelemetry tracing and metrics for the
// analysis service.
//
// # Philosophy
//
// Be opinionated about the API, flexible about the backend.
// OpenTelemetry IS the abstraction layer: the analysis packages call
// otel.Tracer() and otel.Meter() directly, and operators swap backends
// through exporter configuration, never through code.
//
// # Traces
//
// The default exporter prints pretty spans to stdout for development.
// Production deployments point the OTLP exporter at a collector or a
// Jaeger 1.35+ instance; the exporter rides a gRPC client connection.
//
// # Metrics
//
// Prometheus is the default metrics backend. Init registers the OTel
// exporter with the default Prometheus registry and serve mode mounts
// MetricsHandler() at /metrics for scraping.
//
// # Environment Variables
//
// Standard OTel variables are honored by DefaultConfig:
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: stdout)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - TALUS_ENV: environment name (default: development)
//
// # Thread Safety
//
// Init is a startup-time call; run it once before serving traffic.
// Everything it installs is safe for concurrent use afterwards.
package telemetry
