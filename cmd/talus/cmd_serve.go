// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/TalusRisk/TalusPSA/cmd/talus/config"
	"github.com/TalusRisk/TalusPSA/pkg/ux"
	"github.com/TalusRisk/TalusPSA/services/fta"
	"github.com/TalusRisk/TalusPSA/services/fta/archive"
	"github.com/TalusRisk/TalusPSA/services/fta/telemetry"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	serveAddr           string
	serveArchiveDir     string
	serveNoArchive      bool
	serveRateRPS        float64
	serveRateBurst      int
	serveTraceExporter  string
	serveMetricExporter string
	serveDebug          bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// serveCmd runs the analysis HTTP service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fault tree analysis HTTP service",
	Long: `Serve exposes the analyzer over HTTP: POST models to
/v1/fta/analyze, browse archived reports under /v1/fta/reports,
and scrape Prometheus metrics from /metrics.

Flag defaults come from the server section of ~/.talus/talus.yaml.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (default from config, e.g. :8080)")
	serveCmd.Flags().StringVar(&serveArchiveDir, "archive-dir", "",
		"Report archive directory (default from config)")
	serveCmd.Flags().BoolVar(&serveNoArchive, "no-archive", false,
		"Serve without retaining reports")
	serveCmd.Flags().Float64Var(&serveRateRPS, "rate-rps", 0,
		"Sustained requests per second (default from config)")
	serveCmd.Flags().IntVar(&serveRateBurst, "rate-burst", 0,
		"Request burst allowance (default from config)")
	serveCmd.Flags().StringVar(&serveTraceExporter, "trace-exporter", "",
		"Trace exporter: stdout, otlp, jaeger, or none (default from config)")
	serveCmd.Flags().StringVar(&serveMetricExporter, "metric-exporter", "",
		"Metric exporter: prometheus, stdout, or none (default from config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false,
		"Run Gin in debug mode with request logging")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runServe starts the HTTP service and blocks until interrupted.
func runServe(cmd *cobra.Command, args []string) {
	log := newLogger("serve")
	defer log.Close()
	// Handlers log through the slog default, so route it to ours.
	slog.SetDefault(log.Slog())

	srvCfg := config.Global.Server
	if serveAddr != "" {
		srvCfg.Addr = serveAddr
	}
	if serveArchiveDir != "" {
		srvCfg.ArchiveDir = serveArchiveDir
	}
	if serveRateRPS > 0 {
		srvCfg.RateRPS = serveRateRPS
	}
	if serveRateBurst > 0 {
		srvCfg.RateBurst = serveRateBurst
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetryConfig())
	if err != nil {
		ux.Error(fmt.Sprintf("Telemetry setup failed: %v", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	svcCfg := analysisDefaults()
	var store *archive.Store
	if !serveNoArchive {
		store, err = archive.Open(archive.Config{
			Dir:    srvCfg.ArchiveDir,
			Logger: log.Slog(),
		})
		if err != nil {
			ux.Error(fmt.Sprintf("Cannot open report archive at %s: %v", srvCfg.ArchiveDir, err))
			os.Exit(1)
		}
		defer store.Close()
		svcCfg.Archive = store
	}

	handlers := fta.NewHandlers(fta.NewService(svcCfg))

	if serveDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if serveDebug {
		router.Use(gin.Logger())
	}
	router.Use(otelgin.Middleware("talus-fta"))
	router.Use(fta.LimitBodySize(2 * fta.MaxModelDocumentBytes))
	if srvCfg.RateRPS > 0 && srvCfg.RateBurst > 0 {
		router.Use(fta.RateLimit(srvCfg.RateRPS, srvCfg.RateBurst))
	}

	v1 := router.Group("/v1")
	fta.RegisterRoutes(v1, handlers)
	if mh := telemetry.MetricsHandler(); mh != nil {
		router.GET("/metrics", gin.WrapH(mh))
	}

	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting Talus analysis server",
			"addr", srvCfg.Addr,
			"archive", !serveNoArchive,
			"version", fta.ServiceVersion)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down Talus analysis server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ux.Error(fmt.Sprintf("Server failed: %v", err))
			os.Exit(1)
		}
	}
}

// telemetryConfig merges the config file with the exporter flags.
func telemetryConfig() telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = fta.ServiceVersion
	if config.Global.Telemetry.TraceExporter != "" {
		cfg.TraceExporter = config.Global.Telemetry.TraceExporter
	}
	if config.Global.Telemetry.MetricExporter != "" {
		cfg.MetricExporter = config.Global.Telemetry.MetricExporter
	}
	if config.Global.Telemetry.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = config.Global.Telemetry.OTLPEndpoint
	}
	cfg.OTLPInsecure = config.Global.Telemetry.OTLPInsecure
	if serveTraceExporter != "" {
		cfg.TraceExporter = serveTraceExporter
	}
	if serveMetricExporter != "" {
		cfg.MetricExporter = serveMetricExporter
	}
	return cfg
}
