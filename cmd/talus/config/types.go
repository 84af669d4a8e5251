// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
)

type TalusConfig struct {
	// Analysis: defaults for every analysis run
	Analysis AnalysisConfig `yaml:"analysis"`

	// Server: the serve command's HTTP surface
	Server ServerConfig `yaml:"server"`

	// Telemetry: trace and metric exporter selection
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging: level and format for CLI and server logs
	Logging LoggingConfig `yaml:"logging"`

	// Upload: optional Google Cloud Storage report sink
	Upload UploadConfig `yaml:"upload"`
}

type AnalysisConfig struct {
	OrderLimit     int  `yaml:"order_limit"`     // e.g. 20
	AssumeCoherent bool `yaml:"assume_coherent"` // skip complement handling
	TimeoutSeconds int  `yaml:"timeout_seconds"` // 0 disables the limit
}

type ServerConfig struct {
	Addr       string  `yaml:"addr"`        // e.g. :8080
	ArchiveDir string  `yaml:"archive_dir"` // report store location
	RateRPS    float64 `yaml:"rate_rps"`    // sustained requests per second
	RateBurst  int     `yaml:"rate_burst"`  // burst allowance
}

type TelemetryConfig struct {
	// TraceExporter can be "stdout", "otlp", "jaeger", or "none".
	TraceExporter string `yaml:"trace_exporter"`
	// MetricExporter can be "prometheus", "stdout", or "none".
	MetricExporter string `yaml:"metric_exporter"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir,omitempty"` // file logging when set
}

type UploadConfig struct {
	// Bucket is a gs://bucket/prefix destination for rendered reports.
	Bucket string `yaml:"bucket,omitempty"`
	// CredentialsFile is a service account key path. Empty uses
	// application default credentials.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

func DefaultConfig() TalusConfig {
	archiveDir := "talus-archive"
	if home, err := os.UserHomeDir(); err == nil {
		archiveDir = filepath.Join(home, ".talus", "archive")
	}
	return TalusConfig{
		Analysis: AnalysisConfig{
			OrderLimit:     20,
			AssumeCoherent: false,
			TimeoutSeconds: 0,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			ArchiveDir: archiveDir,
			RateRPS:    10,
			RateBurst:  20,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
			OTLPInsecure:   true,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
