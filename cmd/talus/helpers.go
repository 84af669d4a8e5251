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
	"path/filepath"
	"strings"
	"time"

	"github.com/TalusRisk/TalusPSA/cmd/talus/config"
	"github.com/TalusRisk/TalusPSA/pkg/logging"
	"github.com/TalusRisk/TalusPSA/services/fta"
)

// newLogger builds a logger from the config file, with the persistent
// flags taking precedence. Callers own Close.
func newLogger(service string) *logging.Logger {
	level := config.Global.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  config.Global.Logging.Dir,
		Service: service,
		JSON:    config.Global.Logging.JSON || logJSON,
		Quiet:   quiet,
	})
}

// analysisDefaults translates the config file into service settings.
func analysisDefaults() fta.ServiceConfig {
	cfg := fta.DefaultServiceConfig()
	if config.Global.Analysis.OrderLimit > 0 {
		cfg.OrderLimit = config.Global.Analysis.OrderLimit
	}
	cfg.MaxAnalysisDuration = time.Duration(config.Global.Analysis.TimeoutSeconds) * time.Second
	return cfg
}

// outputBaseName derives a per-model file stem from the model path:
// "models/pump train.yaml" becomes "pump train".
func outputBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
