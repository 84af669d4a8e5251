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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TalusRisk/TalusPSA/cmd/talus/config"
	"github.com/TalusRisk/TalusPSA/pkg/ux"
)

// cliVersion is stamped by the release pipeline via -ldflags.
var cliVersion = "1.0.0"

// --- Global Command Variables ---
var (
	cfgFile  string
	logLevel string
	logJSON  bool
	quiet    bool
	noColor  bool

	rootCmd = &cobra.Command{
		Use:   "talus",
		Short: "A cli for static fault tree analysis",
		Long: `Talus enumerates the minimal cut sets of fault tree models: the
smallest combinations of component failures whose joint occurrence
triggers the top event.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				ux.SetPlain(true)
			}
			if cfgFile != "" {
				return config.LoadFrom(cfgFile)
			}
			return config.Load()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the talus version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("talus version %s\n", cliVersion)
		},
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default ~/.talus/talus.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error (default from config)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"Suppress log output on stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable styled terminal output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(serveCmd)
}
