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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TalusRisk/TalusPSA/pkg/ux"
	"github.com/TalusRisk/TalusPSA/services/fta/mef"
)

// validateCmd checks models without analyzing them.
var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check fault tree models without analyzing them",
	Long: `Validate parses each model file and runs the semantic checks:
reference resolution, gate arities, vote numbers, and cycles.
Warnings flag orphan events and unreachable gates.

Exits non-zero when any model is invalid.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runValidate,
}

// runValidate executes the validation for every named model.
func runValidate(cmd *cobra.Command, args []string) {
	log := newLogger("cli")
	defer log.Close()
	slog.SetDefault(log.Slog())

	failed := 0
	for _, path := range args {
		model, err := mef.ParseFile(path)
		if err != nil {
			ux.Error(fmt.Sprintf("%s: %v", path, err))
			failed++
			continue
		}
		result, err := model.Validate()
		if err != nil {
			ux.Error(fmt.Sprintf("%s: %v", path, err))
			failed++
			continue
		}

		name := model.Name
		if name == "" {
			name = outputBaseName(path)
		}
		ux.Success(fmt.Sprintf("%s: model %q is valid (%d basic events, %d gates)",
			path, name, model.NumBasicEvents(), len(model.Gates())))
		for _, warning := range result.Warnings {
			ux.Warning(fmt.Sprintf("%s: %s", path, warning))
		}
	}

	if failed > 0 {
		ux.Error(fmt.Sprintf("%d of %d models failed validation", failed, len(args)))
		os.Exit(1)
	}
}
