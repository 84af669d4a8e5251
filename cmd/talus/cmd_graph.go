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
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TalusRisk/TalusPSA/pkg/ux"
	"github.com/TalusRisk/TalusPSA/services/fta/mef"
	"github.com/TalusRisk/TalusPSA/services/fta/report"
)

var graphOutput string

// graphCmd draws a model as a GraphViz digraph.
var graphCmd = &cobra.Command{
	Use:   "graph FILE",
	Short: "Draw a fault tree model as a GraphViz digraph",
	Long: `Graph emits the model in DOT format: gates as boxes, basic events
as circles, repeated gates as transfer triangles. Pipe the output
through GraphViz to render it.

Examples:
  talus graph plant.yaml | dot -Tsvg -o plant.svg
  talus graph plant.yaml --output plant.dot`,
	Args: cobra.ExactArgs(1),
	Run:  runGraph,
}

func init() {
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "",
		"Output file (default stdout)")
}

// runGraph emits the DOT rendering of one model.
func runGraph(cmd *cobra.Command, args []string) {
	log := newLogger("cli")
	defer log.Close()
	slog.SetDefault(log.Slog())

	path := args[0]
	model, err := mef.ParseFile(path)
	if err != nil {
		ux.Error(fmt.Sprintf("%s: %v", path, err))
		os.Exit(1)
	}
	if _, err := model.Validate(); err != nil {
		ux.Error(fmt.Sprintf("%s: %v", path, err))
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := report.WriteDOT(&buf, model); err != nil {
		ux.Error(fmt.Sprintf("%s: %v", path, err))
		os.Exit(1)
	}

	if graphOutput == "" {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			ux.Error(err.Error())
			os.Exit(1)
		}
		return
	}
	if err := os.WriteFile(graphOutput, buf.Bytes(), 0644); err != nil {
		ux.Error(fmt.Sprintf("write %s: %v", graphOutput, err))
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("%s -> %s", path, graphOutput))
}
