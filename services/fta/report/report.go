// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Package report renders analysis results for people and machines.
//
// A Report is the durable record of one analysis run: identity,
// settings echo, summary counters, and the minimal cut sets with
// indices translated back to event names. Writers produce styled
// text, JSON, and YAML; a separate emitter draws the symbolic model
// as a GraphViz digraph, and an optional sink uploads rendered
// reports to Google Cloud Storage.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TalusRisk/TalusPSA/services/fta/graph"
	"github.com/TalusRisk/TalusPSA/services/fta/mef"
	"github.com/TalusRisk/TalusPSA/services/fta/mocus"
)

// Settings echoes the analysis configuration into the report.
type Settings struct {
	OrderLimit     int      `json:"order_limit" yaml:"order_limit"`
	AssumeCoherent bool     `json:"assume_coherent" yaml:"assume_coherent"`
	TrueHouse      []string `json:"true_house,omitempty" yaml:"true_house,omitempty"`
	FalseHouse     []string `json:"false_house,omitempty" yaml:"false_house,omitempty"`
}

// Timing carries the measured stage durations into the report.
type Timing struct {
	Preprocess time.Duration
	Analysis   time.Duration
}

// Summary holds the headline counters of a run.
type Summary struct {
	BasicEvents       int     `json:"basic_events" yaml:"basic_events"`
	ModelGates        int     `json:"model_gates" yaml:"model_gates"`
	Products          int     `json:"products" yaml:"products"`
	Expansions        int     `json:"expansions" yaml:"expansions"`
	PreprocessSeconds float64 `json:"preprocess_seconds" yaml:"preprocess_seconds"`
	AnalysisSeconds   float64 `json:"analysis_seconds" yaml:"analysis_seconds"`
}

// Product is one minimal cut set with literals as event names. A
// negated literal carries a leading bang. Order is the literal count;
// a zero-order product means the top event always occurs.
type Product struct {
	Order    int      `json:"order" yaml:"order"`
	Literals []string `json:"literals" yaml:"literals"`
}

// Report is the complete record of one analysis run.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Model       string    `json:"model,omitempty" yaml:"model,omitempty"`
	TopEvent    string    `json:"top_event" yaml:"top_event"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Settings    Settings  `json:"settings" yaml:"settings"`
	Summary     Summary   `json:"summary" yaml:"summary"`
	Warnings    []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Products    []Product `json:"products" yaml:"products"`
}

// New assembles a report from an enumeration result.
//
// Description:
//
//	Translates the signed index products of the result back to event
//	names through the tree's name table, stamps a fresh run ID, and
//	copies the settings and counters. The inputs are only read.
//
// Inputs:
//   - model: the validated symbolic model, for identity and counts.
//   - tree: the indexed tree the result was computed on.
//   - res: the enumeration result.
//   - settings: the configuration used for the run.
//   - timing: measured stage durations.
//
// Outputs:
//   - *Report: ready for any writer.
//   - error: an index without a name, wrapping graph.ErrInvariant.
func New(model *mef.FaultTree, tree *graph.Tree, res *mocus.Result,
	settings Settings, timing Timing) (*Report, error) {
	top, err := model.TopGate()
	if err != nil {
		return nil, err
	}

	products := make([]Product, len(res.Products))
	for i, set := range res.Products {
		literals := make([]string, len(set))
		for j, v := range set {
			index := v
			if index < 0 {
				index = -index
			}
			name := tree.BasicName(index)
			if name == "" {
				return nil, fmt.Errorf("product literal %d has no event name: %w",
					v, graph.ErrInvariant)
			}
			if v < 0 {
				name = "!" + name
			}
			literals[j] = name
		}
		products[i] = Product{Order: len(set), Literals: literals}
	}

	return &Report{
		RunID:       uuid.NewString(),
		Model:       model.Name,
		TopEvent:    top.Name,
		GeneratedAt: time.Now().UTC(),
		Settings:    settings,
		Summary: Summary{
			BasicEvents:       tree.NumBasicEvents(),
			ModelGates:        len(model.Gates()),
			Products:          len(products),
			Expansions:        res.Expansions,
			PreprocessSeconds: timing.Preprocess.Seconds(),
			AnalysisSeconds:   timing.Analysis.Seconds(),
		},
		Products: products,
	}, nil
}

// AlwaysOccurs reports whether the result was a single empty product,
// meaning the top event holds under every assignment.
func (r *Report) AlwaysOccurs() bool {
	return len(r.Products) == 1 && r.Products[0].Order == 0
}

// NeverOccurs reports whether no product was returned, meaning the
// top event cannot occur.
func (r *Report) NeverOccurs() bool {
	return len(r.Products) == 0
}
