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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalusRisk/TalusPSA/services/fta/graph"
	"github.com/TalusRisk/TalusPSA/services/fta/mef"
)

// Helper to parse, validate, index, and preprocess a YAML model
func preprocessed(t *testing.T, doc string) *graph.Tree {
	t.Helper()
	model, err := mef.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = model.Validate()
	require.NoError(t, err)
	tree, err := graph.NewTree(model)
	require.NoError(t, err)
	require.NoError(t, tree.Preprocess(context.Background(), graph.DefaultPreprocessOptions()))
	return tree
}

// named translates products to event names, keeping order and marking
// negated literals with a bang.
func named(t *testing.T, tree *graph.Tree, sets [][]int) [][]string {
	t.Helper()
	out := make([][]string, len(sets))
	for i, s := range sets {
		row := make([]string, len(s))
		for j, v := range s {
			name := tree.BasicName(abs(v))
			require.NotEmpty(t, name, "index %d has no basic event name", v)
			if v < 0 {
				name = "!" + name
			}
			row[j] = name
		}
		out[i] = row
	}
	return out
}

// Test the classic textbook shapes end to end
func TestAnalyze_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want [][]string
	}{
		{
			"disjunction",
			`
top: TOP
basic-events: [A, B]
gates:
  TOP: {or: [A, B]}
`,
			[][]string{{"A"}, {"B"}},
		},
		{
			"conjunction over alternatives",
			`
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {and: [A, {or: [B, C]}]}
`,
			[][]string{{"A", "B"}, {"A", "C"}},
		},
		{
			"exclusive or",
			`
top: TOP
basic-events: [A, B]
gates:
  TOP: {xor: [A, B]}
`,
			[][]string{{"!B", "A"}, {"!A", "B"}},
		},
		{
			"two out of three",
			`
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {atleast: {min: 2, of: [A, B, C]}}
`,
			[][]string{{"A", "B"}, {"A", "C"}, {"B", "C"}},
		},
		{
			"true house event drops out",
			`
top: TOP
basic-events: [A, B]
house-events:
  H: true
gates:
  TOP: {and: [H, {or: [A, B]}]}
`,
			[][]string{{"A"}, {"B"}},
		},
		{
			"shared event absorbs wider products",
			`
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {and: [G1, G2]}
  G1:  {or: [A, B]}
  G2:  {or: [A, C]}
`,
			[][]string{{"A"}, {"B", "C"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := preprocessed(t, tt.doc)
			res, err := Analyze(context.Background(), tree, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, named(t, tree, res.Products))
		})
	}
}

// Test independent subtrees are expanded once and spliced
func TestAnalyze_Modules(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {and: [G1, G2]}
  G1:  {or: [A, B]}
  G2:  {or: [C, D]}
`)
	res, err := Analyze(context.Background(), tree, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"A", "C"}, {"A", "D"}, {"B", "C"}, {"B", "D"},
	}, named(t, tree, res.Products))
	// The top plus one expansion per module.
	assert.Equal(t, 3, res.Expansions)
}

// Test the order limit prunes wide products without failing the run
func TestAnalyze_OrderLimit(t *testing.T) {
	doc := `
top: TOP
basic-events: [A, B, C, D, E, F]
gates:
  TOP: {or: [A, {and: [B, C]}, {and: [D, E, F]}]}
`
	tests := []struct {
		limit int
		want  [][]string
	}{
		{1, [][]string{{"A"}}},
		{2, [][]string{{"A"}, {"B", "C"}}},
		{3, [][]string{{"A"}, {"B", "C"}, {"D", "E", "F"}}},
	}
	for _, tt := range tests {
		tree := preprocessed(t, doc)
		res, err := Analyze(context.Background(), tree, Options{OrderLimit: tt.limit})
		require.NoError(t, err)
		assert.Equal(t, tt.want, named(t, tree, res.Products), "limit %d", tt.limit)
	}
}

// Test the exclusive-or scenario under the minimum useful limit
func TestAnalyze_OrderLimitXor(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {xor: [A, B]}
`)
	res, err := Analyze(context.Background(), tree, Options{OrderLimit: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"!B", "A"}, {"!A", "B"}}, named(t, tree, res.Products))
}

// Test trees that collapse before enumeration begins
func TestAnalyze_DegenerateTops(t *testing.T) {
	t.Run("constant false", func(t *testing.T) {
		tree := preprocessed(t, `
top: TOP
basic-events: [A]
gates:
  TOP: {and: [A, {not: A}]}
`)
		res, err := Analyze(context.Background(), tree, DefaultOptions())
		require.NoError(t, err)
		assert.NotNil(t, res.Products)
		assert.Empty(t, res.Products)
	})

	t.Run("constant true", func(t *testing.T) {
		tree := preprocessed(t, `
top: TOP
basic-events: [A]
gates:
  TOP: {or: [A, {not: A}]}
`)
		res, err := Analyze(context.Background(), tree, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, [][]int{{}}, res.Products)
	})

	t.Run("single literal", func(t *testing.T) {
		tree := preprocessed(t, `
top: TOP
basic-events: [A]
house-events:
  H: true
gates:
  TOP: {and: [A, H]}
`)
		res, err := Analyze(context.Background(), tree, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A"}}, named(t, tree, res.Products))
	})

	t.Run("single negated literal", func(t *testing.T) {
		tree := preprocessed(t, `
top: TOP
basic-events: [A]
gates:
  TOP: {not: A}
`)
		res, err := Analyze(context.Background(), tree, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"!A"}}, named(t, tree, res.Products))
	})
}

// Test the order limit guard
func TestAnalyze_InvalidOrderLimit(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {or: [A, B]}
`)
	for _, limit := range []int{0, -1} {
		_, err := Analyze(context.Background(), tree, Options{OrderLimit: limit})
		require.ErrorIs(t, err, ErrInvalidOrderLimit, "limit %d", limit)
	}
}

// Test cancellation surfaces between expansions
func TestAnalyze_Cancellation(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {or: [A, B]}
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, tree, DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

// Test malformed canonical form is reported as an invariant defect
func TestAnalyze_InvariantViolations(t *testing.T) {
	build := func(t *testing.T) (*graph.Tree, int) {
		tree := preprocessed(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {and: [A, {or: [B, C]}]}
`)
		sub := 0
		for _, c := range tree.TopGate().Children() {
			if tree.IsGate(abs(c)) {
				sub = abs(c)
			}
		}
		require.NotZero(t, sub, "expected a gate child under the top")
		return tree, sub
	}

	t.Run("gate with one child", func(t *testing.T) {
		tree, sub := build(t)
		tree.Gate(sub).SetChildren([]int{2})
		_, err := Analyze(context.Background(), tree, DefaultOptions())
		require.ErrorIs(t, err, graph.ErrInvariant)
	})

	t.Run("negative gate edge", func(t *testing.T) {
		tree, sub := build(t)
		tree.TopGate().SetChildren([]int{-sub, 1})
		_, err := Analyze(context.Background(), tree, DefaultOptions())
		require.ErrorIs(t, err, graph.ErrInvariant)
	})

	t.Run("unnormalized gate kind", func(t *testing.T) {
		tree, sub := build(t)
		tree.Gate(sub).SetKind(graph.GateXor)
		_, err := Analyze(context.Background(), tree, DefaultOptions())
		require.ErrorIs(t, err, graph.ErrInvariant)
	})
}

// Test negated shared gates produce signed literals
func TestAnalyze_NonCoherent(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {or: [G1, G2]}
  G1:  {and: [A, G3]}
  G2:  {and: [B, {not: G3}]}
  G3:  {or: [B, C]}
`)
	res, err := Analyze(context.Background(), tree, DefaultOptions())
	require.NoError(t, err)

	// G2 demands B while NOT G3 forbids it, so only A-paths and the
	// contradiction-free remainder survive.
	assert.Equal(t, [][]string{{"A", "B"}, {"A", "C"}}, named(t, tree, res.Products))
}
