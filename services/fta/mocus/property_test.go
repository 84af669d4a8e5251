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

// lanePatterns returns the 64-lane values of the first six basic events
// when lane j encodes assignment number j: bit i-1 of j is event i.
func lanePatterns() [6]uint64 {
	var patterns [6]uint64
	for k := 0; k < 6; k++ {
		for j := 0; j < 64; j++ {
			if j>>uint(k)&1 == 1 {
				patterns[k] |= 1 << uint(j)
			}
		}
	}
	return patterns
}

// blockAssign fills the lane values of every basic event for one block
// of 64 assignments.
func blockAssign(assign []uint64, b, block int) {
	patterns := lanePatterns()
	for i := 1; i <= b; i++ {
		switch {
		case i <= 6:
			assign[i] = patterns[i-1]
		case block>>uint(i-7)&1 == 1:
			assign[i] = ^uint64(0)
		default:
			assign[i] = 0
		}
	}
}

// evalBlocks evaluates every assignment over B basic events and
// returns one bit per assignment, packed into blocks of 64.
func evalBlocks(t *testing.T, tree *graph.Tree) []uint64 {
	t.Helper()
	b := tree.NumBasicEvents()
	require.LessOrEqual(t, b, 16, "sweep limited to 2^16 assignments")

	blocks := 1
	if b > 6 {
		blocks = 1 << uint(b-6)
	}
	out := make([]uint64, blocks)
	assign := make([]uint64, b+1)
	for block := 0; block < blocks; block++ {
		blockAssign(assign, b, block)
		v, err := tree.Eval64(assign)
		require.NoError(t, err)
		out[block] = v
	}
	if b < 6 {
		out[0] &= 1<<uint(1<<uint(b)) - 1
	}
	return out
}

// coverBlocks packs the disjunction of the products over every
// assignment into the same block layout as evalBlocks. A positive
// literal requires its event, a negative one forbids it.
func coverBlocks(b int, sets [][]int) []uint64 {
	blocks := 1
	if b > 6 {
		blocks = 1 << uint(b-6)
	}
	out := make([]uint64, blocks)
	assign := make([]uint64, b+1)
	for block := 0; block < blocks; block++ {
		blockAssign(assign, b, block)
		var v uint64
		for _, s := range sets {
			lanes := ^uint64(0)
			for _, lit := range s {
				if lit > 0 {
					lanes &= assign[lit]
				} else {
					lanes &^= assign[-lit]
				}
			}
			v |= lanes
		}
		out[block] = v
	}
	if b < 6 {
		out[0] &= 1<<uint(1<<uint(b)) - 1
	}
	return out
}

// propertyDocs are structurally diverse models for the exhaustive
// sweeps: sharing, every connective, complemented shared gates, house
// constants, and module nesting.
var propertyDocs = []struct {
	name string
	doc  string
}{
	{
		"shared subtree",
		`
top: TOP
basic-events: [A, B, C, D, E]
gates:
  TOP: {or: [G1, G2, E]}
  G1:  {and: [A, G3]}
  G2:  {and: [B, G3, D]}
  G3:  {or: [C, D]}
`,
	},
	{
		"nand and nor",
		`
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {or: [G1, G2]}
  G1:  {nand: [A, B]}
  G2:  {nor: [C, D]}
`,
	},
	{
		"vote with negated argument",
		`
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {atleast: {min: 2, of: [A, {not: B}, C, D]}}
`,
	},
	{
		"exclusive or over gates",
		`
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {xor: [G1, G2]}
  G1:  {and: [A, B]}
  G2:  {or: [C, D]}
`,
	},
	{
		"pass-through and complement of shared gate",
		`
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {and: [G1, G2]}
  G1:  {null: G3}
  G2:  {or: [B, {not: G3}]}
  G3:  {or: [A, C]}
`,
	},
	{
		"nested modules",
		`
top: TOP
basic-events: [A, B, C, D, E, F]
gates:
  TOP: {or: [G1, G2]}
  G1:  {and: [A, G3]}
  G2:  {and: [E, F]}
  G3:  {or: [B, {and: [C, D]}]}
`,
	},
	{
		"house constants",
		`
top: TOP
basic-events: [A, B, C]
house-events:
  HON: true
  HOFF: false
gates:
  TOP: {or: [{and: [A, HON]}, {and: [B, HOFF]}, C]}
`,
	},
	{
		"complement shared three ways",
		`
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {or: [G1, G2, G3]}
  G1:  {and: [A, {not: G4}]}
  G2:  {and: [B, G4]}
  G3:  {and: [C, {not: G4}]}
  G4:  {or: [B, D]}
`,
	},
}

// unprocessed builds a model without preprocessing, for the oracle.
func unprocessed(t *testing.T, doc string) *graph.Tree {
	t.Helper()
	model, err := mef.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = model.Validate()
	require.NoError(t, err)
	tree, err := graph.NewTree(model)
	require.NoError(t, err)
	return tree
}

// Test the products cover exactly the model function: every returned
// set forces the top (soundness) and every failing assignment holds
// some returned set (completeness under a wide limit)
func TestAnalyze_CoversModelFunction(t *testing.T) {
	for _, tt := range propertyDocs {
		t.Run(tt.name, func(t *testing.T) {
			oracle := unprocessed(t, tt.doc)
			tree := preprocessed(t, tt.doc)
			res, err := Analyze(context.Background(), tree, DefaultOptions())
			require.NoError(t, err)

			want := evalBlocks(t, oracle)
			got := coverBlocks(oracle.NumBasicEvents(), res.Products)
			assert.Equal(t, want, got, "products disagree with the model function")
		})
	}
}

// Test no returned set contains another
func TestAnalyze_Minimality(t *testing.T) {
	for _, tt := range propertyDocs {
		t.Run(tt.name, func(t *testing.T) {
			tree := preprocessed(t, tt.doc)
			res, err := Analyze(context.Background(), tree, DefaultOptions())
			require.NoError(t, err)

			for i, a := range res.Products {
				for j, b := range res.Products {
					if i == j {
						continue
					}
					assert.False(t, containsAll(b, a),
						"set %v is contained in set %v", a, b)
				}
			}
		})
	}
}

// Test repeated runs produce identical output
func TestAnalyze_Determinism(t *testing.T) {
	for _, tt := range propertyDocs {
		t.Run(tt.name, func(t *testing.T) {
			first, err := Analyze(context.Background(), preprocessed(t, tt.doc), DefaultOptions())
			require.NoError(t, err)
			second, err := Analyze(context.Background(), preprocessed(t, tt.doc), DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, first.Products, second.Products)
		})
	}
}

// Test a tight limit returns exactly the wide run's sets of that size
func TestAnalyze_LimitIsAFilter(t *testing.T) {
	for _, tt := range propertyDocs {
		t.Run(tt.name, func(t *testing.T) {
			full, err := Analyze(context.Background(), preprocessed(t, tt.doc), DefaultOptions())
			require.NoError(t, err)
			narrow, err := Analyze(context.Background(), preprocessed(t, tt.doc), Options{OrderLimit: 2})
			require.NoError(t, err)

			want := make([][]int, 0, len(full.Products))
			for _, s := range full.Products {
				if len(s) <= 2 {
					want = append(want, s)
				}
			}
			assert.Equal(t, want, narrow.Products)
		})
	}
}
