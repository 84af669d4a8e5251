// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalusRisk/TalusPSA/services/fta/mef"
)

// Helper to parse, validate, and index a YAML model
func buildTree(t *testing.T, doc string) *Tree {
	t.Helper()
	model, err := mef.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = model.Validate()
	require.NoError(t, err)
	tree, err := NewTree(model)
	require.NoError(t, err)
	return tree
}

// Test index assignment follows declaration order
func TestNewTree_IndexAssignment(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B, C]
house-events:
  H1: true
  H2: false
gates:
  TOP: {or: [G1, C]}
  G1:  {and: [A, B, H1, H2]}
`)

	// Basics 1..3, houses 4..5, top takes the first gate index.
	assert.Equal(t, 3, tree.NumBasicEvents())
	assert.Equal(t, "A", tree.BasicName(1))
	assert.Equal(t, "B", tree.BasicName(2))
	assert.Equal(t, "C", tree.BasicName(3))
	assert.Equal(t, "", tree.BasicName(0))
	assert.Equal(t, "", tree.BasicName(4))

	assert.Equal(t, 6, tree.TopIndex())
	assert.Equal(t, 1, tree.TopSign())
	assert.Equal(t, "TOP", tree.GateName(6))
	assert.Equal(t, "G1", tree.GateName(7))

	assert.False(t, tree.IsGate(3))
	assert.False(t, tree.IsGate(5))
	assert.True(t, tree.IsGate(6))
	assert.True(t, tree.IsGate(7))

	top := tree.TopGate()
	require.NotNil(t, top)
	assert.Equal(t, GateOr, top.Kind())
	assert.Equal(t, []int{3, 7}, top.Children())

	g1 := tree.Gate(7)
	require.NotNil(t, g1)
	assert.Equal(t, GateAnd, g1.Kind())
	assert.Equal(t, []int{1, 2, 4, 5}, g1.Children())
}

// Test that the top gate gets the first index regardless of position
func TestNewTree_TopDeclaredLast(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B]
gates:
  G1:  {and: [A, B]}
  TOP: {or: [G1, A]}
`)
	assert.Equal(t, 3, tree.TopIndex())
	assert.Equal(t, "TOP", tree.GateName(3))
	assert.Equal(t, "G1", tree.GateName(4))
}

// Test negated references become negative indices
func TestNewTree_NegatedArgs(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {and: [A, {not: B}]}
`)
	top := tree.TopGate()
	assert.Equal(t, []int{-2, 1}, top.Children())
}

// Test nested anonymous formulas draw fresh gate indices
func TestNewTree_NestedFormula(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {or: [A, {and: [B, C]}]}
`)
	top := tree.TopGate()
	require.Equal(t, 2, top.NumChildren())
	assert.Equal(t, 1, top.Children()[0])

	nested := tree.Gate(top.Children()[1])
	require.NotNil(t, nested)
	assert.Equal(t, GateAnd, nested.Kind())
	assert.Equal(t, []int{2, 3}, nested.Children())
	assert.True(t, strings.HasPrefix(tree.GateName(nested.Index()), "_g"))
}

// Test vote numbers carry over from the model
func TestNewTree_VoteNumber(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {atleast: {min: 2, of: [A, B, C]}}
`)
	top := tree.TopGate()
	assert.Equal(t, GateAtleast, top.Kind())
	assert.Equal(t, 2, top.VoteNumber())
	assert.Equal(t, []int{1, 2, 3}, top.Children())
}

// Test parent links recorded by the construction DFS
func TestNewTree_ParentLinks(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {or: [G1, G2]}
  G1:  {and: [A, G3]}
  G2:  {and: [B, G3]}
  G3:  {or: [A, B]}
`)
	top := tree.TopGate()
	g1 := tree.Gate(top.Children()[0])
	g2 := tree.Gate(top.Children()[1])

	assert.Equal(t, []int{tree.TopIndex()}, g1.Parents())
	assert.Equal(t, []int{tree.TopIndex()}, g2.Parents())

	var g3 *Gate
	for _, c := range g1.Children() {
		if tree.IsGate(c) {
			g3 = tree.Gate(c)
		}
	}
	require.NotNil(t, g3)
	assert.Equal(t, []int{g1.Index(), g2.Index()}, g3.Parents())
}

// Test fresh indices are monotonic and never reused
func TestTree_FreshIndex(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {and: [A, B]}
`)
	first := tree.FreshIndex()
	second := tree.FreshIndex()
	assert.Greater(t, first, tree.TopIndex())
	assert.Equal(t, first+1, second)
}

// Test house event overrides
func TestTree_ForceHouse(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A]
house-events:
  H1: true
gates:
  TOP: {and: [A, H1]}
`)
	require.NoError(t, tree.ForceHouse("H1", false))

	err := tree.ForceHouse("A", true)
	require.ErrorIs(t, err, mef.ErrUndefinedElement)
	err = tree.ForceHouse("missing", true)
	require.ErrorIs(t, err, mef.ErrUndefinedElement)

	// The override must flip the evaluated constant.
	v, err := tree.Eval64([]uint64{0, ^uint64(0)})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

// Test complementary pairs declared inside one gate resolve at build time
func TestNewTree_ComplementPair(t *testing.T) {
	tests := []struct {
		name  string
		gates string
		state GateState
	}{
		{"and", `{and: [A, {not: A}]}`, GateStateNull},
		{"or", `{or: [A, {not: A}]}`, GateStateUnity},
		{"nand", `{nand: [A, {not: A}]}`, GateStateUnity},
		{"nor", `{nor: [A, {not: A}]}`, GateStateNull},
		{"xor", `{xor: [A, {not: A}]}`, GateStateUnity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := buildTree(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {or: [B, G1]}
  G1:  `+tt.gates+`
`)
			g1 := tree.Gate(tree.TopIndex() + 1)
			require.NotNil(t, g1)
			assert.Equal(t, tt.state, g1.State(), "kind %s", tt.name)
		})
	}
}

// Test pair resolution inside a voting gate drops the vote number
func TestNewTree_ComplementPairAtleast(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {or: [C, G1]}
  G1:  {atleast: {min: 2, of: [A, {not: A}, B, C]}}
`)
	g1 := tree.Gate(tree.TopIndex() + 1)
	require.NotNil(t, g1)
	// One side of the pair is always true: ATLEAST(2, [A,!A,B,C])
	// becomes ATLEAST(1, [B,C]), i.e. an OR-equivalent voting gate.
	assert.Equal(t, GateStateNormal, g1.State())
	assert.Equal(t, GateAtleast, g1.Kind())
	assert.Equal(t, 1, g1.VoteNumber())
	assert.Equal(t, []int{2, 3}, g1.Children())
}

// Test a 1-of-1 pair resolution collapses the voting gate entirely
func TestNewTree_ComplementPairAtleastUnity(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {or: [B, G1]}
  G1:  {atleast: {min: 1, of: [A, {not: A}, B]}}
`)
	g1 := tree.Gate(tree.TopIndex() + 1)
	require.NotNil(t, g1)
	assert.Equal(t, GateStateUnity, g1.State())
}

// Test synthetic names for rewriting gates
func TestTree_GateName_Synthetic(t *testing.T) {
	tree := buildTree(t, `
top: TOP
basic-events: [A, B]
gates:
  TOP: {and: [A, B]}
`)
	index := tree.FreshIndex()
	tree.AddGate(NewGate(index, GateOr))
	assert.Equal(t, "_g4", tree.GateName(index))
}

// Test top gate resolution failures propagate from the model
func TestNewTree_TopResolutionError(t *testing.T) {
	model, err := mef.Parse(strings.NewReader(`
basic-events: [A, B]
gates:
  G1: {and: [A, B]}
  G2: {or: [A, B]}
`))
	require.NoError(t, err)
	_, err = NewTree(model)
	require.ErrorIs(t, err, mef.ErrInvalidModel)
}
