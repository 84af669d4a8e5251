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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test independent subtrees are flagged as modules
func TestDetectModules_IndependentSubtrees(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {and: [G1, G2]}
  G1:  {or: [A, B]}
  G2:  {or: [C, D]}
`)
	top := tree.TopGate()
	assert.True(t, top.IsModule())
	require.Equal(t, 2, top.NumChildren())
	for _, c := range top.Children() {
		child := tree.Gate(c)
		require.NotNil(t, child)
		assert.True(t, child.IsModule(), "gate %d", c)
	}
}

// Test a shared basic event blocks both sharers
func TestDetectModules_SharedBasicBlocks(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {and: [G1, G2]}
  G1:  {or: [A, B]}
  G2:  {or: [B, C]}
`)
	top := tree.TopGate()
	assert.True(t, top.IsModule())
	for _, c := range top.Children() {
		child := tree.Gate(c)
		require.NotNil(t, child)
		assert.False(t, child.IsModule(), "gate %d shares B", c)
	}
}

// Test a self-contained shared gate is still a module
func TestDetectModules_SharedModule(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {and: [G1, G2]}
  G1:  {or: [A, G3]}
  G2:  {or: [B, G3]}
  G3:  {and: [C, D]}
`)
	// G3 depends only on its own events; being referenced twice does
	// not change that. Its parents cannot be modules.
	basics := tree.NumBasicEvents()
	g1 := tree.Gate(basics + 2)
	g2 := tree.Gate(basics + 3)
	g3 := tree.Gate(basics + 4)
	require.NotNil(t, g3)
	assert.True(t, g3.IsModule())
	assert.False(t, g1.IsModule())
	assert.False(t, g2.IsModule())
	assert.True(t, tree.TopGate().IsModule())
}

// Test grouping of independent children under a fresh module gate
func TestDetectModules_GroupsChildren(t *testing.T) {
	tree := preprocessed(t, `
top: TOP
basic-events: [A, B, C, D, E, F]
gates:
  TOP: {or: [A, B, G1, G2]}
  G1:  {and: [C, G3]}
  G2:  {and: [D, G3]}
  G3:  {or: [E, F]}
`)
	// A and B occur nowhere else, so they move under one fresh OR
	// module; G1 and G2 share G3 and form a second group.
	top := tree.TopGate()
	require.Equal(t, 2, top.NumChildren())
	for _, c := range top.Children() {
		child := tree.Gate(c)
		require.NotNil(t, child)
		assert.Equal(t, GateOr, child.Kind())
		assert.True(t, child.IsModule(), "gate %d", c)
		assert.Equal(t, 2, child.NumChildren())
	}

	// One group holds the literals, the other the two gates.
	var sawLiterals, sawGates bool
	for _, c := range top.Children() {
		child := tree.Gate(c)
		if child.Children()[0] == 1 {
			assert.Equal(t, []int{1, 2}, child.Children())
			sawLiterals = true
		} else {
			for _, cc := range child.Children() {
				assert.True(t, tree.IsGate(cc))
			}
			sawGates = true
		}
	}
	assert.True(t, sawLiterals)
	assert.True(t, sawGates)
}

// Test overlap filtering rejects a candidate chained to outside events
func TestDetectModules_OverlapFiltering(t *testing.T) {
	doc := `
top: TOP
basic-events: [A, B, C, D]
gates:
  TOP: {or: [G1, G5]}
  G1:  {and: [G2, G3]}
  G2:  {or: [A, B]}
  G3:  {or: [B, C]}
  G5:  {and: [C, D]}
`
	tree := assertPreserved(t, doc)

	// G2 sits inside G1's window but chains through B to G3, which
	// chains through C to G5 outside. No grouping is possible, so no
	// fresh gates appear.
	assert.Equal(t, 5, tree.NumGates())
	assert.True(t, tree.TopGate().IsModule())
	for index := tree.TopIndex() + 1; index <= tree.TopIndex()+4; index++ {
		g := tree.Gate(index)
		require.NotNil(t, g)
		assert.False(t, g.IsModule(), "gate %d", index)
	}
}

// Test modules survive semantic equivalence on a larger tree
func TestDetectModules_PreservesSemantics(t *testing.T) {
	assertPreserved(t, `
top: TOP
basic-events: [A, B, C, D, E, F, G, H]
gates:
  TOP: {or: [A, B, G1, G2, G4]}
  G1:  {and: [C, G3]}
  G2:  {and: [D, G3]}
  G3:  {or: [E, F]}
  G4:  {and: [G, H]}
`)
}
