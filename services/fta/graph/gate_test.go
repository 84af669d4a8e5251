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

// Test kind and state string forms used in errors and reports
func TestGateKind_String(t *testing.T) {
	tests := []struct {
		kind GateKind
		want string
	}{
		{GateAnd, "and"},
		{GateOr, "or"},
		{GateAtleast, "atleast"},
		{GateXor, "xor"},
		{GateNot, "not"},
		{GateNand, "nand"},
		{GateNor, "nor"},
		{GateNull, "null"},
		{GateKind(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}

	assert.Equal(t, "normal", GateStateNormal.String())
	assert.Equal(t, "null", GateStateNull.String())
	assert.Equal(t, "unity", GateStateUnity.String())
}

// Test construction defaults
func TestNewGate_Defaults(t *testing.T) {
	g := NewGate(7, GateOr)
	assert.Equal(t, 7, g.Index())
	assert.Equal(t, GateOr, g.Kind())
	assert.Equal(t, GateStateNormal, g.State())
	assert.Equal(t, 0, g.NumChildren())
	assert.False(t, g.IsModule())
}

// Test that children stay sorted ascending across inserts
func TestGate_InitChild_SortedOrder(t *testing.T) {
	g := NewGate(10, GateAnd)
	for _, c := range []int{3, -5, 1, -2, 4} {
		require.NoError(t, g.InitChild(c))
	}
	assert.Equal(t, []int{-5, -2, 1, 3, 4}, g.Children())
	assert.Equal(t, 5, g.NumChildren())
}

// Test duplicate rejection during construction
func TestGate_InitChild_Duplicate(t *testing.T) {
	g := NewGate(10, GateOr)
	require.NoError(t, g.InitChild(2))
	err := g.InitChild(2)
	require.ErrorIs(t, err, ErrDuplicateChild)

	// A complementary pair is legal at construction time.
	require.NoError(t, g.InitChild(-2))
	assert.Equal(t, []int{-2, 2}, g.Children())
}

// Test exact signed membership
func TestGate_HasChild(t *testing.T) {
	g := NewGate(10, GateOr)
	require.NoError(t, g.InitChild(-3))
	require.NoError(t, g.InitChild(1))

	assert.True(t, g.HasChild(-3))
	assert.False(t, g.HasChild(3))
	assert.True(t, g.HasChild(1))
	assert.False(t, g.HasChild(-1))
}

// Test rewriting insert semantics: no-op duplicates, complement collapse
func TestGate_AddChild_DuplicateIsNoOp(t *testing.T) {
	g := NewGate(10, GateOr)
	assert.True(t, g.AddChild(4))
	assert.True(t, g.AddChild(4))
	assert.Equal(t, []int{4}, g.Children())
}

// Test AND collapse to null on a complementary insert
func TestGate_AddChild_ComplementCollapsesAnd(t *testing.T) {
	g := NewGate(10, GateAnd)
	assert.True(t, g.AddChild(4))
	assert.False(t, g.AddChild(-4))
	assert.Equal(t, GateStateNull, g.State())
	assert.Equal(t, 0, g.NumChildren())
}

// Test OR collapse to unity on a complementary insert
func TestGate_AddChild_ComplementCollapsesOr(t *testing.T) {
	g := NewGate(10, GateOr)
	assert.True(t, g.AddChild(-4))
	assert.False(t, g.AddChild(4))
	assert.Equal(t, GateStateUnity, g.State())
	assert.Equal(t, 0, g.NumChildren())
}

// Test that a collapsed gate rejects further inserts
func TestGate_AddChild_AfterCollapse(t *testing.T) {
	g := NewGate(10, GateAnd)
	g.Nullify()
	assert.False(t, g.AddChild(1))
	assert.Equal(t, 0, g.NumChildren())
	assert.Equal(t, GateStateNull, g.State())
}

// Test child removal
func TestGate_EraseChild(t *testing.T) {
	g := NewGate(10, GateOr)
	require.NoError(t, g.InitChild(-2))
	require.NoError(t, g.InitChild(1))
	require.NoError(t, g.InitChild(3))

	g.EraseChild(1)
	assert.Equal(t, []int{-2, 3}, g.Children())

	// Absent and wrong-sign indices are no-ops.
	g.EraseChild(1)
	g.EraseChild(2)
	assert.Equal(t, []int{-2, 3}, g.Children())

	g.EraseAllChildren()
	assert.Equal(t, 0, g.NumChildren())
	assert.Equal(t, GateStateNormal, g.State())
}

// Test edge replacement with sign composition
func TestGate_SwapChild(t *testing.T) {
	g := NewGate(10, GateOr)
	require.NoError(t, g.InitChild(2))
	require.NoError(t, g.InitChild(5))

	assert.True(t, g.SwapChild(5, -7))
	assert.Equal(t, []int{-7, 2}, g.Children())

	// Swapping in the complement of an existing child collapses.
	assert.False(t, g.SwapChild(2, 7))
	assert.Equal(t, GateStateUnity, g.State())
}

// Test De Morgan child inversion keeps ascending order
func TestGate_InvertChildren(t *testing.T) {
	g := NewGate(10, GateAnd)
	require.NoError(t, g.InitChild(-4))
	require.NoError(t, g.InitChild(1))
	require.NoError(t, g.InitChild(3))

	g.InvertChildren()
	assert.Equal(t, []int{-3, -1, 4}, g.Children())
}

// Test same-kind child absorption
func TestGate_JoinChildGate(t *testing.T) {
	child := NewGate(11, GateOr)
	require.NoError(t, child.InitChild(2))
	require.NoError(t, child.InitChild(3))

	g := NewGate(10, GateOr)
	require.NoError(t, g.InitChild(1))
	require.NoError(t, g.InitChild(11))

	assert.True(t, g.JoinChildGate(child))
	assert.Equal(t, []int{1, 2, 3}, g.Children())
}

// Test absorption that trips a complementary pair
func TestGate_JoinChildGate_Collapse(t *testing.T) {
	child := NewGate(11, GateOr)
	require.NoError(t, child.InitChild(-1))

	g := NewGate(10, GateOr)
	require.NoError(t, g.InitChild(1))
	require.NoError(t, g.InitChild(11))

	assert.False(t, g.JoinChildGate(child))
	assert.Equal(t, GateStateUnity, g.State())
}

// Test SetChildren copies rather than aliases
func TestGate_SetChildren_Copies(t *testing.T) {
	src := []int{-2, 1, 5}
	g := NewGate(10, GateAnd)
	g.SetChildren(src)
	src[0] = 99
	assert.Equal(t, []int{-2, 1, 5}, g.Children())
}

// Test constant collapse helpers
func TestGate_NullifyMakeUnity(t *testing.T) {
	g := NewGate(10, GateAnd)
	require.NoError(t, g.InitChild(1))
	g.Nullify()
	assert.Equal(t, GateStateNull, g.State())
	assert.Equal(t, 0, g.NumChildren())

	h := NewGate(11, GateOr)
	require.NoError(t, h.InitChild(1))
	h.MakeUnity()
	assert.Equal(t, GateStateUnity, h.State())
	assert.Equal(t, 0, h.NumChildren())
}

// Test the three-slot visit protocol
func TestGate_VisitProtocol(t *testing.T) {
	g := NewGate(10, GateAnd)
	assert.False(t, g.Visited())

	assert.False(t, g.Visit(3))
	assert.True(t, g.Visited())
	assert.False(t, g.Revisited())
	assert.Equal(t, 3, g.EnterTime())
	assert.Equal(t, 3, g.LastVisit())

	assert.False(t, g.Visit(8))
	assert.Equal(t, 8, g.ExitTime())
	assert.Equal(t, 8, g.LastVisit())
	assert.False(t, g.Revisited())

	assert.True(t, g.Visit(12))
	assert.True(t, g.Revisited())
	assert.Equal(t, 12, g.LastVisit())

	// Further visits keep reporting a revisit and move the clock.
	assert.True(t, g.Visit(15))
	assert.Equal(t, 15, g.LastVisit())

	g.ClearVisits()
	assert.False(t, g.Visited())
	assert.False(t, g.Revisited())
	assert.Equal(t, 0, g.LastVisit())
}

// Test parent bookkeeping
func TestGate_Parents(t *testing.T) {
	g := NewGate(10, GateAnd)
	assert.Empty(t, g.Parents())

	g.AddParent(12)
	g.AddParent(11)
	g.AddParent(12)
	assert.Equal(t, []int{11, 12}, g.Parents())
}

// Test module flag
func TestGate_ModuleFlag(t *testing.T) {
	g := NewGate(10, GateAnd)
	assert.False(t, g.IsModule())
	g.MarkModule()
	assert.True(t, g.IsModule())
}
