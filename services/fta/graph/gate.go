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

import "sort"

// GateKind identifies the boolean connective of an indexed gate.
type GateKind int

const (
	// GateAnd is true iff all children are true.
	GateAnd GateKind = iota

	// GateOr is true iff at least one child is true.
	GateOr

	// GateAtleast is true iff at least VoteNumber children are true.
	GateAtleast

	// GateXor is true iff exactly one of its two children is true.
	GateXor

	// GateNot inverts its single child.
	GateNot

	// GateNand is the negation of GateAnd.
	GateNand

	// GateNor is the negation of GateOr.
	GateNor

	// GateNull passes its single child through unchanged.
	GateNull
)

// gateKindNames maps GateKind values to their model keywords.
var gateKindNames = map[GateKind]string{
	GateAnd:     "and",
	GateOr:      "or",
	GateAtleast: "atleast",
	GateXor:     "xor",
	GateNot:     "not",
	GateNand:    "nand",
	GateNor:     "nor",
	GateNull:    "null",
}

// String returns the model keyword for the gate kind.
func (k GateKind) String() string {
	if name, ok := gateKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// GateState represents the constant state of a gate.
//
// A gate leaves GateStateNormal when a rewriting pass proves it constant.
// Parents then rewrite around it and the gate is logically retired.
type GateState int

const (
	// GateStateNormal indicates the gate is a live boolean function.
	GateStateNormal GateState = iota

	// GateStateNull indicates the gate collapsed to constant false.
	GateStateNull

	// GateStateUnity indicates the gate collapsed to constant true.
	GateStateUnity
)

// String returns the string representation of the GateState.
func (s GateState) String() string {
	switch s {
	case GateStateNormal:
		return "normal"
	case GateStateNull:
		return "null"
	case GateStateUnity:
		return "unity"
	default:
		return "unknown"
	}
}

// Gate is a node of the indexed fault tree.
//
// Children are signed event indices kept in ascending order, which gives
// every traversal a deterministic iteration order and keeps set
// operations logarithmic. A negative child denotes the complement of the
// referenced event. A gate never holds the same signed index twice;
// inserting the complement of an existing child collapses the gate to a
// constant instead.
//
// Thread Safety: NOT safe for concurrent use.
type Gate struct {
	index    int
	kind     GateKind
	vote     int
	children []int
	parents  map[int]struct{}
	state    GateState
	module   bool
	visits   [3]int
}

// NewGate creates a gate with the given immutable index and initial kind.
func NewGate(index int, kind GateKind) *Gate {
	return &Gate{
		index: index,
		kind:  kind,
		state: GateStateNormal,
	}
}

// Index returns the positive index naming this gate.
func (g *Gate) Index() int { return g.index }

// Kind returns the current connective of the gate.
func (g *Gate) Kind() GateKind { return g.kind }

// SetKind retypes the gate. Used by the rewriting passes only.
func (g *Gate) SetKind(kind GateKind) { g.kind = kind }

// VoteNumber returns the vote number k of an ATLEAST gate.
func (g *Gate) VoteNumber() int { return g.vote }

// SetVoteNumber sets the vote number k of an ATLEAST gate.
func (g *Gate) SetVoteNumber(k int) { g.vote = k }

// Children returns the signed child indices in ascending order.
//
// The returned slice is the gate's backing storage. Callers must not
// mutate it and must not retain it across gate mutations.
func (g *Gate) Children() []int { return g.children }

// NumChildren returns the number of children.
func (g *Gate) NumChildren() int { return len(g.children) }

// HasChild reports whether the exact signed index is a child.
func (g *Gate) HasChild(child int) bool {
	i := sort.SearchInts(g.children, child)
	return i < len(g.children) && g.children[i] == child
}

// InitChild inserts a child during tree construction.
//
// Unlike AddChild it rejects duplicates with ErrDuplicateChild instead
// of ignoring them, and it performs no complement collapse: a raw model
// may legitimately hold a complementary pair inside one gate, which the
// later passes resolve.
func (g *Gate) InitChild(child int) error {
	i := sort.SearchInts(g.children, child)
	if i < len(g.children) && g.children[i] == child {
		return ErrDuplicateChild
	}
	g.insertAt(i, child)
	return nil
}

// AddChild inserts a signed child index during rewriting.
//
// Inserting an already present child is a no-op. Inserting the
// complement of an existing child collapses the gate to its kind's
// absorbing constant (AND to null, otherwise unity) and reports false.
// A collapsed gate stays collapsed; further inserts report false.
func (g *Gate) AddChild(child int) bool {
	if g.state != GateStateNormal {
		return false
	}
	if g.HasChild(-child) {
		if g.kind == GateAnd {
			g.Nullify()
		} else {
			g.MakeUnity()
		}
		return false
	}
	i := sort.SearchInts(g.children, child)
	if i < len(g.children) && g.children[i] == child {
		return true
	}
	g.insertAt(i, child)
	return true
}

// EraseChild removes the exact signed index from the children.
// Removing an absent child is a no-op.
func (g *Gate) EraseChild(child int) {
	i := sort.SearchInts(g.children, child)
	if i < len(g.children) && g.children[i] == child {
		g.children = append(g.children[:i], g.children[i+1:]...)
	}
}

// EraseAllChildren removes every child.
func (g *Gate) EraseAllChildren() { g.children = g.children[:0] }

// SwapChild replaces one edge with another, preserving child order.
//
// Reports false when inserting the new child collapsed the gate to a
// constant, in which case the caller must stop rewriting this gate.
func (g *Gate) SwapChild(oldChild, newChild int) bool {
	g.EraseChild(oldChild)
	return g.AddChild(newChild)
}

// InvertChildren negates the sign of every child. Used when a gate is
// duplicated as its De Morgan complement.
func (g *Gate) InvertChildren() {
	inverted := make([]int, len(g.children))
	for i, c := range g.children {
		inverted[len(g.children)-1-i] = -c
	}
	g.children = inverted
}

// SetChildren replaces the child set with a copy of the given one.
// The input must already be sorted ascending.
func (g *Gate) SetChildren(children []int) {
	g.children = append(g.children[:0], children...)
}

// JoinChildGate absorbs a same-kind child gate into this gate.
//
// The edge to the child is erased and each of the child's children is
// inserted here. Reports false when an insertion collapsed this gate to
// a constant. Callers guarantee the edge is positive and both gates have
// the same kind.
func (g *Gate) JoinChildGate(child *Gate) bool {
	g.EraseChild(child.index)
	for _, c := range child.children {
		if !g.AddChild(c) {
			return false
		}
	}
	return true
}

// AddParent records a reverse edge from a parent gate.
func (g *Gate) AddParent(index int) {
	if g.parents == nil {
		g.parents = make(map[int]struct{})
	}
	g.parents[index] = struct{}{}
}

// Parents returns the recorded parent indices in ascending order.
//
// Parent links are gathered once after construction and are not
// maintained by the rewriting passes.
func (g *Gate) Parents() []int {
	parents := make([]int, 0, len(g.parents))
	for p := range g.parents {
		parents = append(parents, p)
	}
	sort.Ints(parents)
	return parents
}

// MarkModule flags the gate as an independent module.
func (g *Gate) MarkModule() { g.module = true }

// IsModule reports whether the gate is an independent module.
func (g *Gate) IsModule() bool { return g.module }

// Nullify collapses the gate to constant false and drops its children.
func (g *Gate) Nullify() {
	g.state = GateStateNull
	g.children = g.children[:0]
}

// MakeUnity collapses the gate to constant true and drops its children.
func (g *Gate) MakeUnity() {
	g.state = GateStateUnity
	g.children = g.children[:0]
}

// State returns the constant state of the gate.
func (g *Gate) State() GateState { return g.state }

// Visit records a DFS timestamp.
//
// The first call records the enter time and the second the exit time.
// Any later call records a revisit time and reports true, which lets a
// traversal detect sharing without descending twice.
func (g *Gate) Visit(time int) bool {
	switch {
	case g.visits[0] == 0:
		g.visits[0] = time
	case g.visits[1] == 0:
		g.visits[1] = time
	default:
		g.visits[2] = time
		return true
	}
	return false
}

// Visited reports whether the gate has been entered by the current
// traversal.
func (g *Gate) Visited() bool { return g.visits[0] != 0 }

// Revisited reports whether the gate was reached again after its enter
// and exit times were recorded.
func (g *Gate) Revisited() bool { return g.visits[2] != 0 }

// EnterTime returns the first visit timestamp.
func (g *Gate) EnterTime() int { return g.visits[0] }

// ExitTime returns the second visit timestamp.
func (g *Gate) ExitTime() int { return g.visits[1] }

// LastVisit returns the most recent visit timestamp.
func (g *Gate) LastVisit() int {
	if g.visits[2] != 0 {
		return g.visits[2]
	}
	if g.visits[1] != 0 {
		return g.visits[1]
	}
	return g.visits[0]
}

// ClearVisits resets the visit timestamps for a new traversal.
func (g *Gate) ClearVisits() { g.visits = [3]int{} }

func (g *Gate) insertAt(i, child int) {
	g.children = append(g.children, 0)
	copy(g.children[i+1:], g.children[i:])
	g.children[i] = child
}
