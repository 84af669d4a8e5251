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
	"fmt"

	"github.com/TalusRisk/TalusPSA/services/fta/mef"
)

// connectiveKinds maps symbolic connectives to indexed gate kinds.
var connectiveKinds = map[mef.Connective]GateKind{
	mef.And:     GateAnd,
	mef.Or:      GateOr,
	mef.AtLeast: GateAtleast,
	mef.Xor:     GateXor,
	mef.Not:     GateNot,
	mef.Nand:    GateNand,
	mef.Nor:     GateNor,
	mef.Null:    GateNull,
}

// Tree is the indexed form of a fault tree.
//
// Indices are assigned once at construction and never reused: basic
// events get 1..B in declaration order, house events B+1..B+H, the top
// gate the first gate index, and the remaining named gates follow in
// declaration order. Anonymous nested formulas and gates created by the
// rewriting passes draw fresh indices from a monotonic counter.
type Tree struct {
	gates      map[int]*Gate
	numBasics  int
	numHouse   int
	firstGate  int
	topIndex   int
	topSign    int
	nextIndex  int
	basicNames []string
	eventIndex map[string]int
	gateIndex  map[string]int
	gateNames  map[int]string
	trueHouse  map[int]struct{}
	falseHouse map[int]struct{}
}

// NewTree translates a validated symbolic model into an indexed tree.
//
// Description:
//
//	Assigns the signed index namespace, translates every gate formula
//	into an indexed gate, resolves house event constants into the
//	true/false sets consumed by preprocessing, and records parent links
//	with a single DFS from the top gate.
//
//	The model must have passed mef validation. Structural defects that
//	validation guards against surface here as ErrInvariant.
//
// Inputs:
//   - model: the parsed and validated fault tree.
//
// Outputs:
//   - *Tree: the indexed tree, exclusively owned by the caller.
//   - error: ErrInvariant wrapping the defect, or the model's own
//     top-gate resolution error.
func NewTree(model *mef.FaultTree) (*Tree, error) {
	top, err := model.TopGate()
	if err != nil {
		return nil, err
	}

	t := &Tree{
		gates:      make(map[int]*Gate),
		topSign:    1,
		eventIndex: make(map[string]int),
		gateIndex:  make(map[string]int),
		gateNames:  make(map[int]string),
		trueHouse:  make(map[int]struct{}),
		falseHouse: make(map[int]struct{}),
	}

	for _, be := range model.BasicEvents() {
		t.numBasics++
		t.eventIndex[be.Name] = t.numBasics
		t.basicNames = append(t.basicNames, be.Name)
	}
	for _, he := range model.HouseEvents() {
		t.numHouse++
		index := t.numBasics + t.numHouse
		t.eventIndex[he.Name] = index
		if he.Value {
			t.trueHouse[index] = struct{}{}
		} else {
			t.falseHouse[index] = struct{}{}
		}
	}

	t.firstGate = t.numBasics + t.numHouse + 1
	t.topIndex = t.firstGate
	t.gateIndex[top.Name] = t.topIndex
	t.gateNames[t.topIndex] = top.Name
	next := t.firstGate + 1
	for _, gate := range model.Gates() {
		if gate.Name == top.Name {
			continue
		}
		t.gateIndex[gate.Name] = next
		t.gateNames[next] = gate.Name
		next++
	}
	t.nextIndex = next

	for _, gate := range model.Gates() {
		if err := t.translateGate(t.gateIndex[gate.Name], gate.Name, gate.Formula); err != nil {
			return nil, err
		}
	}

	t.ClearVisits()
	t.gatherParents(t.gates[t.topIndex])
	t.ClearVisits()
	return t, nil
}

// translateGate builds the indexed gate for a formula, creating fresh
// gates for nested anonymous formulas.
func (t *Tree) translateGate(index int, name string, f *mef.Formula) error {
	kind, ok := connectiveKinds[f.Connective]
	if !ok {
		return fmt.Errorf("gate %q: connective %v: %w", name, f.Connective, ErrInvariant)
	}
	gate := NewGate(index, kind)
	if kind == GateAtleast {
		gate.SetVoteNumber(f.Min)
	}
	for _, arg := range f.Args {
		var child int
		switch {
		case arg.Formula != nil:
			child = t.FreshIndex()
			if err := t.translateGate(child, name, arg.Formula); err != nil {
				return err
			}
		default:
			child, ok = t.eventIndex[arg.Event]
			if !ok {
				child, ok = t.gateIndex[arg.Event]
			}
			if !ok {
				return fmt.Errorf("gate %q: reference %q: %w", name, arg.Event, ErrInvariant)
			}
		}
		if arg.Negated {
			child = -child
		}
		if err := gate.InitChild(child); err != nil {
			return fmt.Errorf("gate %q: child %d: %w", name, child, err)
		}
	}
	resolveComplementPairs(gate)
	t.AddGate(gate)
	return nil
}

// resolveComplementPairs collapses a gate that was declared with both an
// event and its complement. No gate may hold a complementary pair, so
// the pair is folded into the gate's constant before any rewriting runs.
//
// For a voting gate exactly one side of each pair is always true, so the
// pair is erased and the vote number drops by one.
func resolveComplementPairs(g *Gate) {
	for {
		pair := 0
		for _, c := range g.Children() {
			if c < 0 && g.HasChild(-c) {
				pair = -c
				break
			}
		}
		if pair == 0 {
			return
		}
		switch g.Kind() {
		case GateAnd, GateNor:
			g.Nullify()
			return
		case GateOr, GateNand, GateXor:
			g.MakeUnity()
			return
		case GateAtleast:
			g.EraseChild(pair)
			g.EraseChild(-pair)
			k := g.VoteNumber() - 1
			if k == 0 {
				g.MakeUnity()
				return
			}
			g.SetVoteNumber(k)
			if g.NumChildren() == 1 {
				g.SetKind(GateNull)
				return
			}
		default:
			return
		}
	}
}

// gatherParents records reverse edges with one DFS from the top.
func (t *Tree) gatherParents(g *Gate) {
	if g.Visited() {
		return
	}
	g.Visit(1)
	for _, c := range g.Children() {
		index := abs(c)
		if !t.IsGate(index) {
			continue
		}
		child := t.gates[index]
		child.AddParent(g.Index())
		t.gatherParents(child)
	}
}

// Gate returns the gate with the given positive index, or nil if the
// index does not name a gate in this tree.
func (t *Tree) Gate(index int) *Gate { return t.gates[index] }

// TopGate returns the current top gate.
func (t *Tree) TopGate() *Gate { return t.gates[t.topIndex] }

// AddGate inserts a gate into the tree. The index must be unused.
func (t *Tree) AddGate(g *Gate) { t.gates[g.Index()] = g }

// TopIndex returns the index of the current top gate.
func (t *Tree) TopIndex() int { return t.topIndex }

// TopSign returns +1, or -1 when the whole tree is complemented.
// Preprocessing always restores +1 before returning.
func (t *Tree) TopSign() int { return t.topSign }

// IsGate reports whether the magnitude names a gate rather than a basic
// or house event. Gate indices never change once assigned, so this holds
// across all rewriting.
func (t *Tree) IsGate(index int) bool { return index >= t.firstGate }

// NumBasicEvents returns the number of basic events B. Basic events
// occupy indices 1..B.
func (t *Tree) NumBasicEvents() int { return t.numBasics }

// BasicName returns the declared name of the basic event with the given
// index in 1..B.
func (t *Tree) BasicName(index int) string {
	if index < 1 || index > t.numBasics {
		return ""
	}
	return t.basicNames[index-1]
}

// GateName returns the declared name of a named gate, or a synthetic
// name for gates created during rewriting.
func (t *Tree) GateName(index int) string {
	if name, ok := t.gateNames[index]; ok {
		return name
	}
	return fmt.Sprintf("_g%d", index)
}

// FreshIndex allocates a new gate index above every existing one.
// Indices are never reused, even for retired gates.
func (t *Tree) FreshIndex() int {
	index := t.nextIndex
	t.nextIndex++
	return index
}

// ForceHouse overrides the constant value of a house event before
// preprocessing. Returns an error wrapping mef.ErrUndefinedElement when
// the name is not a declared house event.
func (t *Tree) ForceHouse(name string, value bool) error {
	index, ok := t.eventIndex[name]
	if !ok || index <= t.numBasics || index > t.numBasics+t.numHouse {
		return fmt.Errorf("house event %q: %w", name, mef.ErrUndefinedElement)
	}
	delete(t.trueHouse, index)
	delete(t.falseHouse, index)
	if value {
		t.trueHouse[index] = struct{}{}
	} else {
		t.falseHouse[index] = struct{}{}
	}
	return nil
}

// ClearVisits resets visit timestamps on every gate. Each traversal
// pass starts from a clean slate.
func (t *Tree) ClearVisits() {
	for _, g := range t.gates {
		g.ClearVisits()
	}
}

// NumGates returns the number of gates currently held, including gates
// retired from the reachable tree.
func (t *Tree) NumGates() int { return len(t.gates) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
