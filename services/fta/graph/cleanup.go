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

import "fmt"

// removeConstGates re-applies the constant table for any child gate
// whose state left normal during earlier rewriting. Reports whether the
// traversal changed the tree.
func (t *Tree) removeConstGates(g *Gate) (bool, error) {
	if g.Visited() {
		return false, nil
	}
	g.Visit(1)
	if g.State() != GateStateNormal {
		return false, nil
	}
	changed := false
	var toErase []int
	for _, c := range g.Children() {
		index := abs(c)
		if !t.IsGate(index) {
			continue
		}
		child := t.gates[index]
		ret, err := t.removeConstGates(child)
		if err != nil {
			return false, err
		}
		changed = changed || ret
		state := child.State()
		if state == GateStateNormal {
			if c < 0 {
				return false, fmt.Errorf("negative edge to live gate %d under gate %d: %w",
					index, g.Index(), ErrInvariant)
			}
			continue
		}
		value := state == GateStateUnity
		if c < 0 {
			value = !value
		}
		if t.processConstantChild(g, c, value, &toErase) {
			return true, nil // the gate itself became constant
		}
	}
	if len(toErase) > 0 {
		changed = true
	}
	t.removeChildren(g, toErase)
	return changed, nil
}

// removeNullGates splices pass-through children out of their parents,
// composing the edge signs. Reports whether the traversal changed the
// tree.
func (t *Tree) removeNullGates(g *Gate) bool {
	if g.Visited() {
		return false
	}
	g.Visit(1)
	changed := false
	var nullChildren []int
	for _, c := range g.Children() {
		index := abs(c)
		if !t.IsGate(index) {
			continue
		}
		child := t.gates[index]
		if t.removeNullGates(child) {
			changed = true
		}
		if child.Kind() == GateNull {
			nullChildren = append(nullChildren, c)
		}
	}
	for _, c := range nullChildren {
		child := t.gates[abs(c)]
		if child.State() != GateStateNormal {
			continue // left for removeConstGates
		}
		mult := 1
		if c < 0 {
			mult = -1
		}
		if !g.SwapChild(c, child.Children()[0]*mult) {
			return true // splice collapsed the gate to a constant
		}
		changed = true
	}
	return changed
}

// joinGates coalesces same-kind children into their parents: an AND
// child of an AND parent is absorbed, symmetrically for OR of OR.
// Negative edges, modules, and constants are left alone. Reports whether
// the traversal changed the tree.
func (t *Tree) joinGates(g *Gate) bool {
	if g.Visited() {
		return false
	}
	g.Visit(1)
	changed := false
	var toJoin []*Gate
	for _, c := range g.Children() {
		index := abs(c)
		if !t.IsGate(index) {
			continue
		}
		child := t.gates[index]
		if t.joinGates(child) {
			changed = true
		}
		if c < 0 {
			continue
		}
		if child.IsModule() || child.State() != GateStateNormal {
			continue
		}
		if child.Kind() != g.Kind() {
			continue
		}
		if g.Kind() == GateAnd || g.Kind() == GateOr {
			toJoin = append(toJoin, child)
		}
	}
	if len(toJoin) > 0 {
		changed = true
	}
	for _, child := range toJoin {
		if !g.JoinChildGate(child) {
			return true // absorption collapsed the gate to a constant
		}
	}
	return changed
}
