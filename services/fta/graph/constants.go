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

// propagateConstants folds house event constants into the tree.
//
// Runs before normalization so that voting gates shrink by the cheap
// k/n adjustments instead of expanding first. A negated edge to a
// constant is the opposite constant.
func (t *Tree) propagateConstants(g *Gate) {
	if g.Visited() {
		return
	}
	g.Visit(1)
	var toErase []int
	for _, c := range g.Children() {
		index := abs(c)
		var value bool
		if t.IsGate(index) {
			child := t.gates[index]
			t.propagateConstants(child)
			switch child.State() {
			case GateStateNormal:
				continue
			case GateStateUnity:
				value = true
			}
		} else if _, ok := t.falseHouse[index]; ok {
			value = false
		} else if _, ok := t.trueHouse[index]; ok {
			value = true
		} else {
			continue // basic events are not constant
		}
		if c < 0 {
			value = !value
		}
		if t.processConstantChild(g, c, value, &toErase) {
			return // the gate itself became constant
		}
	}
	t.removeChildren(g, toErase)
}

// processConstantChild rewrites a gate around one constant child.
//
// Erasures are deferred through toErase so the caller's iteration stays
// valid. Reports true when the gate itself collapsed to a constant, in
// which case the caller must stop processing it.
//
// The XOR cases exploit the retype to NOT: a second constant child then
// lands in the NOT rows, which give XOR's truth table exactly.
func (t *Tree) processConstantChild(g *Gate, child int, value bool, toErase *[]int) bool {
	if !value {
		switch g.Kind() {
		case GateNor, GateXor, GateOr:
			*toErase = append(*toErase, child)
			return false
		case GateNull, GateAnd:
			g.Nullify()
		case GateNand, GateNot:
			g.MakeUnity()
		case GateAtleast:
			*toErase = append(*toErase, child)
			k := g.VoteNumber()
			if k == g.NumChildren()-len(*toErase) {
				g.SetKind(GateAnd)
			}
			return false
		}
	} else {
		switch g.Kind() {
		case GateNull, GateOr:
			g.MakeUnity()
		case GateNand, GateAnd:
			*toErase = append(*toErase, child)
			return false
		case GateNor, GateNot:
			g.Nullify()
		case GateXor:
			if len(*toErase) == 1 {
				// The other child was already erased as FALSE.
				g.MakeUnity()
			} else {
				g.SetKind(GateNot)
				*toErase = append(*toErase, child)
				return false
			}
		case GateAtleast:
			k := g.VoteNumber() - 1
			if k == 0 {
				// The vote threshold is already met.
				g.MakeUnity()
				break
			}
			*toErase = append(*toErase, child)
			if k == 1 {
				g.SetKind(GateOr)
			} else {
				g.SetVoteNumber(k)
			}
			return false
		}
	}
	return true
}

// removeChildren applies deferred erasures and collapses the survivor.
//
// An emptied gate becomes the identity constant of its kind. A gate left
// with one child becomes a pass-through NULL, or NOT for the negated
// kinds. Voting gates never reach either case: the constant table
// retypes them to AND/OR first.
func (t *Tree) removeChildren(g *Gate, toErase []int) {
	if len(toErase) == 0 {
		return
	}
	for _, c := range toErase {
		g.EraseChild(c)
	}
	switch g.NumChildren() {
	case 0:
		switch g.Kind() {
		case GateNand, GateXor, GateOr:
			g.Nullify()
		case GateNor, GateAnd:
			g.MakeUnity()
		}
	case 1:
		switch g.Kind() {
		case GateXor, GateOr, GateAnd:
			g.SetKind(GateNull)
		case GateNor, GateNand:
			g.SetKind(GateNot)
		}
	}
}
