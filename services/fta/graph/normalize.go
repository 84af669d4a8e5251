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

// normalizeGates rewrites every gate into AND/OR form.
//
// The top gate is special: a NOR or NAND top folds its negation into the
// tree sign, and a NOT or NULL top dissolves into its single child. Once
// the top is settled, edges to NOR/NAND children are negated so those
// children can be retyped to OR/AND, and a DFS expands XOR and voting
// gates. NOT and NULL gates keep their kind; complement propagation
// splices them out later.
func (t *Tree) normalizeGates() error {
	top := t.TopGate()
rewrite:
	for top.State() == GateStateNormal {
		switch top.Kind() {
		case GateNor:
			t.topSign = -t.topSign
			top.SetKind(GateOr)
			break rewrite
		case GateNand:
			t.topSign = -t.topSign
			top.SetKind(GateAnd)
			break rewrite
		case GateNot, GateNull:
			if top.NumChildren() != 1 {
				return fmt.Errorf("%v top gate %d with %d children: %w",
					top.Kind(), top.Index(), top.NumChildren(), ErrInvariant)
			}
			child := top.Children()[0]
			if top.Kind() == GateNot {
				child = -child
			}
			if child < 0 {
				t.topSign = -t.topSign
				child = -child
			}
			if t.IsGate(child) {
				delete(t.gates, t.topIndex)
				t.topIndex = child
				top = t.gates[child]
				continue
			}
			// The tree reduced to a single literal. A NULL top holds it
			// for the enumeration layer.
			top.SetKind(GateNull)
			top.EraseAllChildren()
			top.AddChild(child)
			break rewrite
		default:
			break rewrite
		}
	}

	t.ClearVisits()
	t.notifyNegativeParents(top)

	t.ClearVisits()
	return t.normalizeGate(top)
}

// notifyNegativeParents negates every edge pointing at a NOR or NAND
// child. With the negation moved onto the edge, the child can later be
// retyped to OR/AND without changing semantics.
func (t *Tree) notifyNegativeParents(g *Gate) {
	if g.Visited() {
		return
	}
	g.Visit(1)
	var toNegate []int
	for _, c := range g.Children() {
		index := abs(c)
		if !t.IsGate(index) {
			continue
		}
		child := t.gates[index]
		t.notifyNegativeParents(child)
		if child.Kind() == GateNor || child.Kind() == GateNand {
			toNegate = append(toNegate, c)
		}
	}
	for _, c := range toNegate {
		g.SwapChild(c, -c)
	}
}

// normalizeGate retypes or expands a gate after its children have been
// processed.
func (t *Tree) normalizeGate(g *Gate) error {
	if g.Visited() {
		return nil
	}
	g.Visit(1)

	for _, c := range g.Children() {
		index := abs(c)
		if !t.IsGate(index) {
			continue
		}
		if err := t.normalizeGate(t.gates[index]); err != nil {
			return err
		}
	}

	switch g.Kind() {
	case GateNor, GateOr:
		g.SetKind(GateOr)
	case GateNand, GateAnd:
		g.SetKind(GateAnd)
	case GateXor:
		return t.normalizeXor(g)
	case GateAtleast:
		return t.normalizeAtleast(g)
	}
	// GateNot and GateNull pass through to complement propagation.
	return nil
}

// normalizeXor expands XOR(a, b) into OR(AND(a, !b), AND(!a, b)).
func (t *Tree) normalizeXor(g *Gate) error {
	if g.NumChildren() != 2 {
		return fmt.Errorf("xor gate %d with %d children: %w",
			g.Index(), g.NumChildren(), ErrInvariant)
	}
	a, b := g.Children()[0], g.Children()[1]
	one := NewGate(t.FreshIndex(), GateAnd)
	two := NewGate(t.FreshIndex(), GateAnd)
	t.AddGate(one)
	t.AddGate(two)

	one.AddChild(a)
	one.AddChild(-b)
	two.AddChild(-a)
	two.AddChild(b)

	g.SetKind(GateOr)
	g.EraseAllChildren()
	g.AddChild(one.Index())
	g.AddChild(two.Index())
	return nil
}

// normalizeAtleast expands a voting gate by the Shannon decomposition
//
//	ATLEAST(k, [a1..an]) = OR(AND(a1, ATLEAST(k-1, [a2..an])),
//	                          ATLEAST(k, [a2..an]))
//
// recursing until every generated gate degenerates to AND (k = n) or
// OR (k = 1).
func (t *Tree) normalizeAtleast(g *Gate) error {
	k := g.VoteNumber()
	n := g.NumChildren()
	if k < 1 || n < 2 || k > n {
		return fmt.Errorf("atleast gate %d vote %d over %d children: %w",
			g.Index(), k, n, ErrInvariant)
	}
	if k == n {
		g.SetKind(GateAnd)
		return nil
	}
	if k == 1 {
		g.SetKind(GateOr)
		return nil
	}

	children := append([]int(nil), g.Children()...)

	first := NewGate(t.FreshIndex(), GateAnd)
	grand := NewGate(t.FreshIndex(), GateAtleast)
	second := NewGate(t.FreshIndex(), GateAtleast)
	t.AddGate(first)
	t.AddGate(grand)
	t.AddGate(second)

	first.AddChild(children[0])
	first.AddChild(grand.Index())
	grand.SetVoteNumber(k - 1)
	second.SetVoteNumber(k)
	for _, c := range children[1:] {
		grand.AddChild(c)
		second.AddChild(c)
	}

	g.SetKind(GateOr)
	g.EraseAllChildren()
	g.AddChild(first.Index())
	g.AddChild(second.Index())

	if err := t.normalizeAtleast(grand); err != nil {
		return err
	}
	return t.normalizeAtleast(second)
}
