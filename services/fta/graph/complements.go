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

// propagateComplements pushes negation off gate edges down to the
// leaves.
//
// Edges through NOT and NULL children are spliced to the grandchild with
// the signs composed, repeating until the target is an AND/OR gate. A
// remaining negative edge to an AND/OR gate is redirected to a De Morgan
// twin: a fresh gate of the opposite kind holding the target's children
// with every sign flipped. Twins are cached per target so repeated
// complements share one gate.
//
// After a swap rewrites the child set the scan restarts from the front;
// the sorted order keeps negative edges there, so restarts are cheap.
func (t *Tree) propagateComplements(g *Gate, twins map[int]int) error {
	for i := 0; i < g.NumChildren(); i++ {
		c := g.Children()[i]
		index := abs(c)
		if !t.IsGate(index) {
			continue
		}
		child := t.gates[index]
		if child.State() != GateStateNormal {
			continue // constant children are the cleanup pass's job
		}

		if child.Kind() == GateNot || child.Kind() == GateNull {
			if child.NumChildren() != 1 {
				return fmt.Errorf("%v gate %d with %d children: %w",
					child.Kind(), index, child.NumChildren(), ErrInvariant)
			}
			mult := 1
			if child.Kind() == GateNot {
				mult = -1
			}
			if c < 0 {
				mult = -mult
			}
			if !g.SwapChild(c, child.Children()[0]*mult) {
				return nil // the gate collapsed to a constant
			}
			i = -1
			continue
		}

		if c < 0 {
			if child.Kind() != GateAnd && child.Kind() != GateOr {
				return fmt.Errorf("complement of %v gate %d: %w",
					child.Kind(), index, ErrInvariant)
			}
			twin, ok := twins[index]
			if !ok {
				kind := GateAnd
				if child.Kind() == GateAnd {
					kind = GateOr
				}
				twinGate := NewGate(t.FreshIndex(), kind)
				t.AddGate(twinGate)
				twins[index] = twinGate.Index()
				twinGate.SetChildren(child.Children())
				twinGate.InvertChildren()
				twinGate.Visit(1)
				if err := t.propagateComplements(twinGate, twins); err != nil {
					return err
				}
				twin = twinGate.Index()
			}
			g.SwapChild(c, twin)
			i = -1
			continue
		}

		if !child.Visited() {
			child.Visit(1)
			if err := t.propagateComplements(child, twins); err != nil {
				return err
			}
		}
	}
	return nil
}
