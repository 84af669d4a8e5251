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
	"fmt"

	"github.com/TalusRisk/TalusPSA/services/fta/graph"
)

// SimpleGate is the projection of a preprocessed gate onto the three
// shapes the expansion understands: signed basic-event literals,
// signed module references, and nested AND/OR gates. Literals and
// references stay sorted ascending; nested gates keep the child order
// of the source gate.
type SimpleGate struct {
	kind    graph.GateKind
	basics  []int
	modules []int
	gates   []*SimpleGate
}

// project builds the SimpleGate for a positive gate index, descending
// through non-module children and stopping at module boundaries.
// Projections are memoized per index so shared subtrees share one
// structure; expansion never mutates a SimpleGate, which keeps the
// sharing safe.
func (a *analyzer) project(index int) (*SimpleGate, error) {
	if sg, ok := a.projected[index]; ok {
		return sg, nil
	}
	g := a.tree.Gate(index)
	if g == nil {
		return nil, fmt.Errorf("gate %d: %w", index, graph.ErrGateNotFound)
	}
	if g.Kind() != graph.GateAnd && g.Kind() != graph.GateOr {
		return nil, fmt.Errorf("projecting %v gate %d: %w",
			g.Kind(), index, graph.ErrInvariant)
	}
	if g.NumChildren() < 2 {
		return nil, fmt.Errorf("gate %d with %d children: %w",
			index, g.NumChildren(), graph.ErrInvariant)
	}

	sg := &SimpleGate{kind: g.Kind()}
	for _, c := range g.Children() {
		target := abs(c)
		if !a.tree.IsGate(target) {
			if target > a.tree.NumBasicEvents() {
				return nil, fmt.Errorf("house event %d under gate %d: %w",
					target, index, graph.ErrInvariant)
			}
			sg.basics = append(sg.basics, c)
			continue
		}
		if c < 0 {
			return nil, fmt.Errorf("negative edge to gate %d under gate %d: %w",
				target, index, graph.ErrInvariant)
		}
		child := a.tree.Gate(c)
		if child == nil {
			return nil, fmt.Errorf("gate %d: %w", c, graph.ErrGateNotFound)
		}
		if child.IsModule() {
			sg.modules = append(sg.modules, c)
			continue
		}
		sub, err := a.project(c)
		if err != nil {
			return nil, err
		}
		sg.gates = append(sg.gates, sub)
	}
	// Gate children are sorted on the signed value, so each projected
	// subsequence arrives sorted as well.
	a.projected[index] = sg
	return sg, nil
}

// dual returns the De Morgan complement of a projected structure: the
// kind flips and every literal and module reference changes sign. The
// result shares nothing with the input.
func dual(sg *SimpleGate) *SimpleGate {
	d := &SimpleGate{
		kind:    graph.GateAnd,
		basics:  negateSorted(sg.basics),
		modules: negateSorted(sg.modules),
	}
	if sg.kind == graph.GateAnd {
		d.kind = graph.GateOr
	}
	for _, g := range sg.gates {
		d.gates = append(d.gates, dual(g))
	}
	return d
}

// negateSorted negates every element of a sorted slice and reverses
// it, so the result is sorted again.
func negateSorted(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = -v
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
