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
	"context"
	"fmt"

	"github.com/TalusRisk/TalusPSA/services/fta/graph"
)

// analyzer holds the per-run state of one enumeration: the tree under
// analysis, the projection and cut-set caches, and the order limit.
// Nothing here is shared between runs.
type analyzer struct {
	tree       *graph.Tree
	limit      int
	projected  map[int]*SimpleGate
	cache      map[int][][]int
	expansions int
}

func newAnalyzer(tree *graph.Tree, limit int) *analyzer {
	return &analyzer{
		tree:      tree,
		limit:     limit,
		projected: make(map[int]*SimpleGate),
		cache:     make(map[int][][]int),
	}
}

// mcsOf returns the minimal cut sets of one signed gate reference,
// fully resolved to basic-event literals. A negative reference is the
// complement of the gate, expanded from the dual of its projection
// and cached under its own identity.
//
// The context is checked once per cache miss, which bounds the delay
// of a cancellation to a single module expansion.
func (a *analyzer) mcsOf(ctx context.Context, ref int) ([][]int, error) {
	if sets, ok := a.cache[ref]; ok {
		return sets, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sg, err := a.project(abs(ref))
	if err != nil {
		return nil, err
	}
	if ref < 0 {
		sg = dual(sg)
	}
	a.expansions++

	candidates, err := a.expand(sg)
	if err != nil {
		return nil, err
	}
	candidates = minimize(candidates)

	sets := make([][]int, 0, len(candidates))
	for _, p := range candidates {
		resolved, err := a.resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		sets = append(sets, resolved...)
	}
	sortSets(sets)

	a.cache[ref] = sets
	return sets, nil
}

// expand turns a projected structure into every conjunction of
// literals and module references that satisfies it, pruned at the
// order limit. OR layers concatenate the alternatives of their
// children; AND layers take the distributive product across them.
func (a *analyzer) expand(sg *SimpleGate) ([]product, error) {
	switch sg.kind {
	case graph.GateOr:
		var out []product
		for _, b := range sg.basics {
			out = append(out, product{basics: []int{b}})
		}
		for _, m := range sg.modules {
			out = append(out, product{modules: []int{m}})
		}
		for _, child := range sg.gates {
			sub, err := a.expand(child)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil

	case graph.GateAnd:
		base := product{basics: sg.basics, modules: sg.modules}
		if base.order() > a.limit || hasComplement(sg.basics) {
			return nil, nil
		}
		acc := []product{base}
		for _, child := range sg.gates {
			alternatives, err := a.expand(child)
			if err != nil {
				return nil, err
			}
			var next []product
			for _, p := range acc {
				for _, alt := range alternatives {
					if merged, ok := p.merge(alt, a.limit); ok {
						next = append(next, merged)
					}
				}
			}
			if len(next) == 0 {
				// Every combination was contradictory or too wide.
				return nil, nil
			}
			acc = next
		}
		return acc, nil

	default:
		return nil, fmt.Errorf("expanding %v gate: %w", sg.kind, graph.ErrInvariant)
	}
}

// resolve splices the cached cut sets of every module reference of a
// candidate into its literals by Cartesian product, pruning at the
// order limit. A module with no cut sets inside the limit discards
// the whole candidate.
func (a *analyzer) resolve(ctx context.Context, p product) ([][]int, error) {
	sets := [][]int{p.basics}
	for _, m := range p.modules {
		sub, err := a.mcsOf(ctx, m)
		if err != nil {
			return nil, err
		}
		if len(sub) == 0 {
			return nil, nil
		}
		var next [][]int
		for _, s := range sets {
			for _, ms := range sub {
				merged, ok := mergeSigned(s, ms)
				if !ok || len(merged) > a.limit {
					continue
				}
				next = append(next, merged)
			}
		}
		if len(next) == 0 {
			return nil, nil
		}
		sets = next
	}
	return sets, nil
}
