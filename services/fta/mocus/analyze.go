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
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/TalusRisk/TalusPSA/services/fta/graph"
)

// DefaultOrderLimit caps cut set width when the caller does not.
const DefaultOrderLimit = 20

// Options configures an enumeration run.
type Options struct {
	// OrderLimit is the maximum width of any returned cut set. Wider
	// products are pruned during expansion, which is not an error;
	// the run simply returns fewer sets. Must be positive.
	OrderLimit int
}

// DefaultOptions returns the default enumeration options.
func DefaultOptions() Options {
	return Options{OrderLimit: DefaultOrderLimit}
}

// Result holds the outcome of one enumeration run.
type Result struct {
	// Products are the minimal cut sets as sorted signed basic-event
	// indices, ordered by size and then lexicographically. An empty
	// list means the top event cannot occur; a single empty set means
	// it always occurs.
	Products [][]int

	// Expansions counts the distinct gate expansions performed, the
	// top gate and each complemented module identity included.
	Expansions int
}

// Analyze enumerates the minimal cut sets of a preprocessed tree.
//
// Description:
//
//	Projects the canonical AND/OR graph into SimpleGates, expands the
//	top gate with the MOCUS distributive scheme, and splices in each
//	module's own cut sets from a per-run cache so shared independent
//	subtrees are expanded once. The tree is only read; one tree may
//	serve concurrent Analyze calls as long as nothing mutates it.
//
// Inputs:
//   - ctx: checked between module expansions; cancellation aborts
//     with ctx.Err().
//   - tree: must have been preprocessed. Analyze trusts the canonical
//     form and fails with graph.ErrInvariant when it is violated.
//   - opts: see Options.
//
// Outputs:
//   - *Result: minimal cut sets in deterministic order.
//   - error: ErrInvalidOrderLimit, ctx.Err(), or graph.ErrInvariant.
func Analyze(ctx context.Context, tree *graph.Tree, opts Options) (*Result, error) {
	if opts.OrderLimit < 1 {
		return nil, fmt.Errorf("order limit %d: %w", opts.OrderLimit, ErrInvalidOrderLimit)
	}

	start := time.Now()
	ctx, span := startAnalyzeSpan(ctx, tree.NumBasicEvents(), opts.OrderLimit)
	defer span.End()

	res, err := analyze(ctx, tree, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordAnalyzeMetrics(ctx, time.Since(start), 0, false)
		return nil, err
	}
	setAnalyzeSpanResult(span, len(res.Products), res.Expansions)
	recordAnalyzeMetrics(ctx, time.Since(start), len(res.Products), true)
	return res, nil
}

func analyze(ctx context.Context, tree *graph.Tree, opts Options) (*Result, error) {
	top := tree.TopGate()
	if top == nil {
		return nil, fmt.Errorf("top gate %d: %w", tree.TopIndex(), graph.ErrGateNotFound)
	}

	// Preprocessing may have collapsed the whole tree.
	switch top.State() {
	case graph.GateStateNull:
		return &Result{Products: [][]int{}}, nil
	case graph.GateStateUnity:
		return &Result{Products: [][]int{{}}}, nil
	}
	if top.Kind() == graph.GateNull {
		// Single-literal tree. Pass-through tops holding a gate are
		// dissolved during preprocessing, so the child is a basic.
		if top.NumChildren() != 1 || tree.IsGate(abs(top.Children()[0])) {
			return nil, fmt.Errorf("top gate %d left as NULL over %v: %w",
				top.Index(), top.Children(), graph.ErrInvariant)
		}
		return &Result{Products: [][]int{{top.Children()[0]}}}, nil
	}

	a := newAnalyzer(tree, opts.OrderLimit)
	sets, err := a.mcsOf(ctx, tree.TopIndex())
	if err != nil {
		return nil, err
	}
	return &Result{Products: sets, Expansions: a.expansions}, nil
}
