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
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// PreprocessOptions configures a Preprocess run.
type PreprocessOptions struct {
	// AssumeCoherent promises the model contains no negation of any
	// form. Preprocess verifies the promise, then skips complement
	// propagation. A broken promise returns ErrNotCoherent.
	AssumeCoherent bool
}

// DefaultPreprocessOptions returns the default preprocessing options.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{}
}

// Preprocess rewrites the tree into the canonical form the cut set
// enumerator consumes.
//
// Description:
//
//	Runs the rewriting pipeline to completion: house event constants,
//	gate normalization, complement propagation, cleanup to a fixed
//	point, and module detection. Afterwards every reachable gate is an
//	AND or OR with at least two children and positive gate edges, with
//	three degenerate exceptions the caller must check: the top gate may
//	have collapsed to a constant (State), the whole tree may have
//	reduced to a single literal (a NULL top holding one signed basic
//	event), and the tree sign is always restored to +1.
//
//	The tree is mutated in place. Preprocess must not be called twice.
//
// Inputs:
//   - ctx: checked between passes; cancellation aborts with ctx.Err().
//   - opts: see PreprocessOptions.
//
// Outputs:
//   - error: ctx.Err() on cancellation, ErrNotCoherent on a broken
//     coherence promise, or ErrInvariant wrapping an internal defect.
//
// Thread Safety: NOT safe for concurrent use.
func (t *Tree) Preprocess(ctx context.Context, opts PreprocessOptions) error {
	start := time.Now()
	ctx, span := startPreprocessSpan(ctx, t.numBasics, len(t.gates))
	defer span.End()

	err := t.preprocess(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		setPreprocessSpanResult(span, len(t.gates), t.countModules())
	}
	recordPreprocessMetrics(ctx, time.Since(start), len(t.gates), err == nil)
	return err
}

func (t *Tree) preprocess(ctx context.Context, opts PreprocessOptions) error {
	if opts.AssumeCoherent {
		if err := t.checkCoherent(); err != nil {
			return err
		}
	}

	// House event constants go first so that voting gates shrink by
	// cheap k/n adjustments instead of expanding and then collapsing.
	if len(t.trueHouse)+len(t.falseHouse) > 0 {
		t.ClearVisits()
		t.propagateConstants(t.TopGate())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.normalizeGates(); err != nil {
		return err
	}
	top := t.TopGate()
	if t.topSign < 0 {
		if top.State() != GateStateNormal {
			// A constant top absorbs the sign by swapping states.
			if top.State() == GateStateNull {
				top.MakeUnity()
			} else {
				top.Nullify()
			}
		} else {
			switch top.Kind() {
			case GateOr:
				top.SetKind(GateAnd)
				top.InvertChildren()
			case GateAnd:
				top.SetKind(GateOr)
				top.InvertChildren()
			case GateNull:
				top.InvertChildren()
			default:
				return fmt.Errorf("negated top gate %d of kind %v: %w",
					top.Index(), top.Kind(), ErrInvariant)
			}
		}
		t.topSign = 1
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !opts.AssumeCoherent {
		t.ClearVisits()
		if err := t.propagateComplements(top, make(map[int]int)); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.ClearVisits()
	if _, err := t.removeConstGates(top); err != nil {
		return err
	}
	for changed := true; changed; {
		changed = false
		if err := ctx.Err(); err != nil {
			return err
		}
		t.ClearVisits()
		if t.removeNullGates(top) {
			changed = true
		}
		t.ClearVisits()
		if t.joinGates(top) {
			changed = true
		}
		t.ClearVisits()
		ret, err := t.removeConstGates(top)
		if err != nil {
			return err
		}
		if ret {
			changed = true
		}
	}

	// Nothing splices a pass-through top, so dissolve it here. At most
	// one hop is possible after the fixed point; the loop is belt and
	// braces.
	top = t.TopGate()
	for top.State() == GateStateNormal && top.Kind() == GateNull &&
		top.NumChildren() == 1 && t.IsGate(abs(top.Children()[0])) {
		child := top.Children()[0]
		if child < 0 {
			return fmt.Errorf("negative edge from pass-through top %d: %w",
				top.Index(), ErrInvariant)
		}
		delete(t.gates, t.topIndex)
		t.topIndex = child
		top = t.gates[child]
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if top.State() != GateStateNormal || top.Kind() == GateNull {
		// Constant or single-literal tree; nothing left to modularize.
		return nil
	}
	t.detectModules()
	return nil
}

// checkCoherent verifies that no gate negates anything: no negated
// edges and no NOT/NAND/NOR/XOR kinds.
func (t *Tree) checkCoherent() error {
	for _, g := range t.gates {
		switch g.Kind() {
		case GateNot, GateNand, GateNor, GateXor:
			return fmt.Errorf("gate %s has kind %v: %w",
				t.GateName(g.Index()), g.Kind(), ErrNotCoherent)
		}
		for _, c := range g.Children() {
			if c < 0 {
				return fmt.Errorf("gate %s negates child %d: %w",
					t.GateName(g.Index()), abs(c), ErrNotCoherent)
			}
		}
	}
	return nil
}

// countModules returns the number of gates flagged as modules.
func (t *Tree) countModules() int {
	n := 0
	for _, g := range t.gates {
		if g.IsModule() {
			n++
		}
	}
	return n
}
