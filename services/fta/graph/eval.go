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
	"math/bits"
)

// Eval64 evaluates the tree under 64 variable assignments at once.
//
// Description:
//
//	Bit j of assign[i] holds the value of basic event i in lane j, for
//	i in 1..NumBasicEvents. Bit j of the result holds the top event's
//	value in lane j. House events evaluate to their constant regardless
//	of lanes, so the same call works on a raw tree and on its
//	preprocessed form, which is what makes Eval64 useful as an oracle
//	for the rewriting passes.
//
//	Voting gates are evaluated with lane-parallel bit-plane counters, so
//	the cost stays linear in children rather than in lanes.
//
// Inputs:
//   - assign: lane values per basic event; len(assign) must be at least
//     NumBasicEvents()+1. Index 0 is ignored.
//
// Outputs:
//   - uint64: top event value per lane.
//   - error: ErrGateNotFound or ErrInvariant on a malformed tree.
//
// Thread Safety: safe for concurrent use on a tree that is no longer
// being mutated.
func (t *Tree) Eval64(assign []uint64) (uint64, error) {
	if len(assign) < t.numBasics+1 {
		return 0, fmt.Errorf("assignment covers %d of %d basic events: %w",
			len(assign)-1, t.numBasics, ErrInvariant)
	}
	memo := make(map[int]uint64, len(t.gates))
	v, err := t.eval64(t.topIndex, assign, memo)
	if err != nil {
		return 0, err
	}
	if t.topSign < 0 {
		v = ^v
	}
	return v, nil
}

func (t *Tree) eval64(index int, assign []uint64, memo map[int]uint64) (uint64, error) {
	if v, ok := memo[index]; ok {
		return v, nil
	}
	g := t.gates[index]
	if g == nil {
		return 0, fmt.Errorf("gate %d: %w", index, ErrGateNotFound)
	}

	var v uint64
	switch {
	case g.State() == GateStateNull:
		v = 0
	case g.State() == GateStateUnity:
		v = ^uint64(0)
	default:
		var err error
		v, err = t.evalKind(g, assign, memo)
		if err != nil {
			return 0, err
		}
	}
	memo[index] = v
	return v, nil
}

func (t *Tree) evalKind(g *Gate, assign []uint64, memo map[int]uint64) (uint64, error) {
	switch g.Kind() {
	case GateAnd, GateNand:
		v := ^uint64(0)
		for _, c := range g.Children() {
			cv, err := t.evalChild(c, assign, memo)
			if err != nil {
				return 0, err
			}
			v &= cv
		}
		if g.Kind() == GateNand {
			v = ^v
		}
		return v, nil

	case GateOr, GateNor:
		var v uint64
		for _, c := range g.Children() {
			cv, err := t.evalChild(c, assign, memo)
			if err != nil {
				return 0, err
			}
			v |= cv
		}
		if g.Kind() == GateNor {
			v = ^v
		}
		return v, nil

	case GateXor:
		var v uint64
		for _, c := range g.Children() {
			cv, err := t.evalChild(c, assign, memo)
			if err != nil {
				return 0, err
			}
			v ^= cv
		}
		return v, nil

	case GateNot, GateNull:
		if g.NumChildren() != 1 {
			return 0, fmt.Errorf("%v gate %d with %d children: %w",
				g.Kind(), g.Index(), g.NumChildren(), ErrInvariant)
		}
		v, err := t.evalChild(g.Children()[0], assign, memo)
		if err != nil {
			return 0, err
		}
		if g.Kind() == GateNot {
			v = ^v
		}
		return v, nil

	case GateAtleast:
		// Lane-parallel counter: planes[i] holds bit i of the per-lane
		// count of true children.
		var planes []uint64
		for _, c := range g.Children() {
			cv, err := t.evalChild(c, assign, memo)
			if err != nil {
				return 0, err
			}
			carry := cv
			for i := 0; i < len(planes) && carry != 0; i++ {
				planes[i], carry = planes[i]^carry, planes[i]&carry
			}
			if carry != 0 {
				planes = append(planes, carry)
			}
		}
		return ^subtractBorrow(planes, g.VoteNumber()), nil

	default:
		return 0, fmt.Errorf("gate %d has kind %v: %w", g.Index(), g.Kind(), ErrInvariant)
	}
}

func (t *Tree) evalChild(c int, assign []uint64, memo map[int]uint64) (uint64, error) {
	index := abs(c)
	var v uint64
	switch {
	case t.IsGate(index):
		var err error
		v, err = t.eval64(index, assign, memo)
		if err != nil {
			return 0, err
		}
	case index > t.numBasics:
		// House events carry their constant in every lane.
		if _, ok := t.trueHouse[index]; ok {
			v = ^uint64(0)
		}
	default:
		v = assign[index]
	}
	if c < 0 {
		v = ^v
	}
	return v, nil
}

// subtractBorrow computes the per-lane borrow of count - k over the
// bit-plane counter, i.e. a set bit in lane j means count_j < k.
func subtractBorrow(planes []uint64, k int) uint64 {
	width := len(planes)
	if bl := bits.Len(uint(k)); bl > width {
		width = bl
	}
	var borrow uint64
	for i := 0; i < width; i++ {
		var a, kb uint64
		if i < len(planes) {
			a = planes[i]
		}
		if k>>uint(i)&1 == 1 {
			kb = ^uint64(0)
		}
		borrow = (^a & (kb | borrow)) | (kb & borrow)
	}
	return borrow
}
