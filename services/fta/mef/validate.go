// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package mef

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult carries non-fatal findings from Validate.
type ValidationResult struct {
	// Warnings lists model oddities that do not prevent analysis:
	// orphan events, gates unreachable from the top.
	Warnings []string
}

// Validate checks the model for semantic errors.
//
// Description:
//
//	Runs the checks the engine depends on, in stages:
//
//	 1. Reference resolution: every name in every formula must resolve
//	    to a basic event, house event, or gate.
//	 2. Arity: and/or/nor/nand need >= 2 arguments, xor exactly 2,
//	    not/null exactly 1. atleast needs a vote number k with
//	    1 <= k < n (k <= 0 or k > n is an invalid vote number; k = n
//	    leaves the gate without a genuine vote).
//	 3. Top resolution (see TopGate).
//	 4. Cycle detection by DFS from the top.
//
//	Stages 1-2 collect all findings before returning; stages 3-4 run
//	only on an otherwise well-formed model.
//
// Outputs:
//
//	*ValidationResult - Warnings (orphan events, unreachable gates).
//	error - Joined errors wrapping ErrUndefinedElement, ErrInvalidGate,
//	        ErrInvalidVoteNumber, ErrInvalidModel, or ErrCyclicGraph.
func (ft *FaultTree) Validate() (*ValidationResult, error) {
	var errs []error
	for _, g := range ft.Gates() {
		errs = append(errs, ft.validateFormula(g.Name, g.Formula)...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	top, err := ft.TopGate()
	if err != nil {
		return nil, err
	}

	reached := make(map[string]bool, len(ft.gates))
	state := make(map[string]uint8, len(ft.gates))
	if err := ft.checkCycles(top, state, nil); err != nil {
		return nil, err
	}
	for name, s := range state {
		if s == visitDone {
			reached[name] = true
		}
	}

	result := &ValidationResult{}
	result.Warnings = append(result.Warnings, ft.orphanWarnings(top, reached)...)
	return result, nil
}

// validateFormula checks arity and reference resolution, recursing into
// nested formulas.
func (ft *FaultTree) validateFormula(gateName string, f *Formula) []error {
	var errs []error

	n := len(f.Args)
	switch f.Connective {
	case And, Or, Nand, Nor:
		if n < 2 {
			errs = append(errs, fmt.Errorf("line %d: gate %q: %s needs at least 2 arguments, has %d: %w",
				f.Line, gateName, f.Connective, n, ErrInvalidGate))
		}
	case Xor:
		if n != 2 {
			errs = append(errs, fmt.Errorf("line %d: gate %q: xor needs exactly 2 arguments, has %d: %w",
				f.Line, gateName, n, ErrInvalidGate))
		}
	case Not, Null:
		if n != 1 {
			errs = append(errs, fmt.Errorf("line %d: gate %q: %s needs exactly 1 argument, has %d: %w",
				f.Line, gateName, f.Connective, n, ErrInvalidGate))
		}
	case AtLeast:
		if f.Min <= 0 || f.Min > n {
			errs = append(errs, fmt.Errorf("line %d: gate %q: vote number %d with %d arguments: %w",
				f.Line, gateName, f.Min, n, ErrInvalidVoteNumber))
		} else if f.Min == n {
			errs = append(errs, fmt.Errorf("line %d: gate %q: atleast needs more arguments than its vote number %d: %w",
				f.Line, gateName, f.Min, ErrInvalidGate))
		}
	}

	// A repeated signed argument is an authoring error. A complementary
	// pair (X and !X) is legal; the indexed layer collapses it.
	seen := make(map[string]bool, n)
	for _, arg := range f.Args {
		if arg.Formula != nil {
			errs = append(errs, ft.validateFormula(gateName, arg.Formula)...)
			continue
		}
		name := arg.Event
		if ft.basicEvents[name] == nil && ft.houseEvents[name] == nil && ft.gates[name] == nil {
			errs = append(errs, fmt.Errorf("line %d: gate %q references %q: %w",
				f.Line, gateName, name, ErrUndefinedElement))
			continue
		}
		key := name
		if arg.Negated {
			key = "!" + name
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("line %d: gate %q repeats argument %q: %w",
				f.Line, gateName, key, ErrInvalidGate))
		}
		seen[key] = true
	}
	return errs
}

// Visit states for cycle detection.
const (
	visitNone uint8 = iota
	visitOpen       // on the current DFS path
	visitDone
)

// checkCycles walks the gate graph depth-first. Re-entering a gate that is
// still open means a cycle; the error reports the offending path.
func (ft *FaultTree) checkCycles(g *Gate, state map[string]uint8, trail []string) error {
	state[g.Name] = visitOpen
	trail = append(trail, g.Name)

	for _, ref := range g.Formula.EventRefs() {
		child := ft.gates[ref]
		if child == nil {
			continue
		}
		switch state[child.Name] {
		case visitOpen:
			cycle := trail
			for i, name := range trail {
				if name == child.Name {
					cycle = trail[i:]
					break
				}
			}
			return fmt.Errorf("line %d: %s -> %s: %w",
				child.Line, strings.Join(cycle, " -> "), child.Name, ErrCyclicGraph)
		case visitNone:
			if err := ft.checkCycles(child, state, trail); err != nil {
				return err
			}
		}
	}

	state[g.Name] = visitDone
	return nil
}

// orphanWarnings reports events never referenced and gates unreachable
// from the top.
func (ft *FaultTree) orphanWarnings(top *Gate, reached map[string]bool) []string {
	used := make(map[string]bool)
	for name := range reached {
		for _, ref := range ft.gates[name].Formula.EventRefs() {
			used[ref] = true
		}
	}

	var warnings []string
	for _, e := range ft.BasicEvents() {
		if !used[e.Name] {
			warnings = append(warnings, fmt.Sprintf("basic event %q is not used in the tree", e.Name))
		}
	}
	for _, e := range ft.HouseEvents() {
		if !used[e.Name] {
			warnings = append(warnings, fmt.Sprintf("house event %q is not used in the tree", e.Name))
		}
	}
	for _, g := range ft.Gates() {
		if g.Name != top.Name && !reached[g.Name] {
			warnings = append(warnings, fmt.Sprintf("gate %q is unreachable from the top event", g.Name))
		}
	}
	return warnings
}
