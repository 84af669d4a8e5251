// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Package mef holds the symbolic fault tree model: named events, gates,
// and the Boolean formulas connecting them.
//
// The package name follows the Model Exchange Format convention used by
// PSA tools. A model is parsed from a YAML document (see Parse), validated
// (see FaultTree.Validate), and handed to the analysis engine, which
// translates it into an indexed form. Probability values on basic events
// are parsed and carried but are opaque to the engine.
//
// # Model Structure
//
//	FaultTree
//	 ├── BasicEvent*   leaf failures (A, B, ...)
//	 ├── HouseEvent*   fixed boundary conditions (H1: true)
//	 └── Gate*         named formulas; one is the top event
//	      └── Formula  connective + arguments (events, gates, nested formulas)
//
// Events and gates share one namespace; names are case-sensitive.
package mef

import "fmt"

// Connective is the Boolean connective of a formula.
type Connective int

const (
	// And is true iff all arguments are true.
	And Connective = iota

	// Or is true iff any argument is true.
	Or

	// AtLeast is the voting connective: true iff at least Min of the
	// arguments are true.
	AtLeast

	// Xor is true iff exactly one of its two arguments is true.
	Xor

	// Not negates its single argument.
	Not

	// Nand is the negation of And.
	Nand

	// Nor is the negation of Or.
	Nor

	// Null passes its single argument through unchanged.
	Null
)

// String returns the lowercase YAML keyword for the connective.
func (c Connective) String() string {
	switch c {
	case And:
		return "and"
	case Or:
		return "or"
	case AtLeast:
		return "atleast"
	case Xor:
		return "xor"
	case Not:
		return "not"
	case Nand:
		return "nand"
	case Nor:
		return "nor"
	case Null:
		return "null"
	default:
		return fmt.Sprintf("connective(%d)", int(c))
	}
}

// BasicEvent is a leaf random variable of the fault tree, representing a
// component failure. Probability is optional and opaque to the engine.
type BasicEvent struct {
	Name        string
	Probability float64
	HasProb     bool

	// Line is the source line of the declaration, for diagnostics.
	Line int
}

// HouseEvent is a leaf whose truth value is fixed by the analyst.
type HouseEvent struct {
	Name  string
	Value bool
	Line  int
}

// Gate is a named formula. One gate of the tree is the top event.
type Gate struct {
	Name    string
	Formula *Formula
	Line    int
}

// Arg is one argument of a formula: either a named event reference
// (basic event, house event, or gate) or a nested anonymous formula.
// Negated applies to either form.
type Arg struct {
	Negated bool
	Event   string   // non-empty for a named reference
	Formula *Formula // non-nil for a nested formula
}

// Formula is a Boolean connective over arguments.
//
// Min is the vote number and is meaningful only for AtLeast.
type Formula struct {
	Connective Connective
	Min        int
	Args       []Arg
	Line       int
}

// EventRefs returns the names referenced directly by the formula and all
// nested formulas, in argument order with duplicates preserved.
func (f *Formula) EventRefs() []string {
	var refs []string
	f.walkRefs(&refs)
	return refs
}

func (f *Formula) walkRefs(out *[]string) {
	for _, arg := range f.Args {
		if arg.Event != "" {
			*out = append(*out, arg.Event)
		} else if arg.Formula != nil {
			arg.Formula.walkRefs(out)
		}
	}
}
