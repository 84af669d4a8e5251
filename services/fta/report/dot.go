// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TalusRisk/TalusPSA/services/fta/mef"
)

// gateColors follows the classic fault-tree drawing convention:
// each connective gets a fixed outline color.
var gateColors = map[mef.Connective]string{
	mef.Or:      "blue",
	mef.And:     "green",
	mef.Not:     "red",
	mef.Xor:     "brown",
	mef.AtLeast: "cyan",
	mef.Null:    "gray",
	mef.Nor:     "magenta",
	mef.Nand:    "orange",
}

// WriteDOT draws the symbolic model as a GraphViz digraph.
//
// Description:
//
//	Emits the portion of the model reachable from the top gate. The
//	top gate is an ellipse, other gates are boxes, and basic and
//	house events are circles. A node referenced more than once is
//	drawn once per reference with numbered copies; the extra gate
//	copies use triangles, the transfer symbol of hand-drawn fault
//	trees. Gate labels show the connective in braces, with k/n for
//	voting gates; house event labels show the set constant. A negated
//	reference draws its edge with an odot arrowhead. Output is
//	deterministic: gates in declaration order below the top, events
//	in declaration order.
//
// Inputs:
//   - w: destination for the DOT text.
//   - model: a validated model with a resolvable top gate.
//
// Outputs:
//   - error: top gate resolution failure or a write error.
func WriteDOT(w io.Writer, model *mef.FaultTree) error {
	top, err := model.TopGate()
	if err != nil {
		return err
	}
	g := &grapher{
		w:      w,
		model:  model,
		repeat: make(map[string]int),
		first:  make(map[string]bool),
	}
	g.printf("digraph \"%s\" {\n", top.Name)

	gates := g.reachableGates(top)
	for _, gate := range gates {
		g.edges(gate.Name, gate.Formula)
	}

	g.formatGate(top, 0, true)
	for _, gate := range gates[1:] {
		g.formatGate(gate, g.repeat[gate.Name], false)
	}
	for _, anon := range g.anon {
		g.formatAnon(anon)
	}
	g.formatEvents()

	g.printf("}\n")
	return g.err
}

// anonGate is a nested formula without a name of its own; it is drawn
// like a gate under a synthesized name.
type anonGate struct {
	name    string
	formula *mef.Formula
}

type grapher struct {
	w     io.Writer
	model *mef.FaultTree

	// repeat counts extra references per node name; the first
	// reference is copy zero.
	repeat map[string]int
	first  map[string]bool
	anon   []anonGate
	err    error
}

func (g *grapher) printf(format string, args ...any) {
	if g.err != nil {
		return
	}
	_, g.err = fmt.Fprintf(g.w, format, args...)
}

// reachableGates returns the top gate followed by every other gate
// reachable from it, in model declaration order.
func (g *grapher) reachableGates(top *mef.Gate) []*mef.Gate {
	reached := map[string]bool{top.Name: true}
	queue := []*mef.Formula{top.Formula}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, arg := range f.Args {
			if arg.Formula != nil {
				queue = append(queue, arg.Formula)
				continue
			}
			if gate := g.model.Gate(arg.Event); gate != nil && !reached[arg.Event] {
				reached[arg.Event] = true
				queue = append(queue, gate.Formula)
			}
		}
	}

	gates := []*mef.Gate{top}
	for _, gate := range g.model.Gates() {
		if gate.Name != top.Name && reached[gate.Name] {
			gates = append(gates, gate)
		}
	}
	return gates
}

// edges emits one edge per argument of the formula, from the owner's
// copy zero to the argument's next copy.
func (g *grapher) edges(owner string, f *mef.Formula) {
	for _, arg := range f.Args {
		child := arg.Event
		if arg.Formula != nil {
			child = fmt.Sprintf("%s._f%d", owner, len(g.anon))
			g.anon = append(g.anon, anonGate{name: child, formula: arg.Formula})
		}
		copyIndex := 0
		if g.first[child] {
			g.repeat[child]++
			copyIndex = g.repeat[child]
		}
		g.first[child] = true

		decoration := ""
		if arg.Negated {
			decoration = " [arrowhead=odot]"
		}
		g.printf("\"%s_R0\" -> \"%s_R%d\"%s;\n", owner, child, copyIndex, decoration)

		if arg.Formula != nil {
			g.edges(child, arg.Formula)
		}
	}
}

// gateLabel renders the braced connective part of a gate label.
func gateLabel(f *mef.Formula) string {
	kind := strings.ToUpper(f.Connective.String())
	if f.Connective == mef.AtLeast {
		return fmt.Sprintf("{ %s %d/%d }", kind, f.Min, len(f.Args))
	}
	return fmt.Sprintf("{ %s }", kind)
}

func (g *grapher) formatGate(gate *mef.Gate, repeat int, top bool) {
	color := gateColors[gate.Formula.Connective]
	if top {
		g.printf("\"%s_R0\" [shape=ellipse, fontsize=12, fontcolor=black, "+
			"fontname=\"times-bold\", color=%s, label=\"%s\\n%s\"]\n",
			gate.Name, color, gate.Name, gateLabel(gate.Formula))
		return
	}
	for i := 0; i <= repeat; i++ {
		shape := "box"
		if i > 0 {
			shape = "triangle"
		}
		g.printf("\"%s_R%d\" [shape=%s, fontsize=10, fontcolor=black, "+
			"color=%s, label=\"%s\\n%s\"]\n",
			gate.Name, i, shape, color, gate.Name, gateLabel(gate.Formula))
	}
}

func (g *grapher) formatAnon(anon anonGate) {
	g.printf("\"%s_R0\" [shape=box, fontsize=10, fontcolor=black, "+
		"color=%s, label=\"%s\\n%s\"]\n",
		anon.name, gateColors[anon.formula.Connective], anon.name,
		gateLabel(anon.formula))
}

// formatEvents emits the referenced basic and house events as circles,
// one copy per reference. Basic events show their probability when the
// model carries one; house events show the set constant.
func (g *grapher) formatEvents() {
	for _, e := range g.model.BasicEvents() {
		if !g.first[e.Name] {
			continue
		}
		detail := ""
		if e.HasProb {
			detail = "\\n" + strconv.FormatFloat(e.Probability, 'g', -1, 64)
		}
		g.formatPrimary(e.Name, "basic", "black", detail)
	}
	for _, e := range g.model.HouseEvents() {
		if !g.first[e.Name] {
			continue
		}
		detail := "\\nFalse"
		if e.Value {
			detail = "\\nTrue"
		}
		g.formatPrimary(e.Name, "house", "green", detail)
	}
}

func (g *grapher) formatPrimary(name, kind, color, detail string) {
	for i := 0; i <= g.repeat[name]; i++ {
		g.printf("\"%s_R%d\" [shape=circle, height=1, fontsize=10, "+
			"fixedsize=true, fontcolor=%s, label=\"%s\\n[%s]%s\"]\n",
			name, i, color, name, kind, detail)
	}
}
