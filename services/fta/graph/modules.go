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

// detectModules flags independent modules and extracts independent
// child groups into synthetic module gates.
//
// Description:
//
//	A DFS assigns every gate an enter and exit timestamp and every basic
//	event the timestamps of its first and last visit. A gate whose
//	descendants are all visited strictly inside its own enter/exit
//	window shares nothing with the rest of the tree and is an
//	independent module: its cut sets can be computed in isolation and
//	spliced in afterwards.
//
//	Within one gate, children whose visit ranges fall inside the window
//	are grouped into a fresh gate of the parent's kind, provided none of
//	their ranges overlaps a range of a child that reaches outside. The
//	tree rooted at the top gate is itself always a module.
//
// Thread Safety: NOT safe for concurrent use.
func (t *Tree) detectModules() {
	visitBasics := make([][2]int, t.numBasics+1)
	t.ClearVisits()
	top := t.TopGate()
	t.assignTiming(0, top, visitBasics)

	visited := make(map[int][2]int, len(t.gates))
	t.findOriginalModules(top, visitBasics, visited)
}

// assignTiming walks the tree depth first, stamping gates on entry and
// exit and basic events on every visit. Returns the running clock.
func (t *Tree) assignTiming(time int, g *Gate, visitBasics [][2]int) int {
	time++
	if g.Visit(time) {
		return time // revisited a shared gate
	}
	for _, c := range g.Children() {
		index := abs(c)
		if t.IsGate(index) {
			time = t.assignTiming(time, t.gates[index], visitBasics)
			continue
		}
		time++
		if visitBasics[index][0] == 0 {
			visitBasics[index][0] = time
		}
		visitBasics[index][1] = time
	}
	time++
	g.Visit(time)
	return time
}

// findOriginalModules classifies each gate's children by their visit
// ranges and records the gate's own [min, max] range for its parents.
func (t *Tree) findOriginalModules(g *Gate, visitBasics [][2]int, visited map[int][2]int) {
	if _, ok := visited[g.Index()]; ok {
		return
	}
	enter := g.EnterTime()
	exit := g.ExitTime()
	minTime := enter
	maxTime := exit

	// nonShared children occur nowhere else in the tree; modular
	// children stay inside the window but may be shared under it.
	var nonShared, modular, nonModular []int
	for _, c := range g.Children() {
		index := abs(c)
		var min, max int
		if !t.IsGate(index) {
			min = visitBasics[index][0]
			max = visitBasics[index][1]
			if min == max {
				nonShared = append(nonShared, c)
				continue
			}
		} else {
			child := t.gates[index]
			t.findOriginalModules(child, visitBasics, visited)
			r := visited[index]
			min = r[0]
			max = r[1]
			if child.IsModule() && !child.Revisited() {
				nonShared = append(nonShared, c)
				continue
			}
		}
		if min > enter && max < exit {
			modular = append(modular, c)
		} else {
			nonModular = append(nonModular, c)
		}
		if min < minTime {
			minTime = min
		}
		if max > maxTime {
			maxTime = max
		}
	}

	if minTime == enter && maxTime == exit {
		g.MarkModule()
	}
	if len(nonShared) > 1 {
		t.createNewModule(g, nonShared)
	}
	t.filterModularChildren(visitBasics, visited, &modular, &nonModular)
	if len(modular) > 0 {
		t.createNewModule(g, modular)
	}

	if lv := g.LastVisit(); lv > maxTime {
		maxTime = lv
	}
	visited[g.Index()] = [2]int{minTime, maxTime}
}

// createNewModule moves a group of children under a fresh module gate
// of the parent's kind. A group covering every child just flags the
// parent itself.
func (t *Tree) createNewModule(g *Gate, children []int) {
	if len(children) == g.NumChildren() {
		g.MarkModule()
		return
	}
	module := NewGate(t.FreshIndex(), g.Kind())
	t.AddGate(module)
	module.MarkModule()
	for _, c := range children {
		g.EraseChild(c)
		module.AddChild(c)
	}
	g.AddChild(module.Index())
}

// filterModularChildren moves modular children whose visit range
// overlaps any non-modular child's range into the non-modular side,
// repeating until the split stabilizes. An overlap means the two
// children share events, so the modular child cannot be cut out alone.
func (t *Tree) filterModularChildren(visitBasics [][2]int, visited map[int][2]int, modular, nonModular *[]int) {
	if len(*modular) == 0 || len(*nonModular) == 0 {
		return
	}
	var stillModular, newNonModular []int
	for _, c := range *modular {
		min, max := t.visitRange(c, visitBasics, visited)
		overlaps := false
		for _, nc := range *nonModular {
			lower, upper := t.visitRange(nc, visitBasics, visited)
			a := min
			if lower > a {
				a = lower
			}
			b := max
			if upper < b {
				b = upper
			}
			if a <= b {
				overlaps = true
				break
			}
		}
		if overlaps {
			newNonModular = append(newNonModular, c)
		} else {
			stillModular = append(stillModular, c)
		}
	}
	t.filterModularChildren(visitBasics, visited, &stillModular, &newNonModular)
	*modular = stillModular
	*nonModular = append(*nonModular, newNonModular...)
}

// visitRange returns the [min, max] visit range of a signed child.
func (t *Tree) visitRange(c int, visitBasics [][2]int, visited map[int][2]int) (int, int) {
	index := abs(c)
	if t.IsGate(index) {
		r := visited[index]
		return r[0], r[1]
	}
	return visitBasics[index][0], visitBasics[index][1]
}
