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
	"fmt"
	"sort"

	"github.com/TalusRisk/TalusPSA/pkg/validation"
)

// FaultTree is the symbolic model container.
//
// Declaration order of events and gates is preserved; the analysis engine
// relies on it for deterministic index assignment.
//
// # Thread Safety
//
// Not safe for concurrent mutation. Build and validate a tree on one
// goroutine, then treat it as read-only.
type FaultTree struct {
	// Name identifies the model in reports. Optional.
	Name string

	// Top is the declared top event name. Empty means detect: the model
	// must then contain exactly one root gate.
	Top string

	basicEvents map[string]*BasicEvent
	houseEvents map[string]*HouseEvent
	gates       map[string]*Gate

	basicOrder []string
	houseOrder []string
	gateOrder  []string
}

// NewFaultTree creates an empty fault tree model.
func NewFaultTree(name string) *FaultTree {
	return &FaultTree{
		Name:        name,
		basicEvents: make(map[string]*BasicEvent),
		houseEvents: make(map[string]*HouseEvent),
		gates:       make(map[string]*Gate),
	}
}

// AddBasicEvent registers a basic event. Fails with ErrDuplicateElement if
// the name is taken by any event or gate.
func (ft *FaultTree) AddBasicEvent(e *BasicEvent) error {
	if err := ft.checkName(e.Name, e.Line); err != nil {
		return err
	}
	ft.basicEvents[e.Name] = e
	ft.basicOrder = append(ft.basicOrder, e.Name)
	return nil
}

// AddHouseEvent registers a house event. Fails with ErrDuplicateElement if
// the name is taken by any event or gate.
func (ft *FaultTree) AddHouseEvent(e *HouseEvent) error {
	if err := ft.checkName(e.Name, e.Line); err != nil {
		return err
	}
	ft.houseEvents[e.Name] = e
	ft.houseOrder = append(ft.houseOrder, e.Name)
	return nil
}

// AddGate registers a gate. Fails with ErrDuplicateElement if the name is
// taken by any event or gate.
func (ft *FaultTree) AddGate(g *Gate) error {
	if err := ft.checkName(g.Name, g.Line); err != nil {
		return err
	}
	ft.gates[g.Name] = g
	ft.gateOrder = append(ft.gateOrder, g.Name)
	return nil
}

func (ft *FaultTree) checkName(name string, line int) error {
	if err := validation.ValidateElementName(name); err != nil {
		return fmt.Errorf("line %d: %v: %w", line, err, ErrInvalidModel)
	}
	_, isBasic := ft.basicEvents[name]
	_, isHouse := ft.houseEvents[name]
	_, isGate := ft.gates[name]
	if isBasic || isHouse || isGate {
		return fmt.Errorf("line %d: %q: %w", line, name, ErrDuplicateElement)
	}
	return nil
}

// BasicEvent returns the named basic event, or nil.
func (ft *FaultTree) BasicEvent(name string) *BasicEvent { return ft.basicEvents[name] }

// HouseEvent returns the named house event, or nil.
func (ft *FaultTree) HouseEvent(name string) *HouseEvent { return ft.houseEvents[name] }

// Gate returns the named gate, or nil.
func (ft *FaultTree) Gate(name string) *Gate { return ft.gates[name] }

// BasicEvents returns all basic events in declaration order.
func (ft *FaultTree) BasicEvents() []*BasicEvent {
	out := make([]*BasicEvent, len(ft.basicOrder))
	for i, name := range ft.basicOrder {
		out[i] = ft.basicEvents[name]
	}
	return out
}

// HouseEvents returns all house events in declaration order.
func (ft *FaultTree) HouseEvents() []*HouseEvent {
	out := make([]*HouseEvent, len(ft.houseOrder))
	for i, name := range ft.houseOrder {
		out[i] = ft.houseEvents[name]
	}
	return out
}

// Gates returns all gates in declaration order.
func (ft *FaultTree) Gates() []*Gate {
	out := make([]*Gate, len(ft.gateOrder))
	for i, name := range ft.gateOrder {
		out[i] = ft.gates[name]
	}
	return out
}

// NumBasicEvents returns the number of declared basic events.
func (ft *FaultTree) NumBasicEvents() int { return len(ft.basicOrder) }

// TopGate resolves the top event.
//
// Description:
//
//	If Top is set, the named gate is returned. Otherwise the root gates
//	are collected (gates referenced by no other gate) and the single
//	root is the top. Zero roots means every gate is referenced, which
//	only happens in a cyclic model; multiple roots are ambiguous.
//
// Outputs:
//
//	*Gate - The top gate.
//	error - ErrUndefinedElement if Top names a missing gate,
//	        ErrInvalidModel for zero or multiple candidate roots.
func (ft *FaultTree) TopGate() (*Gate, error) {
	if ft.Top != "" {
		g := ft.gates[ft.Top]
		if g == nil {
			return nil, fmt.Errorf("top event %q: %w", ft.Top, ErrUndefinedElement)
		}
		return g, nil
	}
	roots := ft.rootGates()
	switch len(roots) {
	case 1:
		return roots[0], nil
	case 0:
		if len(ft.gateOrder) == 0 {
			return nil, fmt.Errorf("model has no gates: %w", ErrInvalidModel)
		}
		return nil, fmt.Errorf("no root gate (every gate is referenced): %w", ErrInvalidModel)
	default:
		names := make([]string, len(roots))
		for i, g := range roots {
			names[i] = g.Name
		}
		sort.Strings(names)
		return nil, fmt.Errorf("multiple root gates %v without an explicit top: %w", names, ErrInvalidModel)
	}
}

// rootGates returns gates not referenced by any other gate, in declaration
// order. A gate referenced only through nested formulas is not a root.
func (ft *FaultTree) rootGates() []*Gate {
	referenced := make(map[string]bool, len(ft.gates))
	for _, name := range ft.gateOrder {
		for _, ref := range ft.gates[name].Formula.EventRefs() {
			if _, ok := ft.gates[ref]; ok {
				referenced[ref] = true
			}
		}
	}
	var roots []*Gate
	for _, name := range ft.gateOrder {
		if !referenced[name] {
			roots = append(roots, ft.gates[name])
		}
	}
	return roots
}
