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
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse reads a YAML fault tree model.
//
// Description:
//
//	Decodes a model document of the form:
//
//	    name: pump-train
//	    top: TOP
//	    basic-events: [A, B, {C: 0.02}]
//	    house-events:
//	      H1: true
//	    gates:
//	      TOP: {or: [G1, B]}
//	      G1:  {and: [A, {not: C}]}
//	      G2:  {atleast: {min: 2, of: [A, B, C]}}
//
//	The document is decoded through the YAML node tree so every element
//	keeps its source line for error messages. References may be negated
//	with {not: X} or a leading "!" ("!A").
//
//	Parse performs structural decoding only; semantic checks (undefined
//	references, arities, cycles) belong to FaultTree.Validate.
//
// Inputs:
//
//	r - The model document.
//
// Outputs:
//
//	*FaultTree - The decoded model.
//	error - ErrInvalidModel for malformed documents, ErrDuplicateElement
//	        for repeated names. Errors carry source line numbers.
func Parse(r io.Reader) (*FaultTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode model: %v: %w", err, ErrInvalidModel)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("empty model document: %w", ErrInvalidModel)
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: model document must be a mapping: %w", doc.Line, ErrInvalidModel)
	}

	ft := NewFaultTree("")
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]
		switch key.Value {
		case "name":
			ft.Name = val.Value
		case "top":
			ft.Top = val.Value
		case "basic-events":
			if err := parseBasicEvents(ft, val); err != nil {
				return nil, err
			}
		case "house-events":
			if err := parseHouseEvents(ft, val); err != nil {
				return nil, err
			}
		case "gates":
			if err := parseGates(ft, val); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("line %d: unknown model key %q: %w", key.Line, key.Value, ErrInvalidModel)
		}
	}
	return ft, nil
}

// ParseFile reads a YAML fault tree model from a file.
func ParseFile(path string) (*FaultTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	ft, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ft.Name == "" {
		base := path
		if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
			base = base[idx+1:]
		}
		ft.Name = strings.TrimSuffix(base, ".yaml")
	}
	return ft, nil
}

// parseBasicEvents accepts either a sequence (names, optionally with
// probabilities) or a mapping name -> probability.
func parseBasicEvents(ft *FaultTree, node *yaml.Node) error {
	add := func(name string, prob *yaml.Node, line int) error {
		e := &BasicEvent{Name: name, Line: line}
		if prob != nil && prob.Tag != "!!null" {
			if err := decodeProbability(prob, e); err != nil {
				return err
			}
		}
		return ft.AddBasicEvent(e)
	}

	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				if err := add(item.Value, nil, item.Line); err != nil {
					return err
				}
			case yaml.MappingNode:
				if len(item.Content) != 2 {
					return fmt.Errorf("line %d: basic event entry must have a single name: %w", item.Line, ErrInvalidModel)
				}
				if err := add(item.Content[0].Value, item.Content[1], item.Line); err != nil {
					return err
				}
			default:
				return fmt.Errorf("line %d: malformed basic event entry: %w", item.Line, ErrInvalidModel)
			}
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if err := add(key.Value, val, key.Line); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: basic-events must be a sequence or mapping: %w", node.Line, ErrInvalidModel)
	}
}

func decodeProbability(node *yaml.Node, e *BasicEvent) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if err := node.Decode(&e.Probability); err != nil {
			return fmt.Errorf("line %d: basic event %q: bad probability: %w", node.Line, e.Name, ErrInvalidModel)
		}
	case yaml.MappingNode:
		var body struct {
			Probability float64 `yaml:"probability"`
		}
		if err := node.Decode(&body); err != nil {
			return fmt.Errorf("line %d: basic event %q: bad probability: %w", node.Line, e.Name, ErrInvalidModel)
		}
		e.Probability = body.Probability
	default:
		return fmt.Errorf("line %d: basic event %q: bad probability: %w", node.Line, e.Name, ErrInvalidModel)
	}
	if e.Probability < 0 || e.Probability > 1 {
		return fmt.Errorf("line %d: basic event %q: probability %v outside [0,1]: %w",
			node.Line, e.Name, e.Probability, ErrInvalidModel)
	}
	e.HasProb = true
	return nil
}

// parseHouseEvents accepts a mapping name -> bool.
func parseHouseEvents(ft *FaultTree, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: house-events must be a mapping: %w", node.Line, ErrInvalidModel)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var value bool
		if err := val.Decode(&value); err != nil {
			return fmt.Errorf("line %d: house event %q: value must be a boolean: %w", val.Line, key.Value, ErrInvalidModel)
		}
		e := &HouseEvent{Name: key.Value, Value: value, Line: key.Line}
		if err := ft.AddHouseEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// parseGates accepts a mapping name -> formula.
func parseGates(ft *FaultTree, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: gates must be a mapping: %w", node.Line, ErrInvalidModel)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		formula, err := parseFormula(val)
		if err != nil {
			return fmt.Errorf("gate %q: %w", key.Value, err)
		}
		g := &Gate{Name: key.Value, Formula: formula, Line: key.Line}
		if err := ft.AddGate(g); err != nil {
			return err
		}
	}
	return nil
}

var connectives = map[string]Connective{
	"and": And, "or": Or, "atleast": AtLeast, "xor": Xor,
	"not": Not, "nand": Nand, "nor": Nor, "null": Null,
}

// parseFormula decodes a single-key mapping {connective: args}.
func parseFormula(node *yaml.Node) (*Formula, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: formula must be a single-connective mapping: %w", node.Line, ErrInvalidModel)
	}
	key, val := node.Content[0], node.Content[1]
	conn, ok := connectives[key.Value]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown connective %q: %w", key.Line, key.Value, ErrInvalidModel)
	}

	f := &Formula{Connective: conn, Line: key.Line}
	switch conn {
	case AtLeast:
		if val.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: atleast takes {min: k, of: [...]}: %w", val.Line, ErrInvalidModel)
		}
		var of *yaml.Node
		for i := 0; i+1 < len(val.Content); i += 2 {
			k, v := val.Content[i], val.Content[i+1]
			switch k.Value {
			case "min":
				if err := v.Decode(&f.Min); err != nil {
					return nil, fmt.Errorf("line %d: atleast min must be an integer: %w", v.Line, ErrInvalidModel)
				}
			case "of":
				of = v
			default:
				return nil, fmt.Errorf("line %d: unknown atleast key %q: %w", k.Line, k.Value, ErrInvalidModel)
			}
		}
		if of == nil || of.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: atleast takes {min: k, of: [...]}: %w", val.Line, ErrInvalidModel)
		}
		for _, item := range of.Content {
			arg, err := parseArg(item)
			if err != nil {
				return nil, err
			}
			f.Args = append(f.Args, arg)
		}

	case Not, Null:
		// Single argument, given directly or as a one-element sequence.
		args := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			args = val.Content
		}
		for _, item := range args {
			arg, err := parseArg(item)
			if err != nil {
				return nil, err
			}
			f.Args = append(f.Args, arg)
		}

	default:
		if val.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: %s takes a sequence of arguments: %w", val.Line, conn, ErrInvalidModel)
		}
		for _, item := range val.Content {
			arg, err := parseArg(item)
			if err != nil {
				return nil, err
			}
			f.Args = append(f.Args, arg)
		}
	}
	return f, nil
}

// parseArg decodes one formula argument: a name (with optional "!"
// negation), a {not: X} negation, or a nested formula.
func parseArg(node *yaml.Node) (Arg, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		name := node.Value
		negated := false
		if strings.HasPrefix(name, "!") {
			negated = true
			name = name[1:]
		}
		if name == "" {
			return Arg{}, fmt.Errorf("line %d: empty event reference: %w", node.Line, ErrInvalidModel)
		}
		return Arg{Negated: negated, Event: name}, nil

	case yaml.MappingNode:
		if len(node.Content) == 2 && node.Content[0].Value == "not" {
			inner, err := parseArg(node.Content[1])
			if err != nil {
				return Arg{}, err
			}
			inner.Negated = !inner.Negated
			return inner, nil
		}
		formula, err := parseFormula(node)
		if err != nil {
			return Arg{}, err
		}
		return Arg{Formula: formula}, nil

	default:
		return Arg{}, fmt.Errorf("line %d: malformed formula argument: %w", node.Line, ErrInvalidModel)
	}
}
