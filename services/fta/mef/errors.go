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

import "errors"

// Sentinel errors for model construction and validation.
//
// Wrap with fmt.Errorf("line %d: ...: %w", ...) to attach context and
// match with errors.Is.
var (
	// ErrDuplicateElement indicates two events or two gates share a name.
	ErrDuplicateElement = errors.New("duplicate element")

	// ErrUndefinedElement indicates a formula references a name that does
	// not resolve to a basic event, house event, or gate.
	ErrUndefinedElement = errors.New("undefined element")

	// ErrCyclicGraph indicates the gate graph re-enters a gate that is
	// still being traversed.
	ErrCyclicGraph = errors.New("cyclic fault tree")

	// ErrInvalidGate indicates a gate's argument count is incompatible
	// with its connective.
	ErrInvalidGate = errors.New("invalid gate")

	// ErrInvalidVoteNumber indicates an atleast gate with a vote number
	// k <= 0 or k > n.
	ErrInvalidVoteNumber = errors.New("invalid vote number")

	// ErrInvalidModel indicates a structurally unusable model: no top
	// event, multiple root gates without an explicit top, or a document
	// that does not parse.
	ErrInvalidModel = errors.New("invalid model")
)
