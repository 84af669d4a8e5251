// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for security-critical values.
//
// This package contains validators for user-provided identifiers that end
// up in database keys, file names, or rendered documents. Using these
// validators keeps hostile names out of archive lookups and GraphViz
// output (key scans, path traversal, label injection).
package validation

import (
	"fmt"
	"regexp"
)

// elementNamePattern matches fault tree element names.
// Allows: letters, digits, underscores, dots (PUMP.A), hyphens (VALVE-2).
// Must start with a letter or underscore. Max length: 64 characters.
var elementNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]{0,63}$`)

// ValidateElementName validates the name of a model element (gate,
// basic event, or house event).
//
// Valid names:
//   - 1-64 characters
//   - Letters, digits, underscores, dots, hyphens
//   - First character a letter or underscore
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateElementName(name); err != nil {
//	    return fmt.Errorf("invalid element name: %w", err)
//	}
//	// Safe to use in archive keys and DOT labels
func ValidateElementName(name string) error {
	if name == "" {
		return fmt.Errorf("element name cannot be empty")
	}

	if !elementNamePattern.MatchString(name) {
		return fmt.Errorf("invalid element name: %q (must be 1-64 characters: letters, digits, underscore, dot, hyphen; starting with a letter or underscore)", name)
	}

	return nil
}

// ValidateElementNames validates multiple element names, as given to
// the house event override flags. Returns an error listing all invalid
// names if any fail validation.
func ValidateElementNames(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateElementName(n); err != nil {
			invalid = append(invalid, n)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid element names: %v", invalid)
	}
	return nil
}

// runIDPattern matches canonical lowercase UUID strings, the form run
// identifiers are generated in. Archive keys embed the ID verbatim, so
// lookups must use the same form.
var runIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateRunID validates a report run identifier before it is used in
// an archive lookup.
//
// Example:
//
//	if err := validation.ValidateRunID(id); err != nil {
//	    return nil, fmt.Errorf("invalid run id: %w", err)
//	}
//	// Safe to use as a database key
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	if !runIDPattern.MatchString(id) {
		return fmt.Errorf("invalid run id: %q (must be a lowercase UUID)", id)
	}

	return nil
}
