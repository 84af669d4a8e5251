// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Package graph provides the indexed fault tree representation and the
// preprocessing passes that rewrite it for cut set enumeration.
//
// The package translates a validated symbolic model (package mef) into a
// compact integer-indexed graph and then runs a pipeline of in-place
// rewriting passes over it:
//
//  1. Constant propagation of house events.
//  2. Gate normalization (XOR and ATLEAST expansion, NAND/NOR retyping).
//  3. Complement propagation (De Morgan twins for negated gate edges).
//  4. Cleanup to a fixed point (constant removal, pass-through splicing,
//     same-kind coalescing).
//  5. Independent module detection.
//
// # Index Namespace
//
// Every event lives in a single signed integer namespace. Magnitudes
// 1..B name basic events, B+1..B+H name house events, and anything above
// that names a gate. The sign of a child reference encodes negation on
// that edge. Index zero is reserved and never used.
//
// # Ownership Model
//
// A Tree is exclusively owned by its caller. Preprocessing mutates the
// graph in place; no intermediate state is observable from outside. After
// Preprocess returns, the tree is read-only by convention and may be
// shared with the enumeration layer.
//
// # Thread Safety
//
// Tree and Gate are NOT safe for concurrent use. Run preprocessing to
// completion on one goroutine before sharing the result for reads.
package graph

import "errors"

// Sentinel errors for indexed fault tree operations.
var (
	// ErrInvariant is returned when the graph reaches a state the
	// rewriting passes guarantee against, such as a gate with an
	// out-of-range child or a dangling index. It always indicates a bug
	// rather than bad user input.
	ErrInvariant = errors.New("fault tree invariant violation")

	// ErrGateNotFound is returned when an index expected to name a gate
	// is absent from the tree.
	ErrGateNotFound = errors.New("gate not found")

	// ErrDuplicateChild is returned when a gate is constructed with the
	// same signed child twice. The symbolic validator rejects this
	// earlier, so seeing it here means the translation is broken.
	ErrDuplicateChild = errors.New("duplicate child")

	// ErrNotCoherent is returned by Preprocess when the caller asserted
	// a coherent tree but the model contains negation. Coherent trees
	// admit a cheaper pipeline with no complement propagation.
	ErrNotCoherent = errors.New("tree is not coherent")
)
