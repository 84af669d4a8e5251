// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Package mocus enumerates minimal cut sets of a preprocessed fault
// tree with the MOCUS top-down expansion method.
//
// The enumerator consumes the canonical form produced by
// graph.Tree.Preprocess: AND/OR gates with positive gate edges, with
// independent subtrees flagged as modules. Each module is expanded
// once into its own minimal cut sets, cached, and spliced into every
// referencing product, which keeps shared subtrees from being expanded
// repeatedly.
//
// # Cut Sets
//
// A cut set is a set of signed basic-event indices whose joint truth
// forces the top event: a positive index means the event fails, a
// negative index means it must not. All returned sets are minimal (no
// returned set contains another) and at most OrderLimit literals wide.
// Results are ordered by size, then lexicographically, so repeated
// runs produce identical output.
//
// # Thread Safety
//
// An analysis run owns its tree and caches exclusively. Distinct runs
// are independent and may execute concurrently.
package mocus

import "errors"

// Sentinel errors of the enumeration layer. Internal invariant
// violations surface as graph.ErrInvariant.
var (
	// ErrInvalidOrderLimit indicates a non-positive cut set order limit.
	ErrInvalidOrderLimit = errors.New("invalid order limit")
)
