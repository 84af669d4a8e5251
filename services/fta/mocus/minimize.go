// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package mocus

import "sort"

// minimize reduces expansion candidates to the minimal ones: exact
// duplicates collapse, and any candidate containing an accepted one
// is discarded. Candidates are processed in non-decreasing order, so
// a set can only be subsumed by one at most as wide that was accepted
// before it; width-1 candidates are minimal outright.
//
// Module references count as opaque literals here. Modules never
// share events with each other or with literals outside themselves,
// so subsumption decided before splicing still holds after it.
func minimize(candidates []product) []product {
	seen := make(map[string]struct{}, len(candidates))
	var accepted, rest []product
	for _, p := range candidates {
		k := p.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if p.order() == 1 {
			accepted = append(accepted, p)
		} else {
			rest = append(rest, p)
		}
	}

	sort.Slice(rest, func(i, j int) bool { return lessProducts(rest[i], rest[j]) })
	for _, p := range rest {
		subsumed := false
		for _, q := range accepted {
			if q.subsetOf(p) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			accepted = append(accepted, p)
		}
	}
	return accepted
}

// lessProducts orders candidates by width, then by literals, then by
// module references, which fixes the acceptance order of minimize.
func lessProducts(a, b product) bool {
	if a.order() != b.order() {
		return a.order() < b.order()
	}
	if c := compareSets(a.basics, b.basics); c != 0 {
		return c < 0
	}
	return compareSets(a.modules, b.modules) < 0
}

// sortSets fixes the emission order of resolved cut sets: size
// ascending, then lexicographic on the signed indices.
func sortSets(sets [][]int) {
	sort.Slice(sets, func(i, j int) bool {
		return compareSets(sets[i], sets[j]) < 0
	})
}
