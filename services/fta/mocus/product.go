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

import (
	"strconv"
	"strings"
)

// product is one conjunction candidate during expansion: the basic
// literals and module references whose joint truth satisfies the
// projected gate. Both slices are sorted ascending and never mutated
// once built; merge allocates fresh slices.
type product struct {
	basics  []int
	modules []int
}

// order is the width the order limit caps.
func (p product) order() int { return len(p.basics) + len(p.modules) }

// merge unions two candidates. The second result is false when the
// conjunction is contradictory (it would hold a literal and its
// complement) or wider than limit; such a candidate contributes no
// cut set and is dropped.
func (p product) merge(o product, limit int) (product, bool) {
	basics, ok := mergeSigned(p.basics, o.basics)
	if !ok {
		return product{}, false
	}
	modules, ok := mergeSigned(p.modules, o.modules)
	if !ok {
		return product{}, false
	}
	if len(basics)+len(modules) > limit {
		return product{}, false
	}
	return product{basics: basics, modules: modules}, true
}

// subsetOf reports whether every literal and module of p appears in o.
func (p product) subsetOf(o product) bool {
	return containsAll(o.basics, p.basics) && containsAll(o.modules, p.modules)
}

// key is the canonical dedup identity of a candidate.
func (p product) key() string {
	var b strings.Builder
	for _, v := range p.basics {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, v := range p.modules {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	return b.String()
}

// mergeSigned unions two sorted signed slices, dropping duplicates.
// It returns false when the union holds both v and -v.
func mergeSigned(a, b []int) ([]int, bool) {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	if hasComplement(out) {
		return nil, false
	}
	return out, true
}

// hasComplement reports whether a sorted slice holds some v and -v.
// Negatives sit at the front ascending, so their magnitudes descend
// while the positives at the back descend from the other end.
func hasComplement(sorted []int) bool {
	i, j := 0, len(sorted)-1
	for i < j && sorted[i] < 0 && sorted[j] > 0 {
		switch {
		case -sorted[i] == sorted[j]:
			return true
		case -sorted[i] > sorted[j]:
			i++
		default:
			j--
		}
	}
	return false
}

// containsAll reports whether sorted slice a contains every element of
// sorted slice b.
func containsAll(a, b []int) bool {
	if len(b) > len(a) {
		return false
	}
	i := 0
	for _, v := range b {
		for i < len(a) && a[i] < v {
			i++
		}
		if i == len(a) || a[i] != v {
			return false
		}
		i++
	}
	return true
}

// compareSets orders two sorted literal sets by size, then
// lexicographically on the signed values.
func compareSets(a, b []int) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
