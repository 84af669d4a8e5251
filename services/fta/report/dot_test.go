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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalusRisk/TalusPSA/services/fta/mef"
)

func parseModel(t *testing.T, doc string) *mef.FaultTree {
	t.Helper()
	model, err := mef.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = model.Validate()
	require.NoError(t, err)
	return model
}

func renderDOT(t *testing.T, doc string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, parseModel(t, doc)))
	return buf.String()
}

func TestWriteDOT_Shapes(t *testing.T) {
	out := renderDOT(t, `
top: TOP
basic-events: [A, {B: 0.25}]
house-events:
  H: true
gates:
  TOP: {or: [G1, G2]}
  G1:  {and: [A, B]}
  G2:  {and: [B, {not: H}]}
`)

	assert.True(t, strings.HasPrefix(out, "digraph \"TOP\" {\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))

	// Edges come from copy zero of the referencing gate.
	assert.Contains(t, out, `"TOP_R0" -> "G1_R0";`)
	assert.Contains(t, out, `"TOP_R0" -> "G2_R0";`)
	assert.Contains(t, out, `"G1_R0" -> "A_R0";`)
	assert.Contains(t, out, `"G1_R0" -> "B_R0";`)
	// Second reference of B goes to its next copy.
	assert.Contains(t, out, `"G2_R0" -> "B_R1";`)
	// Negated reference carries the inversion bubble.
	assert.Contains(t, out, `"G2_R0" -> "H_R0" [arrowhead=odot];`)

	// Top is an ellipse colored for OR; other gates are boxes.
	assert.Contains(t, out, `"TOP_R0" [shape=ellipse`)
	assert.Contains(t, out, `color=blue, label="TOP\n{ OR }"`)
	assert.Contains(t, out, `"G1_R0" [shape=box`)
	assert.Contains(t, out, `color=green, label="G1\n{ AND }"`)

	// Both copies of B are circles; the probability rides the label.
	assert.Contains(t, out, `"B_R0" [shape=circle`)
	assert.Contains(t, out, `"B_R1" [shape=circle`)
	assert.Contains(t, out, `label="B\n[basic]\n0.25"`)
	assert.Contains(t, out, `label="A\n[basic]"`)

	// House event is green with its set constant.
	assert.Contains(t, out, `fontcolor=green, label="H\n[house]\nTrue"`)
}

func TestWriteDOT_RepeatedGateIsTransferSymbol(t *testing.T) {
	out := renderDOT(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {or: [G1, G2]}
  G1:  {and: [A, G3]}
  G2:  {and: [B, G3]}
  G3:  {or: [A, C]}
`)

	assert.Contains(t, out, `"G1_R0" -> "G3_R0";`)
	assert.Contains(t, out, `"G2_R0" -> "G3_R1";`)
	assert.Contains(t, out, `"G3_R0" [shape=box`)
	assert.Contains(t, out, `"G3_R1" [shape=triangle`)
}

func TestWriteDOT_AtLeastLabel(t *testing.T) {
	out := renderDOT(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {atleast: {min: 2, of: [A, B, C]}}
`)
	assert.Contains(t, out, `color=cyan, label="TOP\n{ ATLEAST 2/3 }"`)
}

func TestWriteDOT_AnonymousFormula(t *testing.T) {
	out := renderDOT(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {and: [A, {or: [B, C]}]}
`)

	assert.Contains(t, out, `"TOP_R0" -> "TOP._f0_R0";`)
	assert.Contains(t, out, `"TOP._f0_R0" -> "B_R0";`)
	assert.Contains(t, out, `"TOP._f0_R0" -> "C_R0";`)
	assert.Contains(t, out, `"TOP._f0_R0" [shape=box`)
}

func TestWriteDOT_SkipsUnreachable(t *testing.T) {
	out := renderDOT(t, `
top: TOP
basic-events: [A, B, C]
gates:
  TOP:   {or: [A, B]}
  SPARE: {and: [B, C]}
`)

	assert.NotContains(t, out, "SPARE")
	assert.NotContains(t, out, `"C_R0"`)
}

func TestWriteDOT_Deterministic(t *testing.T) {
	doc := `
top: TOP
basic-events: [A, B, C]
gates:
  TOP: {or: [G1, G2]}
  G1:  {and: [A, G3]}
  G2:  {and: [B, G3]}
  G3:  {or: [A, C]}
`
	assert.Equal(t, renderDOT(t, doc), renderDOT(t, doc))
}
