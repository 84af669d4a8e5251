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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/TalusRisk/TalusPSA/pkg/ux"
)

// ErrUnknownFormat reports a format name outside text, json, and yaml.
var ErrUnknownFormat = errors.New("unknown report format")

// Format selects the rendering a Writer produces.
type Format int

const (
	// FormatText is a human-readable summary, optionally styled.
	FormatText Format = iota
	// FormatJSON is an indented JSON document.
	FormatJSON
	// FormatYAML is a YAML document.
	FormatYAML
)

// ParseFormat maps a flag or config value to a Format. The empty
// string means text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
}

// String returns the canonical format name.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the file extension for the format, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// ContentType returns the MIME type for the format, used when a
// rendered report is uploaded or served.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Writer renders reports to an io.Writer. The zero value writes
// unstyled text.
type Writer struct {
	// Format selects text, JSON, or YAML output.
	Format Format
	// Styled applies terminal styling to text output. Ignored for
	// JSON and YAML, which must stay machine-readable.
	Styled bool
}

// Write renders the report in the configured format.
func (wr Writer) Write(w io.Writer, r *Report) error {
	switch wr.Format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatText:
		return wr.writeText(w, r)
	default:
		return fmt.Errorf("format %d: %w", int(wr.Format), ErrUnknownFormat)
	}
}

// Render is a convenience that captures Write output in memory, for
// callers that ship the bytes elsewhere (archive, uploads).
func (wr Writer) Render(r *Report) ([]byte, error) {
	var buf strings.Builder
	if err := wr.Write(&buf, r); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func writeJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func writeYAML(w io.Writer, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// writeText renders the human-readable summary.
//
// Description:
//
//	Prints identity, settings, summary counters, warnings, and the
//	cut-set listing. The two degenerate outcomes get a sentence
//	instead of a table: no products means the top event cannot occur,
//	a single empty product means it always occurs.
func (wr Writer) writeText(w io.Writer, r *Report) error {
	heading := "Fault Tree Analysis"
	if r.Model != "" {
		heading += ": " + r.Model
	}
	wr.line(w, wr.style(ux.Styles.Title, heading))
	wr.line(w, "Top event: "+wr.style(ux.Styles.Highlight, r.TopEvent))
	wr.line(w, wr.style(ux.Styles.Muted,
		fmt.Sprintf("Run %s, generated %s", r.RunID,
			r.GeneratedAt.Format(time.RFC3339))))
	wr.line(w, "")

	wr.line(w, wr.style(ux.Styles.Subtitle, "Settings"))
	wr.line(w, fmt.Sprintf("  order limit:     %d", r.Settings.OrderLimit))
	wr.line(w, fmt.Sprintf("  assume coherent: %v", r.Settings.AssumeCoherent))
	if len(r.Settings.TrueHouse) > 0 {
		wr.line(w, "  house true:      "+strings.Join(r.Settings.TrueHouse, ", "))
	}
	if len(r.Settings.FalseHouse) > 0 {
		wr.line(w, "  house false:     "+strings.Join(r.Settings.FalseHouse, ", "))
	}
	wr.line(w, "")

	wr.line(w, wr.style(ux.Styles.Subtitle, "Summary"))
	wr.line(w, fmt.Sprintf("  basic events: %d", r.Summary.BasicEvents))
	wr.line(w, fmt.Sprintf("  model gates:  %d", r.Summary.ModelGates))
	wr.line(w, fmt.Sprintf("  products:     %d", r.Summary.Products))
	wr.line(w, fmt.Sprintf("  expansions:   %d", r.Summary.Expansions))
	wr.line(w, "  preprocess:   "+formatSeconds(r.Summary.PreprocessSeconds))
	wr.line(w, "  analysis:     "+formatSeconds(r.Summary.AnalysisSeconds))

	if len(r.Warnings) > 0 {
		wr.line(w, "")
		wr.line(w, wr.style(ux.Styles.Subtitle, "Warnings"))
		for _, warning := range r.Warnings {
			wr.line(w, "  "+wr.style(ux.Styles.Warning, warning))
		}
	}

	wr.line(w, "")
	switch {
	case r.NeverOccurs():
		wr.line(w, "No minimal cut sets: the top event cannot occur.")
	case r.AlwaysOccurs():
		wr.line(w, wr.style(ux.Styles.Warning,
			"The top event always occurs: the empty set is its only cut set."))
	default:
		wr.line(w, wr.style(ux.Styles.Subtitle, "Minimal cut sets"))
		width := len(fmt.Sprint(len(r.Products)))
		for i, p := range r.Products {
			wr.line(w, fmt.Sprintf("  %*d  [%d]  %s", width, i+1, p.Order,
				strings.Join(p.Literals, ", ")))
		}
	}
	return nil
}

func (wr Writer) line(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}

// style applies a lipgloss style in styled mode and passes the text
// through untouched otherwise.
func (wr Writer) style(s lipgloss.Style, text string) string {
	if !wr.Styled {
		return text
	}
	return s.Render(text)
}

// formatSeconds renders a stage duration with sensible units.
func formatSeconds(s float64) string {
	d := time.Duration(s * float64(time.Second))
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(10 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
