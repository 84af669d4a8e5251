// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := tt.level.toSlogLevel()
			if got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.slog == nil {
		t.Error("logger.slog is nil")
	}
	defer logger.Close()
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelDebug,
		LogDir:  dir,
		Service: "fta-test",
		Quiet:   true,
	})
	logger.Info("cut sets ready", "count", 3)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	filename := "fta-test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"cut sets ready"`) {
		t.Errorf("log file missing message, got: %s", data)
	}
	if !strings.Contains(string(data), `"service":"fta-test"`) {
		t.Errorf("log file missing service attribute, got: %s", data)
	}
}

func TestNew_QuietWithoutDestinations(t *testing.T) {
	// Quiet with no file and no exporter must still yield a usable logger.
	logger := New(Config{Quiet: true})
	defer logger.Close()
	logger.Info("dropped on the floor is fine")
}

// =============================================================================
// Logger Method Tests
// =============================================================================

func TestLogger_With(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelDebug,
		Service:  "fta",
		Quiet:    true,
		Exporter: exporter,
	})
	defer logger.Close()

	child := logger.With("run_id", "r-1")
	if child == logger {
		t.Fatal("With() should return a new logger")
	}
	child.Info("expanding module", "module", 7)

	waitForEntries(t, exporter, 1)
	entries := exporter.Entries()
	if entries[0].Message != "expanding module" {
		t.Errorf("message = %q, want %q", entries[0].Message, "expanding module")
	}
	if entries[0].Service != "fta" {
		t.Errorf("service = %q, want %q", entries[0].Service, "fta")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelWarn,
		Quiet:    true,
		Exporter: exporter,
	})
	defer logger.Close()

	logger.Debug("below threshold")
	logger.Info("below threshold")
	logger.Warn("at threshold")
	logger.Error("above threshold")

	waitForEntries(t, exporter, 2)
	entries := exporter.Entries()
	if len(entries) != 2 {
		t.Fatalf("exported %d entries, want 2", len(entries))
	}
	if entries[0].Level != LevelWarn || entries[1].Level != LevelError {
		t.Errorf("exported levels = %v, %v", entries[0].Level, entries[1].Level)
	}
}

// =============================================================================
// Exporter Tests
// =============================================================================

func TestBufferedExporter(t *testing.T) {
	exporter := NewBufferedExporter()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Message:   "hello",
		Attrs:     map[string]any{"k": "v"},
	}
	if err := exporter.Export(context.Background(), entry); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Message != "hello" {
		t.Errorf("message = %q, want %q", entries[0].Message, "hello")
	}

	// Entries returns a copy
	entries[0].Message = "mutated"
	if exporter.Entries()[0].Message != "hello" {
		t.Error("Entries() should return a copy")
	}
}

func TestWriterExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     LevelError,
		Message:   "invariant violated",
	}
	if err := exporter.Export(context.Background(), entry); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if !strings.Contains(buf.String(), "invariant violated") {
		t.Errorf("writer output missing message: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("writer output missing level: %q", buf.String())
	}
}

func TestNopExporter(t *testing.T) {
	e := &NopExporter{}
	if err := e.Export(context.Background(), LogEntry{}); err != nil {
		t.Errorf("Export() error: %v", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Errorf("Flush() error: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

// =============================================================================
// Multi-Handler Tests
// =============================================================================

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}}

	logger := slog.New(h)
	logger.Info("both destinations")

	if !strings.Contains(a.String(), "both destinations") {
		t.Error("text handler did not receive record")
	}
	if !strings.Contains(b.String(), "both destinations") {
		t.Error("json handler did not receive record")
	}
}

// waitForEntries polls the exporter until n entries arrive or times out.
// Export runs on a goroutine, so tests must tolerate the small delay.
func waitForEntries(t *testing.T, e *BufferedExporter, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(e.Entries()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d exported entries (have %d)", n, len(e.Entries()))
}
