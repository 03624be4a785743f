package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// captureLogOutput reinitializes the logger to write JSON into a buffer at
// the given level and restores the default afterwards.
func captureLogOutput(t *testing.T, level Level, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	InitLoggerTo(&buf, level, FormatJSON)
	t.Cleanup(func() { InitLoggerTo(&bytes.Buffer{}, LevelWarn, FormatText) })
	f()
	return buf.String()
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, m)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("ParseFormat(JSON) should be FormatJSON")
	}
	if ParseFormat("text") != FormatText || ParseFormat("") != FormatText {
		t.Error("ParseFormat should default to FormatText")
	}
}

func TestLevelFiltering(t *testing.T) {
	ctx := context.Background()
	out := captureLogOutput(t, LevelWarn, func() {
		Diagnostic("order", "hidden debug")
		InfoContext(ctx, "hidden info")
		Warn("shown warn", "key", "value")
		ErrorContext(ctx, "shown error")
	})

	entries := decodeLines(t, out)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %s", len(entries), out)
	}
	if entries[0]["msg"] != "shown warn" || entries[0]["key"] != "value" {
		t.Errorf("unexpected warn entry: %v", entries[0])
	}
	if entries[1]["level"] != "ERROR" {
		t.Errorf("unexpected error entry: %v", entries[1])
	}
}

func TestTimestampFormat(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, func() { InfoContext(context.Background(), "tick") })
	entries := decodeLines(t, out)
	ts, ok := entries[0]["time"].(string)
	if !ok || !strings.Contains(ts, "T") {
		t.Errorf("time should be RFC3339, got %v", entries[0]["time"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelInfo, FormatText)
	defer InitLoggerTo(&bytes.Buffer{}, LevelWarn, FormatText)

	InfoContext(context.Background(), "plain", "order", "orchestral")
	if !strings.Contains(buf.String(), "order=orchestral") {
		t.Errorf("text output missing attribute: %q", buf.String())
	}
}

func TestDiagnostic(t *testing.T) {
	out := captureLogOutput(t, LevelDebug, func() {
		Diagnostic("order", "invalid boolean attribute", "attribute", "barLineSpan", "value", "yes")
	})
	entries := decodeLines(t, out)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["component"] != "order" || e["attribute"] != "barLineSpan" || e["level"] != "DEBUG" {
		t.Errorf("unexpected diagnostic entry: %v", e)
	}

	quiet := captureLogOutput(t, LevelInfo, func() {
		Diagnostic("order", "hidden")
	})
	if quiet != "" {
		t.Errorf("diagnostics should be debug level, got %q", quiet)
	}
}

func TestCatalogEvents(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, func() {
		CatalogEvent("load", "orders.xml", "orders", 3)
		CatalogError("save", "/ro/orders.xml", errors.New("read-only file system"))
	})
	entries := decodeLines(t, out)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["msg"] != "catalog_event" || entries[0]["event"] != "load" || entries[0]["orders"] != float64(3) {
		t.Errorf("unexpected event entry: %v", entries[0])
	}
	if entries[1]["msg"] != "catalog_error" || entries[1]["error"] != "read-only file system" {
		t.Errorf("unexpected error entry: %v", entries[1])
	}
}

func TestContextLogging(t *testing.T) {
	ctx := WithCommand(context.Background(), "layout")
	if GetCommand(ctx) != "layout" {
		t.Errorf("GetCommand = %q", GetCommand(ctx))
	}
	if GetCommand(context.Background()) != "" {
		t.Error("GetCommand on empty context should be empty")
	}

	out := captureLogOutput(t, LevelInfo, func() {
		InfoContext(ctx, "running")
		ErrorContext(context.Background(), "failed")
	})
	entries := decodeLines(t, out)
	if entries[0]["command"] != "layout" {
		t.Errorf("context logger should carry command: %v", entries[0])
	}
	if _, ok := entries[1]["command"]; ok {
		t.Errorf("plain context should not carry command: %v", entries[1])
	}
}
