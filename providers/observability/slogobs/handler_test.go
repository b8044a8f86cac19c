package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// TestHandler_Compact verifies the compact layout and sorted, quoted attributes.
func TestHandler_Compact(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewHandler(&HandlerOptions{Format: FormatCompact, Level: slog.LevelDebug, Output: buf}))

	logger.Info("chat request", "provider", "openai", "model", "gpt-4o", "note", "two words")

	line := buf.String()
	if !strings.Contains(line, " INFO chat request ") {
		t.Errorf("missing level/message in %q", line)
	}
	if !strings.Contains(line, `model=gpt-4o note="two words" provider=openai`) {
		t.Errorf("attributes not sorted or quoted in %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("expected trailing newline")
	}
}

// TestHandler_JSON verifies one JSON object per record with standard fields.
func TestHandler_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewHandler(&HandlerOptions{Format: FormatJSON, Output: buf}))

	logger.Warn("slow tool", "duration", 1500*time.Millisecond, "tool", "getWeather")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if record["level"] != "WARN" || record["msg"] != "slow tool" || record["tool"] != "getWeather" {
		t.Errorf("unexpected record %v", record)
	}
	if record["duration"] != "1.5s" {
		t.Errorf("expected duration rendered as string, got %v", record["duration"])
	}
}

// TestHandler_LevelFiltering verifies records below the level are dropped.
func TestHandler_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewHandler(&HandlerOptions{Level: slog.LevelWarn, Output: buf})
	logger := slog.New(handler)

	logger.Info("dropped")
	logger.Error("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should not be enabled at WARN")
	}
}

// TestHandler_WithAttrsAndGroup verifies attributes are inherited and grouped keys prefixed.
func TestHandler_WithAttrsAndGroup(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewHandler(&HandlerOptions{Output: buf})).
		With("request_id", "r1").
		WithGroup("tool")

	logger.Info("dispatched", "name", "f")

	line := buf.String()
	if !strings.Contains(line, "request_id=r1") || !strings.Contains(line, "tool.name=f") {
		t.Errorf("unexpected line %q", line)
	}
}

// TestHandler_TraceLevel verifies levels below DEBUG are labelled TRACE.
func TestHandler_TraceLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewHandler(&HandlerOptions{Level: LevelTrace, Output: buf}))

	logger.Log(context.Background(), LevelTrace, "wire dump")

	if !strings.Contains(buf.String(), "TRACE wire dump") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
