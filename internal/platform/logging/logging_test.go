package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Prefix: "commandeer", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("ready", "commands", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1 (debug filtered): %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode json line %q: %v", lines[0], err)
	}
	if entry["msg"] != "ready" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if _, ok := entry["commands"]; !ok {
		t.Fatalf("commands = %v", entry["commands"])
	}
}

func TestNewTextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Development: true, Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("visible", "key", "value")
	out := buf.String()
	if !strings.Contains(out, "visible") || !strings.Contains(out, "key=value") {
		t.Fatalf("output = %q", out)
	}
	if json.Valid([]byte(strings.TrimSpace(out))) {
		t.Fatalf("expected text output, got json %q", out)
	}
}

func TestNewLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Development: true, Level: "WARN", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected level error")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected format error")
	}
}
