package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "agent step", "client", "C0")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger("info", &buf)
	logger.Debug("hidden")
	logger.Info("run finished", "transactions", 12)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "run finished" || entry["transactions"] != float64(12) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

// readDecisions returns every JSONL entry written to dir.
func readDecisions(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, DecisionFile))
	if err != nil {
		t.Fatalf("failed to read decision log: %v", err)
	}
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid decision line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewDecisionLogger_Levels(t *testing.T) {
	tests := []struct {
		level       string
		wantEnabled bool
	}{
		{"info", false},
		{"", false},
		{"debug", true},
		{"trace", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			dir := t.TempDir()
			dl := NewDecisionLogger(dir, tt.level)
			defer dl.Close()

			if dl.Enabled() != tt.wantEnabled {
				t.Fatalf("Enabled() = %v, want %v", dl.Enabled(), tt.wantEnabled)
			}
			dl.Log(map[string]any{"event": EventRunStarted})

			_, err := os.Stat(filepath.Join(dir, DecisionFile))
			if exists := err == nil; exists != tt.wantEnabled {
				t.Errorf("decision file exists = %v, want %v", exists, tt.wantEnabled)
			}
		})
	}
}

func TestDecisionLogger_RunEvents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "march")
	dl := NewDecisionLogger(dir, "debug")
	if dl == nil {
		t.Fatal("expected a logger when the output dir has to be created")
	}

	start := map[string]any{"event": EventRunStarted, "run_id": "run-1", "seed": 42}
	dl.Log(start)
	dl.FraudBlocked("run-1", 5, "C3", 900000, 12.5)
	dl.AgentAborted("run-1", 6, "C4", 2, 7)
	dl.Log(map[string]any{"event": EventRunFinished, "run_id": "run-1"})
	dl.Close()
	dl.Log(map[string]any{"event": "after_close"})

	if _, ok := start["time"]; ok {
		t.Error("Log() must not add fields to the caller's map")
	}

	entries := readDecisions(t, dir)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries (nothing after Close), got %d", len(entries))
	}
	for i, want := range []string{EventRunStarted, EventFraudBlocked, EventAgentAborted, EventRunFinished} {
		if entries[i]["event"] != want {
			t.Errorf("entry %d event = %v, want %s", i, entries[i]["event"], want)
		}
		if _, ok := entries[i]["time"]; !ok {
			t.Errorf("entry %d has no time field", i)
		}
	}

	blocked, aborted := entries[1], entries[2]
	if blocked["client"] != "C3" || blocked["step"] != float64(5) || blocked["amount"] != float64(900000) || blocked["balance"] != 12.5 {
		t.Errorf("fraud event = %v", blocked)
	}
	if aborted["client"] != "C4" || aborted["executed"] != float64(2) || aborted["planned"] != float64(7) {
		t.Errorf("abort event = %v", aborted)
	}
	if entries[0]["seed"] != float64(42) {
		t.Errorf("start event = %v", entries[0])
	}
}

func TestDecisionLogger_NilSafety(t *testing.T) {
	var dl *DecisionLogger
	dl.Log(map[string]any{"event": "ignored"})
	dl.FraudBlocked("run", 1, "C0", 10, 5)
	dl.AgentAborted("run", 1, "C0", 1, 2)
	if dl.Enabled() {
		t.Error("nil logger must not report Enabled")
	}
	dl.Close()
}

func TestDecisionLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "trace")
	defer dl.Close()

	dl.Log(map[string]any{"event": EventRunStarted})

	info, err := os.Stat(filepath.Join(dir, DecisionFile))
	if err != nil {
		t.Fatalf("failed to stat decision log: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}
