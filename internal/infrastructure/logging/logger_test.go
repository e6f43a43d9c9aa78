package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(t *testing.T, level string) (*ZerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestZerologLogger_Fields(t *testing.T) {
	logger, buf := newJSONLogger(t, "debug")

	logger.Info("Saved windowDetails.", "x", 10, "y", 20, "error", errors.New("none"))

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["message"] != "Saved windowDetails." {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["x"] != float64(10) || entry["y"] != float64(20) {
		t.Errorf("position fields missing: %v", entry)
	}
	if entry["error"] != "none" {
		t.Errorf("error field = %v", entry["error"])
	}
}

func TestZerologLogger_MalformedFields(t *testing.T) {
	logger, buf := newJSONLogger(t, "info")

	logger.Warn("odd fields", 42, "value", "dangling")

	entry := decodeLines(t, buf)[0]
	if entry["field_0"] != float64(42) || entry["field_0_value"] != "value" {
		t.Errorf("non-string key not preserved: %v", entry)
	}
	if entry["field_1"] != "dangling" {
		t.Errorf("dangling value not preserved: %v", entry)
	}
}

func TestZerologLogger_DanglingStringValue(t *testing.T) {
	logger, buf := newJSONLogger(t, "info")

	logger.Info("saved", "key", "windowDetails", "orphan")

	entry := decodeLines(t, buf)[0]
	if entry["key"] != "windowDetails" {
		t.Errorf("key/value pair lost: %v", entry)
	}
	if entry["field_1"] != "orphan" {
		t.Errorf("dangling value not logged positionally: %v", entry)
	}
	if _, ok := entry["orphan"]; ok {
		t.Errorf("dangling value used as its own key: %v", entry)
	}
}

func TestZerologLogger_SetLevel(t *testing.T) {
	logger, buf := newJSONLogger(t, "info")

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", buf.String())
	}

	logger.SetLevel("debug")
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug line missing after SetLevel: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"WARN":    "warn",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range tests {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeClassifiedError struct{}

func (fakeClassifiedError) Error() string     { return "database is locked" }
func (fakeClassifiedError) GetCode() string   { return "BUSY" }
func (fakeClassifiedError) IsRetryable() bool { return true }
func (fakeClassifiedError) GetContext() map[string]string {
	return map[string]string{"key": "windowDetails"}
}
func (fakeClassifiedError) GetTimestamp() time.Time { return time.Unix(0, 0) }

func TestLogError(t *testing.T) {
	logger, buf := newJSONLogger(t, "info")

	LogError(logger, fakeClassifiedError{}, "session_save", map[string]interface{}{"window": "main"})
	LogError(logger, errors.New("plain"), "resolve", nil)

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["error_code"] != "BUSY" || entries[0]["key"] != "windowDetails" || entries[0]["window"] != "main" {
		t.Errorf("classified error fields missing: %v", entries[0])
	}
	if entries[1]["error_type"] != "*errors.errorString" {
		t.Errorf("plain error type = %v", entries[1]["error_type"])
	}
}

func TestNew_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "main.log")
	var console bytes.Buffer

	logger, err := New(Config{Level: "info", Format: "json", File: path, MaxSizeKB: 100, Output: &console})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello") || !strings.Contains(console.String(), "hello") {
		t.Errorf("line missing from file or console")
	}
}
