package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLoggerCloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Service: "webhook-gateway", CloudLogging: true, Writer: &buf})
	logger.Warn("disk almost full", "percent", 91)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["severity"] != "WARNING" {
		t.Fatalf("expected severity WARNING, got %v", entry["severity"])
	}
	if entry["message"] != "disk almost full" {
		t.Fatalf("unexpected message %v", entry["message"])
	}
	if entry["service"] != "webhook-gateway" {
		t.Fatalf("missing service attribute: %v", entry)
	}
	if _, ok := entry["logging.googleapis.com/sourceLocation"]; !ok {
		t.Fatalf("expected source location key, got %v", entry)
	}
}

func TestNewLoggerLocalKeepsSlogKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Service: "svc", Writer: &buf})
	logger.Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "INFO" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Service: "svc", Level: slog.LevelWarn, Writer: &buf})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARNING", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.raw); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := WithRequestID(context.Background(), NewLogger(Options{Service: "svc", Writer: &buf}), "req-1")
	logger.Info("x")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["requestId"] != "req-1" {
		t.Fatalf("expected requestId, got %v", entry)
	}
}
