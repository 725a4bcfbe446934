package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"ollgate-hq/ollgate/pkg/config"
)

func TestSetupJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("proxy started", "listen", "127.0.0.1:8080")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "proxy started" {
		t.Errorf("msg = %v, want proxy started", record["msg"])
	}
	if record["listen"] != "127.0.0.1:8080" {
		t.Errorf("listen = %v, want 127.0.0.1:8080", record["listen"])
	}
}

func TestSetupTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("proxy started")
	if !strings.Contains(buf.String(), "msg=") {
		t.Errorf("output = %q, want text handler format", buf.String())
	}
}

func TestSetupLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record should pass at warn level")
	}
}

func TestSetupUnknownFormat(t *testing.T) {
	if _, err := Setup(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
