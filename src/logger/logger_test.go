package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var (
	_ Logger = (*ConsoleLogger)(nil)
	_ Logger = (*SilentLogger)(nil)
	_ Logger = (*SlogLogger)(nil)
)

func TestConsoleLogger(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &ConsoleLogger{out: &out, err: &errOut}

	c.Info("listed %d dataflows", 3)
	c.Warn("system metrics stream ended")
	c.Error("save failed: %v", "boom")

	if got := out.String(); got != "[INFO] listed 3 dataflows\n" {
		t.Errorf("stdout = %q", got)
	}
	if !strings.Contains(errOut.String(), "[WARN] system metrics stream ended\n") {
		t.Errorf("stderr missing warning: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "[ERROR] save failed: boom\n") {
		t.Errorf("stderr missing error: %q", errOut.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetup_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dora-tui.log")

	l, err := Setup(Config{Level: "warn", Format: "json", Output: "file", FilePath: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	l.Info("hidden")
	l.Warn("system metrics stream failed: %s", "eof")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), data)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "system metrics stream failed: eof" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["level"] != "WARN" {
		t.Errorf("level = %v", record["level"])
	}
}

func TestSetup_InvalidConfig(t *testing.T) {
	tests := []Config{
		{Level: "loud"},
		{Format: "xml"},
		{Output: "syslog"},
		{Output: "file"},
	}
	for _, cfg := range tests {
		if _, err := Setup(cfg); err == nil {
			t.Errorf("Setup(%+v) error = nil, want error", cfg)
		}
	}
}

func TestSlogLogger_KeepsPercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Info("cpu at 100%")

	if !strings.Contains(buf.String(), "cpu at 100%") {
		t.Errorf("output = %q", buf.String())
	}
}
