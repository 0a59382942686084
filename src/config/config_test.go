package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// isolate keeps the developer's own config and environment out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix+"_") {
			name, _, _ := strings.Cut(kv, "=")
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Backend != BackendRemote {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendRemote)
	}
	if cfg.ProtocolURL != DefaultProtocolURL {
		t.Errorf("ProtocolURL = %q, want %q", cfg.ProtocolURL, DefaultProtocolURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.Coordinator.Binary != "dora" {
		t.Errorf("Coordinator.Binary = %q, want dora", cfg.Coordinator.Binary)
	}
	if cfg.Relay.Topic != "dora.logs" {
		t.Errorf("Relay.Topic = %q, want dora.logs", cfg.Relay.Topic)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DORA_PROTOCOL_URL", "http://gateway.internal:9000")
	t.Setenv("DORA_BACKEND", "local")
	t.Setenv("DORA_REQUEST_TIMEOUT", "3s")
	t.Setenv("DORA_LOG_LEVEL", "debug")
	t.Setenv("DORA_PREFERENCES_PATH", "/tmp/prefs.yaml")
	t.Setenv("DORA_RELAY_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.ProtocolURL != "http://gateway.internal:9000" {
		t.Errorf("ProtocolURL = %q", cfg.ProtocolURL)
	}
	if cfg.Backend != BackendLocal {
		t.Errorf("Backend = %q, want local", cfg.Backend)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Preferences.Path != "/tmp/prefs.yaml" {
		t.Errorf("Preferences.Path = %q", cfg.Preferences.Path)
	}
	if len(cfg.Relay.Brokers) != 2 || cfg.Relay.Brokers[1] != "broker-2:9092" {
		t.Errorf("Relay.Brokers = %v", cfg.Relay.Brokers)
	}
}

func TestLoad_ConfigFileAndFlags(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "dora-tui.yaml")
	content := `
backend: remote
protocol_url: http://from-file:7267
log:
  format: json
relay:
  topic: dataflow-logs
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("protocol-url", "", "")
	flags.String("backend", "", "")
	if err := flags.Parse([]string{"--protocol-url", "http://from-flag:7267"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.ProtocolURL != "http://from-flag:7267" {
		t.Errorf("ProtocolURL = %q, flag should win over file", cfg.ProtocolURL)
	}
	if cfg.Backend != BackendRemote {
		t.Errorf("Backend = %q, unset flag must not override", cfg.Backend)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	if cfg.Relay.Topic != "dataflow-logs" {
		t.Errorf("Relay.Topic = %q", cfg.Relay.Topic)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("Load() expected error for missing explicit config file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"local backend without url", func(c *Config) { c.Backend = BackendLocal; c.ProtocolURL = "" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "hybrid" }, true},
		{"remote backend without url", func(c *Config) { c.ProtocolURL = " " }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"zero dial timeout", func(c *Config) { c.StreamDialTimeout = 0 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"file output without path", func(c *Config) { c.Log.Output = "file" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoad_Panics(t *testing.T) {
	isolate(t)
	t.Setenv("DORA_BACKEND", "hybrid")

	defer func() {
		if recover() == nil {
			t.Error("MustLoad() expected panic for invalid backend")
		}
	}()
	MustLoad("", nil)
}
