// Package config provides configuration management for dora-tui.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/heyong4725/dora-tui/src/logger"
)

// Backend selects which capability implementations the process uses.
type Backend string

const (
	// BackendRemote talks to the protocol gateway over HTTP.
	BackendRemote Backend = "remote"
	// BackendLocal uses the dora CLI and this host directly.
	BackendLocal Backend = "local"
)

const (
	// DefaultProtocolURL is the gateway address used when none is configured.
	DefaultProtocolURL = "http://127.0.0.1:7267"
	// EnvPrefix prefixes every environment override, e.g. DORA_PROTOCOL_URL.
	EnvPrefix = "DORA"
)

// Config holds the application configuration.
type Config struct {
	Backend           Backend           `mapstructure:"backend"`
	ProtocolURL       string            `mapstructure:"protocol_url"`
	RequestTimeout    time.Duration     `mapstructure:"request_timeout"`
	StreamDialTimeout time.Duration     `mapstructure:"stream_dial_timeout"`
	Preferences       PreferencesConfig `mapstructure:"preferences"`
	Coordinator       CoordinatorConfig `mapstructure:"coordinator"`
	Log               LogConfig         `mapstructure:"log"`
	Relay             RelayConfig       `mapstructure:"relay"`
	// MetricsAddr is where dora-mcp serves Prometheus metrics. Empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// PreferencesConfig configures the local preferences file.
type PreferencesConfig struct {
	Path string `mapstructure:"path"`
}

// CoordinatorConfig configures how the local backend reaches the coordinator.
type CoordinatorConfig struct {
	Binary string `mapstructure:"binary"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// RelayConfig configures where followed log events are published and archived.
// Empty Brokers selects the in-memory broker; empty PostgresDSN the in-memory archive.
type RelayConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	PostgresDSN string   `mapstructure:"postgres_dsn"`
	Topic       string   `mapstructure:"topic"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"backend":      "backend",
	"protocol-url": "protocol_url",
	"log-level":    "log.level",
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Backend:           BackendRemote,
		ProtocolURL:       DefaultProtocolURL,
		RequestTimeout:    10 * time.Second,
		StreamDialTimeout: 5 * time.Second,
		Coordinator:       CoordinatorConfig{Binary: "dora"},
		Log:               LogConfig{Level: "info", Format: "text", Output: "stderr"},
		Relay:             RelayConfig{Topic: "dora.logs"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("protocol_url", d.ProtocolURL)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("stream_dial_timeout", d.StreamDialTimeout)
	v.SetDefault("preferences.path", "")
	v.SetDefault("coordinator.binary", d.Coordinator.Binary)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file_path", "")
	v.SetDefault("relay.brokers", []string{})
	v.SetDefault("relay.postgres_dsn", "")
	v.SetDefault("relay.topic", d.Relay.Topic)
	v.SetDefault("metrics_addr", "")
}

// Load reads configuration from defaults, an optional YAML file, DORA_*
// environment variables and flags, in increasing precedence.
// With an empty path, dora-tui.yaml is looked up in the user config directory
// and the working directory; a missing file is not an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dora-tui")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "dora"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoad(path string, flags *pflag.FlagSet) *Config {
	cfg, err := Load(path, flags)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks values that cannot be fixed up later. A malformed
// protocol URL is left to the backend, which treats it as fatal.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRemote:
		if strings.TrimSpace(c.ProtocolURL) == "" {
			return fmt.Errorf("protocol_url is required for the remote backend")
		}
	case BackendLocal:
	default:
		return fmt.Errorf("invalid backend: %q, must be %q or %q", c.Backend, BackendRemote, BackendLocal)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.StreamDialTimeout <= 0 {
		return fmt.Errorf("stream_dial_timeout must be positive, got %s", c.StreamDialTimeout)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}
	if c.Log.Output == "file" && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path is required when log.output is 'file'")
	}
	return nil
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:    c.Log.Level,
		Format:   c.Log.Format,
		Output:   c.Log.Output,
		FilePath: c.Log.FilePath,
	}
}
