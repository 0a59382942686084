// Package bundle is the composition root: it picks the local or the remote
// implementation of every capability once, at startup.
package bundle

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/heyong4725/dora-tui/src/config"
	"github.com/heyong4725/dora-tui/src/local"
	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/protocolclient"
	"github.com/heyong4725/dora-tui/src/provider"
	"github.com/heyong4725/dora-tui/src/telemetry"
)

// Bundle holds the selected capability implementations. Clients and Metrics
// are only set for the remote backend.
type Bundle struct {
	Backend  config.Backend
	Services provider.Services
	Clients  *protocolclient.Clients
	Metrics  *telemetry.MetricsCache
}

type options struct {
	registerer    prometheus.Registerer
	metricsStream bool
}

// Option customizes New.
type Option func(*options)

// WithRegisterer registers the metrics stream collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithoutMetricsStream serves telemetry with one-shot requests instead of
// keeping a background metrics stream. Useful for short-lived commands.
func WithoutMetricsStream() Option {
	return func(o *options) { o.metricsStream = false }
}

// DetectBackend returns the configured backend, defaulting to remote.
func DetectBackend(cfg *config.Config) config.Backend {
	if cfg == nil || cfg.Backend == "" {
		return config.BackendRemote
	}
	return cfg.Backend
}

// New builds every capability for the configured backend. For the remote
// backend it also starts the metrics stream consumer.
func New(cfg *config.Config, log logger.Logger, opts ...Option) (*Bundle, error) {
	o := options{metricsStream: true}
	for _, opt := range opts {
		opt(&o)
	}

	switch backend := DetectBackend(cfg); backend {
	case config.BackendLocal:
		return newLocal(cfg, log)
	case config.BackendRemote:
		return newRemote(cfg, log, o)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// MustNew is New for main(): an unusable backend configuration is fatal.
func MustNew(cfg *config.Config, log logger.Logger, opts ...Option) *Bundle {
	b, err := New(cfg, log, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize %s backend: %v", DetectBackend(cfg), err))
	}
	return b
}

func newLocal(cfg *config.Config, log logger.Logger) (*Bundle, error) {
	services, err := local.Services(local.Options{
		Binary:          cfg.Coordinator.Binary,
		PreferencesPath: cfg.Preferences.Path,
		Log:             log,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("using local backend (dora binary %q)", cfg.Coordinator.Binary)
	return &Bundle{Backend: config.BackendLocal, Services: services}, nil
}

func newRemote(cfg *config.Config, log logger.Logger, o options) (*Bundle, error) {
	clients, err := protocolclient.NewClients(cfg.ProtocolURL, protocolclient.Options{
		RequestTimeout: cfg.RequestTimeout,
		DialTimeout:    cfg.StreamDialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("protocol clients for %s: %w", cfg.ProtocolURL, err)
	}

	b := &Bundle{
		Backend:  config.BackendRemote,
		Services: clients.Services(),
		Clients:  clients,
	}
	log.Debug("using protocol gateway at %s", clients.Transport().BaseURL())

	if !o.metricsStream {
		return b, nil
	}

	metrics, err := telemetry.NewMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("register telemetry metrics: %w", err)
	}
	b.Metrics = telemetry.StartMetricsCache(func(ctx context.Context) (telemetry.FrameSource, error) {
		stream, err := clients.SystemMetricsStream(ctx)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}, log, metrics)
	b.Services.Telemetry = telemetry.NewCachedTelemetryService(b.Metrics, clients.Telemetry())
	return b, nil
}

// Close stops the background metrics consumer, if any.
func (b *Bundle) Close() error {
	if b.Metrics == nil {
		return nil
	}
	return b.Metrics.Close()
}
