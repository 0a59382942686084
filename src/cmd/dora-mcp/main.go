// Package main provides the MCP server entry point for dora-tui.
// The server speaks the Model Context Protocol over stdio and exposes the
// dataflow, metrics, preferences and archived log capabilities as tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/heyong4725/dora-tui/src/broker"
	"github.com/heyong4725/dora-tui/src/bundle"
	"github.com/heyong4725/dora-tui/src/config"
	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/logstream"
	"github.com/heyong4725/dora-tui/src/mcp"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
	"github.com/heyong4725/dora-tui/src/store"
)

var version = "dev"

// archiveGroup is the consumer group that moves relayed events into the archive.
const archiveGroup = "dora-mcp-archive"

var (
	configPath string
	followLogs bool
)

var rootCmd = &cobra.Command{
	Use:           "dora-mcp",
	Short:         "MCP server exposing dora dataflows to LLM clients",
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/dora/dora-tui.yaml)")
	flags.String("protocol-url", "", "protocol gateway URL (env DORA_PROTOCOL_URL)")
	flags.String("backend", "", "backend to use: remote or local (env DORA_BACKEND)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&followLogs, "follow-logs", true, "archive the logs of running dataflows for recent_logs (remote backend)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	// stdout carries the protocol.
	logCfg := cfg.Logger()
	if logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	log, err := logger.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer log.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := bundle.New(cfg, log, bundle.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		return fmt.Errorf("failed to initialize %s backend: %w", bundle.DetectBackend(cfg), err)
	}
	defer b.Close()

	archive, err := store.New(cfg.Relay.PostgresDSN)
	if err != nil {
		return fmt.Errorf("failed to create log archive: %w", err)
	}
	defer archive.Close()

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, log)
		defer stop()
	}

	if followLogs && b.Clients != nil {
		msgBroker, err := broker.New(cfg.Relay.Brokers, log)
		if err != nil {
			return fmt.Errorf("failed to create relay broker: %w", err)
		}
		defer msgBroker.Close()

		// Events reach the archive through the broker, so several relays
		// sharing a Redpanda topic feed one archiver group.
		msgs, err := msgBroker.Subscribe(ctx, cfg.Relay.Topic, archiveGroup)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", cfg.Relay.Topic, err)
		}
		go func() {
			n := logstream.Archive(ctx, msgs, archive, log)
			log.Debug("archiver stopped after %d events", n)
		}()

		relay := logstream.NewRelay(msgBroker, nil, cfg.Relay.Topic, log)
		go archiveRunning(ctx, b.Services.Coordinator, logstream.ClientOpener(b.Clients), relay, log)
	}

	log.Info("dora-mcp %s serving on stdio (%s backend)", version, b.Backend)
	server := mcp.NewServer(b.Services, archive, version)
	return server.Run()
}

// archiveRunning follows every dataflow running at startup and relays its
// logs to the archiver until ctx is cancelled.
func archiveRunning(ctx context.Context, coord provider.CoordinatorClient, open logstream.Opener, relay *logstream.Relay, log logger.Logger) {
	flows, err := coord.ListDataflows(ctx)
	if err != nil {
		log.Warn("failed to list dataflows, log archive stays empty: %v", err)
		return
	}

	for _, df := range flows {
		if df.Status != "running" {
			continue
		}
		id, err := uuid.Parse(df.ID)
		if err != nil {
			continue
		}
		events, err := logstream.Follow(ctx, open, id, log)
		if err != nil {
			log.Warn("failed to follow logs of %s: %v", df.Name, err)
			continue
		}
		go relayFlow(ctx, relay, id, df.Name, events, log)
	}
}

// relayFlow relays one dataflow's events until they end or ctx is cancelled.
func relayFlow(ctx context.Context, relay *logstream.Relay, id uuid.UUID, name string, events <-chan protocol.LogEvent, log logger.Logger) {
	n, err := relay.Run(ctx, id, events)
	log.Debug("stopped relaying %s after %d events: %v", name, n, err)
}

// serveMetrics exposes Prometheus metrics on addr until the returned func is called.
func serveMetrics(addr string, log logger.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed: %v", err)
		}
	}()
	log.Info("serving metrics on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", provider.WrapError(err))
		os.Exit(1)
	}
}
