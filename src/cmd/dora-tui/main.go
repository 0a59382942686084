// Package main provides the dora-tui command: a terminal dashboard and a set
// of scriptable commands over the dora coordinator, local or remote.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heyong4725/dora-tui/src/bundle"
	"github.com/heyong4725/dora-tui/src/config"
	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/provider"
)

var version = "dev"

var (
	// Path given with --config; empty searches the default locations.
	configPath string
	// Application configuration, loaded before any command runs
	appConfig *config.Config
	// Logger for the current command
	appLogger logger.Logger
	// closeLogger releases the log file, if any
	closeLogger = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dora-tui",
	Short: "Terminal dashboard for dora dataflows",
	Long: `dora-tui observes and controls dora dataflows through the protocol
gateway (remote backend) or the dora CLI on this machine (local backend).

Without a subcommand it opens the interactive dashboard.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		appConfig = cfg

		// The dashboard owns the terminal; only a log file may be written to.
		if isDashboard(cmd) && cfg.Log.Output != "file" {
			appLogger = logger.NewSilentLogger()
			return nil
		}

		log, err := logger.Setup(cfg.Logger())
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		appLogger = log
		closeLogger = log.Close
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogger()
	},
	RunE: runDashboard,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/dora/dora-tui.yaml)")
	flags.String("protocol-url", "", "protocol gateway URL (env DORA_PROTOCOL_URL)")
	flags.String("backend", "", "backend to use: remote or local (env DORA_BACKEND)")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	rootCmd.Flags().StringVar(&dashboardView, "view", "", "initial view: dashboard or logs (default: preference)")

	rootCmd.AddCommand(dashboardCmd, dataflowsCmd, metricsCmd, logsCmd, prefsCmd, execCmd)
}

func isDashboard(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "dashboard"
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newBundle builds the capability bundle for the loaded configuration.
func newBundle(opts ...bundle.Option) (*bundle.Bundle, error) {
	b, err := bundle.New(appConfig, appLogger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", bundle.DetectBackend(appConfig), err)
	}
	return b, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", provider.WrapError(err))
		os.Exit(1)
	}
}
