package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heyong4725/dora-tui/src/broker"
	"github.com/heyong4725/dora-tui/src/bundle"
	"github.com/heyong4725/dora-tui/src/logstream"
	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/patterns"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
	"github.com/heyong4725/dora-tui/src/sanitize"
	"github.com/heyong4725/dora-tui/src/store"
	"github.com/heyong4725/dora-tui/src/tui"
)

var (
	dashboardView string
	jsonOutput    bool
	watchMetrics  bool
	watchInterval time.Duration
	relayLogs     bool
	logsSummary   bool

	prefTheme          string
	prefRefreshSecs    uint64
	prefShowSystemInfo bool
	prefDefaultView    string
)

// dashboardCmd opens the interactive dashboard.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard (default)",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := newBundle()
	if err != nil {
		return err
	}
	defer b.Close()

	opts := tui.Options{Backend: string(b.Backend), View: dashboardView}
	if b.Clients != nil {
		opener := logstream.ClientOpener(b.Clients)
		opts.Follow = func(ctx context.Context, id uuid.UUID) (<-chan protocol.LogEvent, error) {
			return logstream.Follow(ctx, opener, id, appLogger)
		}
	}

	return tui.Start(ctx, b.Services, opts)
}

// dataflowsCmd lists dataflows.
var dataflowsCmd = &cobra.Command{
	Use:     "dataflows",
	Aliases: []string{"ls", "list"},
	Short:   "List dataflows known to the coordinator",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		b, err := newBundle(bundle.WithoutMetricsStream())
		if err != nil {
			return err
		}
		defer b.Close()

		flows, err := b.Services.Coordinator.ListDataflows(ctx)
		if err != nil {
			return err
		}
		return printDataflows(cmd.OutOrStdout(), flows, jsonOutput)
	},
}

func printDataflows(w io.Writer, flows []provider.DataflowSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(flows)
	}
	if len(flows) == 0 {
		fmt.Fprintln(w, "No dataflows running.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tNODES")
	for _, df := range flows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", df.ID, df.Name, df.Status, len(df.Nodes))
	}
	return tw.Flush()
}

// metricsCmd prints host metrics.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the latest system metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		var opts []bundle.Option
		if !watchMetrics {
			opts = append(opts, bundle.WithoutMetricsStream())
		}
		b, err := newBundle(opts...)
		if err != nil {
			return err
		}
		defer b.Close()

		out := cmd.OutOrStdout()
		for {
			m, err := b.Services.Telemetry.LatestMetrics(ctx)
			if err != nil {
				return err
			}
			printMetrics(out, m, time.Now())
			if !watchMetrics {
				return nil
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(watchInterval):
			}
		}
	},
}

func printMetrics(w io.Writer, m provider.SystemMetrics, now time.Time) {
	line := fmt.Sprintf("cpu=%.1f%% mem=%.1f%% used=%s total=%s free=%s",
		m.CPUUsage, m.MemoryUsage,
		tui.FormatBytes(m.Memory.UsedBytes), tui.FormatBytes(m.Memory.TotalBytes), tui.FormatBytes(m.Memory.FreeBytes))
	if m.LoadAverage != nil {
		line += fmt.Sprintf(" load=%.2f/%.2f/%.2f", m.LoadAverage.One, m.LoadAverage.Five, m.LoadAverage.Fifteen)
	}
	if !m.Timestamp.IsZero() {
		line += fmt.Sprintf(" age=%s", now.Sub(m.Timestamp).Truncate(time.Millisecond))
	}
	fmt.Fprintln(w, line)
}

// logsCmd follows the logs of a dataflow.
var logsCmd = &cobra.Command{
	Use:   "logs <dataflow-id>",
	Short: "Follow the log stream of a dataflow (remote backend)",
	Long: `Follows the log stream of a dataflow until it ends or Ctrl-C.

With --relay every event is also published to the relay topic (Redpanda when
relay.brokers is set) and archived (Postgres when relay.postgres_dsn is set).
With --summary the followed lines are grouped by pattern and printed once the
stream stops.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid dataflow id %q: %w", args[0], err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		b, err := newBundle(bundle.WithoutMetricsStream())
		if err != nil {
			return err
		}
		defer b.Close()
		if b.Clients == nil {
			return errors.New("log streaming needs the remote backend")
		}

		events, err := logstream.Follow(ctx, logstream.ClientOpener(b.Clients), id, appLogger)
		if err != nil {
			return err
		}

		var (
			msgBroker broker.Broker
			archive   store.Store
		)
		if relayLogs {
			// An in-memory broker would have no reader outside this process.
			if len(appConfig.Relay.Brokers) == 0 {
				appLogger.Info("no relay brokers configured, log events are only archived")
			} else {
				rp, err := broker.NewRedpandaBroker(appConfig.Relay.Brokers, appLogger)
				if err != nil {
					return fmt.Errorf("failed to create relay broker: %w", err)
				}
				defer rp.Close()
				msgBroker = rp
			}

			archive, err = store.New(appConfig.Relay.PostgresDSN)
			if err != nil {
				return fmt.Errorf("failed to create log archive: %w", err)
			}
			defer archive.Close()
		}

		out := cmd.OutOrStdout()
		var seen []protocol.LogEvent
		taps := []func(protocol.LogEvent){func(e protocol.LogEvent) { printLogEvent(out, e) }}
		if logsSummary {
			taps = append(taps, func(e protocol.LogEvent) { seen = append(seen, e) })
		}

		relay := logstream.NewRelay(msgBroker, archive, appConfig.Relay.Topic, appLogger)
		n, err := relay.Run(ctx, id, events, taps...)
		switch {
		case msgBroker != nil:
			appLogger.Info("relayed %d log events to %s", n, appConfig.Relay.Topic)
		case relayLogs:
			appLogger.Info("archived %d log events", n)
		}
		if logsSummary {
			printSummary(out, patterns.Summarize(seen))
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func printLogEvent(w io.Writer, e protocol.LogEvent) {
	node := "-"
	if e.Node != nil {
		node = *e.Node
	}
	fmt.Fprintf(w, "%s %-5s %s %s\n",
		e.Timestamp.Local().Format(time.RFC3339Nano), mapping.LogLevel(e.Level), node, sanitize.LogLine(e.Line))
}

func printSummary(w io.Writer, groups []patterns.Group) {
	signal, noise := patterns.Counts(groups)
	fmt.Fprintf(w, "\n%d patterns (%d signal, %d noise)\n", len(groups), signal, noise)
	if len(groups) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNT\tLEVEL\tTIER\tNODES\tPATTERN")
	for _, g := range groups {
		nodes := "-"
		if len(g.Nodes) > 0 {
			nodes = strings.Join(g.Nodes, ",")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", g.Count, mapping.LogLevel(g.Level), g.Tier, nodes, g.Pattern)
	}
	tw.Flush()
}

// prefsCmd groups preference commands.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change dashboard preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the persisted preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		b, err := newBundle(bundle.WithoutMetricsStream())
		if err != nil {
			return err
		}
		defer b.Close()

		prefs, err := b.Services.Preferences.Load(ctx)
		if err != nil {
			return err
		}
		return printPrefs(cmd.OutOrStdout(), prefs)
	},
}

func printPrefs(w io.Writer, prefs provider.UserPreferencesSnapshot) error {
	view := "-"
	if prefs.DefaultView != nil {
		view = *prefs.DefaultView
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "theme\t%s\n", prefs.Theme)
	fmt.Fprintf(tw, "refresh-interval\t%ds\n", prefs.AutoRefreshIntervalSecs)
	fmt.Fprintf(tw, "show-system-info\t%t\n", prefs.ShowSystemInfo)
	fmt.Fprintf(tw, "default-view\t%s\n", view)
	return tw.Flush()
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change preferences; unset flags keep their stored values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		b, err := newBundle(bundle.WithoutMetricsStream())
		if err != nil {
			return err
		}
		defer b.Close()

		prefs, err := b.Services.Preferences.Load(ctx)
		if err != nil {
			return err
		}
		prefs = applyPrefFlags(cmd, prefs)

		if err := b.Services.Preferences.Save(ctx, prefs); err != nil {
			return err
		}
		return printPrefs(cmd.OutOrStdout(), prefs)
	},
}

// applyPrefFlags overlays the flags the user set on prefs.
func applyPrefFlags(cmd *cobra.Command, prefs provider.UserPreferencesSnapshot) provider.UserPreferencesSnapshot {
	flags := cmd.Flags()
	if flags.Changed("theme") {
		prefs.Theme = prefTheme
	}
	if flags.Changed("refresh-interval") {
		prefs.AutoRefreshIntervalSecs = prefRefreshSecs
	}
	if flags.Changed("show-system-info") {
		prefs.ShowSystemInfo = prefShowSystemInfo
	}
	if flags.Changed("default-view") {
		view := prefDefaultView
		prefs.DefaultView = &view
	}
	return prefs
}

// execCmd runs a dora CLI command through the legacy command capability.
var execCmd = &cobra.Command{
	Use:   "exec -- <dora args...>",
	Short: "Run a dora CLI command (local backend)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		b, err := newBundle(bundle.WithoutMetricsStream())
		if err != nil {
			return err
		}
		defer b.Close()

		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		return b.Services.LegacyCLI.Execute(ctx, args, wd)
	},
}

func init() {
	dataflowsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")

	metricsCmd.Flags().BoolVarP(&watchMetrics, "watch", "w", false, "keep printing metrics until interrupted")
	metricsCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "print interval with --watch")

	logsCmd.Flags().BoolVar(&relayLogs, "relay", false, "archive followed events and publish them to the configured Redpanda brokers")
	logsCmd.Flags().BoolVar(&logsSummary, "summary", false, "print a pattern summary when the stream stops")

	dashboardCmd.Flags().StringVar(&dashboardView, "view", "", "initial view: dashboard or logs (default: preference)")

	prefsSetCmd.Flags().StringVar(&prefTheme, "theme", "", "theme: auto, dark or light")
	prefsSetCmd.Flags().Uint64Var(&prefRefreshSecs, "refresh-interval", 1, "auto refresh interval in seconds")
	prefsSetCmd.Flags().BoolVar(&prefShowSystemInfo, "show-system-info", true, "show system metrics in the dashboard")
	prefsSetCmd.Flags().StringVar(&prefDefaultView, "default-view", "", "view opened at startup: dashboard or logs")
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd)
}
