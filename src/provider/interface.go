// Package provider defines the capabilities the dashboard depends on.
// Each capability has exactly two implementations: the local backend (direct
// calls into the coordinator and local files) and the remote backend (the
// protocol gateway over HTTP). The bundle package picks one set per process.
package provider

import (
	"context"
)

// CoordinatorClient lists and describes dataflows.
type CoordinatorClient interface {
	// ListDataflows returns every dataflow known to the coordinator.
	ListDataflows(ctx context.Context) ([]DataflowSummary, error)
}

// TelemetryService reads host telemetry.
type TelemetryService interface {
	// LatestMetrics returns the most recent system metrics snapshot.
	LatestMetrics(ctx context.Context) (SystemMetrics, error)
}

// PreferencesStore loads and saves UI preferences.
type PreferencesStore interface {
	Load(ctx context.Context) (UserPreferencesSnapshot, error)
	Save(ctx context.Context, prefs UserPreferencesSnapshot) error
}

// LegacyCLIService runs a dora CLI command on behalf of the dashboard.
// The remote backend never proxies commands and always returns ErrUnimplemented.
type LegacyCLIService interface {
	Execute(ctx context.Context, argv []string, workingDir string) error
}

// Services groups one coherent set of capabilities.
type Services struct {
	Coordinator CoordinatorClient
	Telemetry   TelemetryService
	Preferences PreferencesStore
	LegacyCLI   LegacyCLIService
}
