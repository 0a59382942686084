package protocolclient

import (
	"context"
	"time"

	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
)

var (
	_ provider.CoordinatorClient = (*RemoteCoordinator)(nil)
	_ provider.TelemetryService  = (*RemoteTelemetry)(nil)
	_ provider.PreferencesStore  = (*RemotePreferences)(nil)
	_ provider.LegacyCLIService  = (*RemoteLegacyCLI)(nil)
)

// RemoteCoordinator lists dataflows through the gateway.
type RemoteCoordinator struct {
	transport *Transport
}

func (c *RemoteCoordinator) ListDataflows(ctx context.Context) ([]provider.DataflowSummary, error) {
	var list []protocol.DataflowSummary
	if err := c.transport.Get(ctx, dataflowsPath, &list); err != nil {
		return nil, provider.Errorf(err, "listing dataflows: %v", err)
	}
	return mapping.Dataflows(list), nil
}

// RemoteTelemetry fetches a single metrics snapshot per call.
type RemoteTelemetry struct {
	transport *Transport
	now       func() time.Time
}

func (t *RemoteTelemetry) LatestMetrics(ctx context.Context) (provider.SystemMetrics, error) {
	var snapshot protocol.SystemMetrics
	if err := t.transport.Get(ctx, metricsPath, &snapshot); err != nil {
		return provider.SystemMetrics{}, provider.Errorf(err, "fetching system metrics: %v", err)
	}
	return mapping.Metrics(snapshot, t.now()), nil
}

// RemotePreferences loads and saves UI preferences on the gateway.
type RemotePreferences struct {
	transport *Transport
	now       func() time.Time
}

func (p *RemotePreferences) Load(ctx context.Context) (provider.UserPreferencesSnapshot, error) {
	var snapshot protocol.UserPreferencesSnapshot
	if err := p.transport.Get(ctx, preferencesPath, &snapshot); err != nil {
		return provider.UserPreferencesSnapshot{}, provider.Errorf(err, "loading preferences: %v", err)
	}
	return mapping.PreferencesToUI(snapshot), nil
}

// Save sends theme and auto_refresh. ui_mode is sent unset so the gateway
// keeps the stored value.
func (p *RemotePreferences) Save(ctx context.Context, prefs provider.UserPreferencesSnapshot) error {
	snapshot := mapping.PreferencesToWire(prefs, p.now().UTC())
	if err := p.transport.Put(ctx, preferencesPath, snapshot); err != nil {
		return provider.Errorf(err, "saving preferences: %v", err)
	}
	return nil
}

// RemoteLegacyCLI stands in for command execution, which the gateway does not offer.
type RemoteLegacyCLI struct{}

func (RemoteLegacyCLI) Execute(ctx context.Context, argv []string, workingDir string) error {
	return provider.Unimplemented("legacy command execution")
}
