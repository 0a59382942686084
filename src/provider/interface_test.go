package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/heyong4725/dora-tui/src/provider"
	"github.com/heyong4725/dora-tui/src/provider/mocks"
)

var (
	_ provider.CoordinatorClient = (*mocks.CoordinatorClient)(nil)
	_ provider.TelemetryService  = (*mocks.TelemetryService)(nil)
	_ provider.PreferencesStore  = (*mocks.PreferencesStore)(nil)
	_ provider.LegacyCLIService  = (*mocks.LegacyCLIService)(nil)
)

func TestServices_MockDefaults(t *testing.T) {
	services, coord, _, prefs := mocks.Services()
	ctx := context.Background()

	coord.ListDataflowsFunc = func(ctx context.Context) ([]provider.DataflowSummary, error) {
		return []provider.DataflowSummary{{ID: "df-1", Name: "demo", Status: "running"}}, nil
	}

	flows, err := services.Coordinator.ListDataflows(ctx)
	if err != nil {
		t.Fatalf("ListDataflows() error = %v", err)
	}
	if len(flows) != 1 || flows[0].Name != "demo" {
		t.Errorf("ListDataflows() = %+v, want one dataflow named demo", flows)
	}

	loaded, err := services.Preferences.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Theme != "auto" {
		t.Errorf("Load().Theme = %q, want auto", loaded.Theme)
	}

	if err := services.Preferences.Save(ctx, provider.UserPreferencesSnapshot{Theme: "dark"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	saved := prefs.SavedSnapshots()
	if len(saved) != 1 || saved[0].Theme != "dark" {
		t.Errorf("SavedSnapshots() = %+v, want one dark snapshot", saved)
	}
}

func TestServices_ErrorsPropagate(t *testing.T) {
	services, _, telemetry, _ := mocks.Services()
	want := provider.Errorf(errors.New("stream closed"), "telemetry unavailable")
	telemetry.LatestMetricsFunc = func(ctx context.Context) (provider.SystemMetrics, error) {
		return provider.SystemMetrics{}, want
	}

	_, err := services.Telemetry.LatestMetrics(context.Background())
	var ie *provider.InterfaceError
	if !errors.As(err, &ie) {
		t.Fatalf("LatestMetrics() error = %T, want *provider.InterfaceError", err)
	}
	if ie.Message != "telemetry unavailable" {
		t.Errorf("Message = %q, want %q", ie.Message, "telemetry unavailable")
	}
}
