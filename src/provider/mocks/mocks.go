// Package mocks provides function-backed test doubles for the provider capabilities.
package mocks

import (
	"context"
	"sync"

	"github.com/heyong4725/dora-tui/src/provider"
)

// CoordinatorClient is a mock implementation of provider.CoordinatorClient
type CoordinatorClient struct {
	ListDataflowsFunc func(ctx context.Context) ([]provider.DataflowSummary, error)
}

// ListDataflows mocks the ListDataflows method
func (m *CoordinatorClient) ListDataflows(ctx context.Context) ([]provider.DataflowSummary, error) {
	if m.ListDataflowsFunc != nil {
		return m.ListDataflowsFunc(ctx)
	}
	return []provider.DataflowSummary{}, nil
}

// TelemetryService is a mock implementation of provider.TelemetryService
type TelemetryService struct {
	LatestMetricsFunc func(ctx context.Context) (provider.SystemMetrics, error)
}

// LatestMetrics mocks the LatestMetrics method
func (m *TelemetryService) LatestMetrics(ctx context.Context) (provider.SystemMetrics, error) {
	if m.LatestMetricsFunc != nil {
		return m.LatestMetricsFunc(ctx)
	}
	return provider.SystemMetrics{}, nil
}

// PreferencesStore is an in-memory provider.PreferencesStore that records saves.
type PreferencesStore struct {
	mu       sync.Mutex
	LoadFunc func(ctx context.Context) (provider.UserPreferencesSnapshot, error)
	SaveFunc func(ctx context.Context, prefs provider.UserPreferencesSnapshot) error
	Saved    []provider.UserPreferencesSnapshot
}

// Load mocks the Load method
func (m *PreferencesStore) Load(ctx context.Context) (provider.UserPreferencesSnapshot, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return provider.UserPreferencesSnapshot{Theme: "auto", AutoRefreshIntervalSecs: 1, ShowSystemInfo: true}, nil
}

// Save mocks the Save method
func (m *PreferencesStore) Save(ctx context.Context, prefs provider.UserPreferencesSnapshot) error {
	m.mu.Lock()
	m.Saved = append(m.Saved, prefs)
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, prefs)
	}
	return nil
}

// SavedSnapshots returns a copy of every snapshot passed to Save.
func (m *PreferencesStore) SavedSnapshots() []provider.UserPreferencesSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]provider.UserPreferencesSnapshot, len(m.Saved))
	copy(out, m.Saved)
	return out
}

// LegacyCLIService is a mock implementation of provider.LegacyCLIService
type LegacyCLIService struct {
	ExecuteFunc func(ctx context.Context, argv []string, workingDir string) error
}

// Execute mocks the Execute method
func (m *LegacyCLIService) Execute(ctx context.Context, argv []string, workingDir string) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, argv, workingDir)
	}
	return nil
}

// Services returns a provider.Services backed by fresh mocks.
func Services() (provider.Services, *CoordinatorClient, *TelemetryService, *PreferencesStore) {
	coord := &CoordinatorClient{}
	telemetry := &TelemetryService{}
	prefs := &PreferencesStore{}
	return provider.Services{
		Coordinator: coord,
		Telemetry:   telemetry,
		Preferences: prefs,
		LegacyCLI:   &LegacyCLIService{},
	}, coord, telemetry, prefs
}
