package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/heyong4725/dora-tui/src/provider"
)

// PreferencesFile is the on-disk layout of the local preferences file.
type PreferencesFile struct {
	Interface InterfacePreferences `json:"interface"`
}

// InterfacePreferences groups the UI sections of the preferences file.
type InterfacePreferences struct {
	TUI   TUIPreferences   `json:"tui"`
	Hints HintsPreferences `json:"hints"`
}

// TUIPreferences holds dashboard settings.
type TUIPreferences struct {
	Theme                   string `json:"theme"`
	AutoRefreshIntervalSecs uint64 `json:"auto_refresh_interval_secs"`
	DefaultView             string `json:"default_view"`
}

// HintsPreferences controls optional on-screen information.
type HintsPreferences struct {
	ShowHints bool `json:"show_hints"`
}

// DefaultPreferences is written when no preferences file exists yet.
func DefaultPreferences() PreferencesFile {
	return PreferencesFile{Interface: InterfacePreferences{
		TUI: TUIPreferences{
			Theme:                   "auto",
			AutoRefreshIntervalSecs: 1,
			DefaultView:             "dashboard",
		},
		Hints: HintsPreferences{ShowHints: true},
	}}
}

// DefaultPreferencesPath returns $XDG_CONFIG_HOME/dora/tui-preferences.yaml
// or its platform equivalent.
func DefaultPreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "dora", "tui-preferences.yaml"), nil
}

// FileStore is a PreferencesStore backed by a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ provider.PreferencesStore = (*FileStore)(nil)

// NewFileStore returns a store for the file at path. The file is created with
// defaults on first load.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the preferences file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (provider.UserPreferencesSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.loadOrCreate()
	if err != nil {
		return provider.UserPreferencesSnapshot{}, provider.Errorf(err, "loading preferences: %v", err)
	}

	view := prefs.Interface.TUI.DefaultView
	snapshot := provider.UserPreferencesSnapshot{
		Theme:                   prefs.Interface.TUI.Theme,
		AutoRefreshIntervalSecs: prefs.Interface.TUI.AutoRefreshIntervalSecs,
		ShowSystemInfo:          prefs.Interface.Hints.ShowHints,
	}
	if view != "" {
		snapshot.DefaultView = &view
	}
	return snapshot, nil
}

// Save merges prefs into the file. The refresh interval is stored as at
// least one second; an empty theme or nil default view keeps the stored value.
func (s *FileStore) Save(ctx context.Context, prefs provider.UserPreferencesSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.loadOrCreate()
	if err != nil {
		return provider.Errorf(err, "saving preferences: %v", err)
	}

	if prefs.Theme != "" {
		stored.Interface.TUI.Theme = prefs.Theme
	}
	stored.Interface.TUI.AutoRefreshIntervalSecs = max(prefs.AutoRefreshIntervalSecs, 1)
	stored.Interface.Hints.ShowHints = prefs.ShowSystemInfo
	if prefs.DefaultView != nil {
		stored.Interface.TUI.DefaultView = *prefs.DefaultView
	}

	if err := s.write(stored); err != nil {
		return provider.Errorf(err, "saving preferences: %v", err)
	}
	return nil
}

func (s *FileStore) loadOrCreate() (PreferencesFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		prefs := DefaultPreferences()
		if err := s.write(prefs); err != nil {
			return PreferencesFile{}, err
		}
		return prefs, nil
	}
	if err != nil {
		return PreferencesFile{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	prefs := DefaultPreferences()
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return PreferencesFile{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return prefs, nil
}

// write replaces the file atomically.
func (s *FileStore) write(prefs PreferencesFile) error {
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(s.path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tui-preferences-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
