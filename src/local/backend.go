package local

import (
	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/provider"
)

// Services returns the all-local capability set.
func Services(opts Options) (provider.Services, error) {
	prefsPath := opts.PreferencesPath
	if prefsPath == "" {
		p, err := DefaultPreferencesPath()
		if err != nil {
			return provider.Services{}, err
		}
		prefsPath = p
	}

	control := opts.Control
	if control == nil {
		control = NewCLIControlChannel(opts.Binary)
	}

	return provider.Services{
		Coordinator: NewCoordinator(control, opts.Log),
		Telemetry:   NewTelemetry(NewSampler(opts.ProcRoot)),
		Preferences: NewFileStore(prefsPath),
		LegacyCLI:   NewLegacyCLI(opts.Binary),
	}, nil
}

// Options configures the local backend. Zero values select the defaults.
type Options struct {
	Binary          string
	PreferencesPath string
	ProcRoot        string
	Control         ControlChannel
	Log             logger.Logger
}
