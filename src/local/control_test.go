package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
)

// writeScript creates an executable shell script standing in for the dora CLI.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "dora")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []DataflowEntry
		wantErr bool
	}{
		{
			name:  "json lines",
			input: "{\"uuid\":\"a\",\"name\":\"demo\",\"status\":\"Running\"}\n{\"uuid\":\"b\",\"status\":\"Failed\"}\n",
			want:  []DataflowEntry{{UUID: "a", Name: "demo", Status: "Running"}, {UUID: "b", Status: "Failed"}},
		},
		{
			name:  "json array",
			input: `[{"uuid":"a","name":"demo","status":"Running"}]`,
			want:  []DataflowEntry{{UUID: "a", Name: "demo", Status: "Running"}},
		},
		{
			name:  "no dataflows",
			input: "",
			want:  []DataflowEntry{},
		},
		{
			name:    "not json",
			input:   "UUID NAME STATUS\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEntries(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataflowStatus(t *testing.T) {
	tests := map[string]protocol.DataflowStatus{
		"Running":   protocol.DataflowRunning,
		"running":   protocol.DataflowRunning,
		"Spawning":  protocol.DataflowPending,
		"Finished":  protocol.DataflowStopped,
		"Succeeded": protocol.DataflowStopped,
		"Failed":    protocol.DataflowFailed,
		"Destroyed": protocol.DataflowDestroyed,
		"Paused":    protocol.DataflowUnknown,
		"":          protocol.DataflowUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, dataflowStatus(in), "status %q", in)
	}
}

func TestCLIControlChannel_ListRunning(t *testing.T) {
	script := writeScript(t, `[ "$1" = "list" ] && [ "$2" = "--format" ] && [ "$3" = "json" ] || exit 2
echo '{"uuid":"6f1c2f0e-8b4a-4c55-9d53-0c1f9a3f1e21","name":"demo","status":"Running"}'`)

	entries, err := NewCLIControlChannel(script).ListRunning(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "demo", entries[0].Name)
}

func TestCLIControlChannel_Failure(t *testing.T) {
	script := writeScript(t, `echo "could not connect to dora coordinator" >&2
exit 1`)

	_, err := NewCLIControlChannel(script).ListRunning(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect to dora coordinator")
}

type fakeControl struct {
	entries []DataflowEntry
	err     error
}

func (f fakeControl) ListRunning(ctx context.Context) ([]DataflowEntry, error) {
	return f.entries, f.err
}

type recordingLogger struct {
	warns []string
}

func (l *recordingLogger) Info(msg string, args ...interface{})  {}
func (l *recordingLogger) Error(msg string, args ...interface{}) {}
func (l *recordingLogger) Debug(msg string, args ...interface{}) {}
func (l *recordingLogger) Warn(msg string, args ...interface{}) {
	l.warns = append(l.warns, fmt.Sprintf(msg, args...))
}

func TestCoordinator_ListDataflows(t *testing.T) {
	queried := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	coord := NewCoordinator(fakeControl{entries: []DataflowEntry{
		{UUID: "6f1c2f0e-8b4a-4c55-9d53-0c1f9a3f1e21", Name: "demo", Status: "Running"},
		{UUID: "7a2d3e1f-9c5b-4d66-8e64-1d2f0b4a2f32", Status: "Finished"},
	}}, nil)
	coord.now = func() time.Time { return queried }

	flows, err := coord.ListDataflows(context.Background())
	require.NoError(t, err)
	require.Len(t, flows, 2)

	assert.Equal(t, "6f1c2f0e-8b4a-4c55-9d53-0c1f9a3f1e21", flows[0].ID)
	assert.Equal(t, "demo", flows[0].Name)
	assert.Equal(t, "running", flows[0].Status)
	assert.Equal(t, queried, flows[0].UpdatedAt)

	assert.Equal(t, "7a2d3e1f-9c5b-4d66-8e64-1d2f0b4a2f32", flows[1].ID)
	assert.Equal(t, flows[1].ID, flows[1].Name, "unnamed dataflows show their id")
	assert.Equal(t, "stopped", flows[1].Status)
}

func TestCoordinator_SkipsMalformedUUIDs(t *testing.T) {
	log := &recordingLogger{}
	coord := NewCoordinator(fakeControl{entries: []DataflowEntry{
		{UUID: "not-a-uuid", Name: "broken", Status: "Running"},
		{UUID: "6f1c2f0e-8b4a-4c55-9d53-0c1f9a3f1e21", Name: "demo", Status: "Running"},
		{UUID: "", Name: "blank", Status: "Failed"},
	}}, log)

	flows, err := coord.ListDataflows(context.Background())
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "6f1c2f0e-8b4a-4c55-9d53-0c1f9a3f1e21", flows[0].ID)

	require.Len(t, log.warns, 2)
	assert.Contains(t, log.warns[0], "broken")
	assert.Contains(t, log.warns[1], "blank")
}

func TestCoordinator_ErrorBecomesInterfaceError(t *testing.T) {
	boom := errors.New("coordinator unreachable")
	_, err := NewCoordinator(fakeControl{err: boom}, nil).ListDataflows(context.Background())

	var ie *provider.InterfaceError
	require.True(t, errors.As(err, &ie))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, ie.Message, "coordinator unreachable")
}
