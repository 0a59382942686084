// Package local is the in-process backend. It talks to the dora coordinator
// through the dora CLI, samples host metrics from /proc and keeps preferences
// in a YAML file.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/protocol"
)

// DefaultBinary is the dora CLI looked up on PATH.
const DefaultBinary = "dora"

// DataflowEntry is one dataflow as reported by the coordinator.
type DataflowEntry struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ControlChannel queries the coordinator's control endpoint.
type ControlChannel interface {
	ListRunning(ctx context.Context) ([]DataflowEntry, error)
}

// CLIControlChannel asks the coordinator through `dora list --format json`.
type CLIControlChannel struct {
	Binary string
}

// NewCLIControlChannel returns a control channel using binary, or DefaultBinary if empty.
func NewCLIControlChannel(binary string) *CLIControlChannel {
	if binary == "" {
		binary = DefaultBinary
	}
	return &CLIControlChannel{Binary: binary}
}

func (c *CLIControlChannel) ListRunning(ctx context.Context) ([]DataflowEntry, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, "list", "--format", "json")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s list: %w: %s", c.Binary, err, msg)
		}
		return nil, fmt.Errorf("%s list: %w", c.Binary, err)
	}
	return parseEntries(&stdout)
}

// parseEntries accepts either a JSON array or a sequence of JSON objects,
// one per line, which is what the dora CLI prints.
func parseEntries(r io.Reader) ([]DataflowEntry, error) {
	dec := json.NewDecoder(r)
	entries := []DataflowEntry{}
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, fmt.Errorf("failed to parse dataflow list: %w", err)
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var batch []DataflowEntry
			if err := json.Unmarshal(trimmed, &batch); err != nil {
				return nil, fmt.Errorf("failed to parse dataflow list: %w", err)
			}
			entries = append(entries, batch...)
			continue
		}

		var entry DataflowEntry
		if err := json.Unmarshal(trimmed, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse dataflow entry: %w", err)
		}
		entries = append(entries, entry)
	}
}

// dataflowStatus maps coordinator status names onto the wire status set.
// Names the wire set has no slot for become unknown.
func dataflowStatus(status string) protocol.DataflowStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "starting", "spawning":
		return protocol.DataflowPending
	case "running":
		return protocol.DataflowRunning
	case "stopped", "finished", "succeeded":
		return protocol.DataflowStopped
	case "destroyed":
		return protocol.DataflowDestroyed
	case "failed":
		return protocol.DataflowFailed
	default:
		return protocol.DataflowUnknown
	}
}

// summary converts an entry to the wire summary. It fails for a malformed
// UUID, since there is no identifier to show for the dataflow.
func (e DataflowEntry) summary() (protocol.DataflowSummary, error) {
	id, err := uuid.Parse(e.UUID)
	if err != nil {
		return protocol.DataflowSummary{}, fmt.Errorf("invalid dataflow uuid %q: %w", e.UUID, err)
	}
	var name *string
	if e.Name != "" {
		n := e.Name
		name = &n
	}
	return protocol.DataflowSummary{
		ID:     id,
		Name:   name,
		Status: dataflowStatus(e.Status),
		Nodes:  []protocol.NodeDescriptor{},
	}, nil
}
