// Package mapping translates protocol wire DTOs into the shapes the dashboard renders.
// Every function here is pure.
package mapping

import (
	"fmt"
	"strings"
	"time"

	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
)

// DefaultTheme is used when the stored preferences carry no theme.
const DefaultTheme = "auto"

// Dataflow maps a wire summary to the UI summary.
func Dataflow(summary protocol.DataflowSummary) provider.DataflowSummary {
	id := summary.ID.String()
	name := id
	if summary.Name != nil {
		name = *summary.Name
	}

	nodes := make([]provider.NodeSummary, 0, len(summary.Nodes))
	for _, node := range summary.Nodes {
		nodes = append(nodes, Node(node))
	}

	return provider.DataflowSummary{
		ID:        id,
		Name:      name,
		Status:    DataflowStatus(summary.Status),
		UpdatedAt: summary.UpdatedAt,
		Nodes:     nodes,
	}
}

// Dataflows maps a list of wire summaries, keeping order.
func Dataflows(list []protocol.DataflowSummary) []provider.DataflowSummary {
	out := make([]provider.DataflowSummary, 0, len(list))
	for _, summary := range list {
		out = append(out, Dataflow(summary))
	}
	return out
}

// Node maps a wire node descriptor to the UI node summary.
func Node(node protocol.NodeDescriptor) provider.NodeSummary {
	var name string
	if node.Name != nil {
		name = *node.Name
	}
	return provider.NodeSummary{
		ID:          node.ID,
		Name:        name,
		Status:      NodeStatus(node.Status),
		Kind:        NodeKind(node.Kind),
		Description: node.Description,
		Inputs:      node.Inputs,
		Outputs:     node.Outputs,
		Source:      DescribeNodeSource(node.Source),
	}
}

// DescribeNodeSource collapses a node source into one display string.
// It returns nil for the unknown variant and for a local source without a path.
func DescribeNodeSource(src protocol.NodeSource) *string {
	var s string
	switch src.Type {
	case protocol.SourceLocal:
		return src.Path
	case protocol.SourceGit:
		s = src.Repo
		if src.Rev != nil {
			s = fmt.Sprintf("%s (%s)", src.Repo, *src.Rev)
		}
	case protocol.SourceWasm:
		s = src.Module
	case protocol.SourcePython:
		s = src.Module
		if src.Environment != nil {
			s = fmt.Sprintf("%s (env: %s)", src.Module, *src.Environment)
		}
	default:
		return nil
	}
	return &s
}

// DataflowStatus returns the display string for a dataflow status.
func DataflowStatus(status protocol.DataflowStatus) string {
	switch status {
	case protocol.DataflowPending:
		return "pending"
	case protocol.DataflowRunning:
		return "running"
	case protocol.DataflowStopped:
		return "stopped"
	case protocol.DataflowDestroyed:
		return "destroyed"
	case protocol.DataflowFailed:
		return "failed"
	case protocol.DataflowUnknown:
		return "unknown"
	}
	// Unreachable for decoded values: the protocol package rejects unknown and missing variants.
	panic(fmt.Sprintf("mapping: unhandled dataflow status %q", string(status)))
}

// NodeStatus returns the display string for a node status.
func NodeStatus(status protocol.NodeStatus) string {
	switch status {
	case protocol.NodeInitializing:
		return "initializing"
	case protocol.NodeRunning:
		return "running"
	case protocol.NodeStopped:
		return "stopped"
	case protocol.NodeFailed:
		return "failed"
	case protocol.NodeUnknown:
		return "unknown"
	}
	panic(fmt.Sprintf("mapping: unhandled node status %q", string(status)))
}

// NodeKind returns the display string for a node kind.
func NodeKind(kind protocol.NodeKind) string {
	switch kind {
	case protocol.NodeKindRuntime:
		return "runtime"
	case protocol.NodeKindOperator:
		return "operator"
	case protocol.NodeKindCustom:
		return "custom"
	}
	panic(fmt.Sprintf("mapping: unhandled node kind %q", string(kind)))
}

// LogLevel returns the display string for a log level.
func LogLevel(level protocol.LogLevel) string {
	switch level {
	case protocol.LogTrace:
		return "trace"
	case protocol.LogDebug:
		return "debug"
	case protocol.LogInfo:
		return "info"
	case protocol.LogWarn:
		return "warn"
	case protocol.LogError:
		return "error"
	}
	panic(fmt.Sprintf("mapping: unhandled log level %q", string(level)))
}

// SaturatingSub returns a-b, or 0 when b > a.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// Metrics maps a wire metrics snapshot. receivedAt records when this process got it.
func Metrics(snapshot protocol.SystemMetrics, receivedAt time.Time) provider.SystemMetrics {
	var load *provider.LoadAverages
	if snapshot.LoadAverage != nil {
		avg := *snapshot.LoadAverage
		load = &provider.LoadAverages{
			One:     float64(avg[0]),
			Five:    float64(avg[1]),
			Fifteen: float64(avg[2]),
		}
	}

	return provider.SystemMetrics{
		CPUUsage:    snapshot.CPUPercent,
		MemoryUsage: snapshot.MemoryPercent,
		Memory: provider.MemoryMetrics{
			TotalBytes:   snapshot.TotalMemoryBytes,
			UsedBytes:    snapshot.UsedMemoryBytes,
			FreeBytes:    SaturatingSub(snapshot.TotalMemoryBytes, snapshot.UsedMemoryBytes),
			UsagePercent: snapshot.MemoryPercent,
		},
		LoadAverage: load,
		Timestamp:   snapshot.Timestamp,
		LastUpdate:  receivedAt,
	}
}

// PreferencesToUI maps stored preferences to the UI snapshot.
// The three-state auto_refresh flag collapses to a 0 or 1 second interval;
// an unset flag counts as enabled.
func PreferencesToUI(snapshot protocol.UserPreferencesSnapshot) provider.UserPreferencesSnapshot {
	theme := DefaultTheme
	if snapshot.Theme != nil {
		theme = *snapshot.Theme
	}

	autoRefresh := true
	if snapshot.AutoRefresh != nil {
		autoRefresh = *snapshot.AutoRefresh
	}

	var interval uint64
	if autoRefresh {
		interval = 1
	}

	var defaultView *string
	if snapshot.UIMode != nil {
		view := strings.ToLower(string(*snapshot.UIMode))
		defaultView = &view
	}

	return provider.UserPreferencesSnapshot{
		Theme:                   theme,
		AutoRefreshIntervalSecs: interval,
		ShowSystemInfo:          autoRefresh,
		DefaultView:             defaultView,
	}
}

// PreferencesToWire maps the UI snapshot back to the wire form. Only the
// boolean survives: any positive interval becomes auto_refresh=true. ui_mode
// is left unset so the stored value is kept.
func PreferencesToWire(prefs provider.UserPreferencesSnapshot, now time.Time) protocol.UserPreferencesSnapshot {
	theme := prefs.Theme
	autoRefresh := prefs.AutoRefreshIntervalSecs > 0
	return protocol.UserPreferencesSnapshot{
		Theme:       &theme,
		UIMode:      nil,
		AutoRefresh: &autoRefresh,
		UpdatedAt:   now,
	}
}
