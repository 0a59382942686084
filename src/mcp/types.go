// Package mcp exposes the dashboard capabilities as MCP tools.
package mcp

import (
	"time"

	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/patterns"
	"github.com/heyong4725/dora-tui/src/provider"
)

// Dataflow is the list_dataflows tool output for one dataflow.
type Dataflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	Nodes     []Node    `json:"nodes"`
}

// Node is one node of a Dataflow.
type Node struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Kind    string   `json:"kind"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
	Source  *string  `json:"source,omitempty"`
}

// Metrics is the system_metrics tool output.
type Metrics struct {
	CPUPercent    float32    `json:"cpu_percent"`
	MemoryPercent float32    `json:"memory_percent"`
	TotalBytes    uint64     `json:"total_memory_bytes"`
	UsedBytes     uint64     `json:"used_memory_bytes"`
	FreeBytes     uint64     `json:"free_memory_bytes"`
	LoadAverage   []float64  `json:"load_average,omitempty"`
	SampledAt     time.Time  `json:"sampled_at"`
	AgeSeconds    float64    `json:"age_seconds"`
	ReceivedAt    *time.Time `json:"received_at,omitempty"`
}

// Preferences is the get_preferences tool output.
type Preferences struct {
	Theme                   string  `json:"theme"`
	AutoRefreshIntervalSecs uint64  `json:"auto_refresh_interval_secs"`
	ShowSystemInfo          bool    `json:"show_system_info"`
	DefaultView             *string `json:"default_view,omitempty"`
}

// LogLine is one entry of the recent_logs tool output.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Node      *string   `json:"node,omitempty"`
	Line      string    `json:"line"`
}

// PatternGroup is one entry of the log_summary tool output.
type PatternGroup struct {
	Pattern   string    `json:"pattern"`
	Level     string    `json:"level"`
	Tier      string    `json:"tier"`
	Count     int       `json:"count"`
	Nodes     []string  `json:"nodes,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Example   string    `json:"example"`
}

// LogSummary is the log_summary tool output.
type LogSummary struct {
	DataflowID string         `json:"dataflow_id"`
	Events     int            `json:"events"`
	Signal     int            `json:"signal_patterns"`
	Noise      int            `json:"noise_patterns"`
	Groups     []PatternGroup `json:"groups"`
	Truncated  bool           `json:"truncated,omitempty"`
}

func toDataflows(list []provider.DataflowSummary) []Dataflow {
	out := make([]Dataflow, 0, len(list))
	for _, df := range list {
		nodes := make([]Node, 0, len(df.Nodes))
		for _, n := range df.Nodes {
			nodes = append(nodes, Node{
				ID:      n.ID,
				Name:    n.Name,
				Status:  n.Status,
				Kind:    n.Kind,
				Inputs:  n.Inputs,
				Outputs: n.Outputs,
				Source:  n.Source,
			})
		}
		out = append(out, Dataflow{
			ID:        df.ID,
			Name:      df.Name,
			Status:    df.Status,
			UpdatedAt: df.UpdatedAt,
			Nodes:     nodes,
		})
	}
	return out
}

func toMetrics(m provider.SystemMetrics, now time.Time) Metrics {
	out := Metrics{
		CPUPercent:    m.CPUUsage,
		MemoryPercent: m.MemoryUsage,
		TotalBytes:    m.Memory.TotalBytes,
		UsedBytes:     m.Memory.UsedBytes,
		FreeBytes:     m.Memory.FreeBytes,
		SampledAt:     m.Timestamp,
		AgeSeconds:    now.Sub(m.Timestamp).Seconds(),
	}
	if m.LoadAverage != nil {
		out.LoadAverage = []float64{m.LoadAverage.One, m.LoadAverage.Five, m.LoadAverage.Fifteen}
	}
	if !m.LastUpdate.IsZero() {
		received := m.LastUpdate
		out.ReceivedAt = &received
	}
	return out
}

func toPatternGroups(groups []patterns.Group) []PatternGroup {
	out := make([]PatternGroup, len(groups))
	for i, g := range groups {
		out[i] = PatternGroup{
			Pattern:   g.Pattern,
			Level:     mapping.LogLevel(g.Level),
			Tier:      g.Tier.String(),
			Count:     g.Count,
			Nodes:     g.Nodes,
			FirstSeen: g.FirstSeen,
			LastSeen:  g.LastSeen,
			Example:   g.Example,
		}
	}
	return out
}
