package provider

import "time"

// DataflowSummary is the UI view of a dataflow.
type DataflowSummary struct {
	ID        string
	Name      string // defaults to ID when the backend has no name
	Status    string // lowercase display string
	UpdatedAt time.Time
	Nodes     []NodeSummary
}

// NodeSummary is the UI view of a node.
type NodeSummary struct {
	ID          string
	Name        string
	Status      string
	Kind        string
	Description *string
	Inputs      []string
	Outputs     []string
	Source      *string // single display string for the node's provenance, nil when unknown
}

// SystemMetrics is the UI view of host telemetry.
type SystemMetrics struct {
	CPUUsage    float32
	MemoryUsage float32
	Memory      MemoryMetrics
	LoadAverage *LoadAverages
	// Timestamp is when the backend sampled the metrics; use it to detect staleness.
	Timestamp time.Time
	// LastUpdate is when this process received the snapshot.
	LastUpdate time.Time
}

// MemoryMetrics breaks down memory usage.
type MemoryMetrics struct {
	TotalBytes   uint64
	UsedBytes    uint64
	FreeBytes    uint64
	UsagePercent float32
}

// LoadAverages are the 1, 5 and 15 minute load averages.
type LoadAverages struct {
	One     float64
	Five    float64
	Fifteen float64
}

// UserPreferencesSnapshot is the UI view of persisted preferences.
type UserPreferencesSnapshot struct {
	Theme                   string
	AutoRefreshIntervalSecs uint64
	ShowSystemInfo          bool
	DefaultView             *string
}
