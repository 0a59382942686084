// Package protocol defines the wire contracts exchanged with the dora protocol gateway.
// These types mirror the gateway's JSON schema and are shared by every backend.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DataflowSummary is the gateway's view of a known dataflow.
type DataflowSummary struct {
	ID        uuid.UUID        `json:"id"`
	Name      *string          `json:"name"`
	Status    DataflowStatus   `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`
	Nodes     []NodeDescriptor `json:"nodes"`
}

// UnmarshalJSON rejects a summary whose status is missing or null.
func (s *DataflowSummary) UnmarshalJSON(data []byte) error {
	type plain DataflowSummary
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Status == "" {
		return missingVariant("dataflow status")
	}
	*s = DataflowSummary(v)
	return nil
}

// DataflowDetail is a summary plus full node metadata.
type DataflowDetail struct {
	Summary DataflowSummary  `json:"summary"`
	Nodes   []NodeDescriptor `json:"nodes"`
}

// NodeDescriptor describes one node within a dataflow.
type NodeDescriptor struct {
	ID          string     `json:"id"`
	Name        *string    `json:"name"`
	Status      NodeStatus `json:"status"`
	Kind        NodeKind   `json:"kind"`
	Inputs      []string   `json:"inputs"`
	Outputs     []string   `json:"outputs"`
	Description *string    `json:"description"`
	Source      NodeSource `json:"source"`
}

// UnmarshalJSON rejects a descriptor whose status or kind is missing or null.
func (n *NodeDescriptor) UnmarshalJSON(data []byte) error {
	type plain NodeDescriptor
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Status == "" {
		return missingVariant("node status")
	}
	if v.Kind == "" {
		return missingVariant("node kind")
	}
	*n = NodeDescriptor(v)
	return nil
}

// SystemMetrics is a point-in-time host telemetry reading.
// UsedMemoryBytes may exceed TotalMemoryBytes; consumers must clamp.
type SystemMetrics struct {
	Timestamp        time.Time   `json:"timestamp"`
	CPUPercent       float32     `json:"cpu_percent"`
	MemoryPercent    float32     `json:"memory_percent"`
	TotalMemoryBytes uint64      `json:"total_memory_bytes"`
	UsedMemoryBytes  uint64      `json:"used_memory_bytes"`
	LoadAverage      *[3]float32 `json:"load_average"`
}

// LogEvent is one log line emitted by a running dataflow.
type LogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Node      *string   `json:"node"`
	Line      string    `json:"line"`
}

func (e *LogEvent) UnmarshalJSON(data []byte) error {
	type plain LogEvent
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Level == "" {
		return missingVariant("log level")
	}
	*e = LogEvent(v)
	return nil
}

// UserPreferencesSnapshot holds persisted UI preferences.
// Nil fields are "unset": the gateway keeps its stored value for them on save.
type UserPreferencesSnapshot struct {
	Theme       *string   `json:"theme"`
	UIMode      *UIMode   `json:"ui_mode"`
	AutoRefresh *bool     `json:"auto_refresh"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Merge returns s with every unset field taken from prior.
func (s UserPreferencesSnapshot) Merge(prior UserPreferencesSnapshot) UserPreferencesSnapshot {
	if s.Theme == nil {
		s.Theme = prior.Theme
	}
	if s.UIMode == nil {
		s.UIMode = prior.UIMode
	}
	if s.AutoRefresh == nil {
		s.AutoRefresh = prior.AutoRefresh
	}
	return s
}

// StartDataflowRequest asks the gateway to launch a dataflow descriptor.
type StartDataflowRequest struct {
	Descriptor string  `json:"descriptor"`
	Name       *string `json:"name,omitempty"`
	UV         bool    `json:"uv"`
}

// OperationHandle identifies an asynchronous control operation.
type OperationHandle struct {
	Handle      string    `json:"handle"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// OperationStatus reports progress of an asynchronous operation.
type OperationStatus struct {
	Handle  string          `json:"handle"`
	State   OperationState  `json:"state"`
	Message *string         `json:"message"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// ErrorEnvelope is the body of a failed gateway call.
type ErrorEnvelope struct {
	Error GatewayError `json:"error"`
}

// GatewayError is the structured error carried by an ErrorEnvelope.
// Code is the dispatch key; Message is for display only.
type GatewayError struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}
