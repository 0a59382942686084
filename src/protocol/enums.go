package protocol

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when a wire enum carries a value this client does not know.
// Decoding fails instead of guessing, so a new server-side variant needs a code change here.
var ErrUnknownVariant = errors.New("unknown enum variant")

// DataflowStatus is the lifecycle state of a dataflow.
type DataflowStatus string

const (
	DataflowPending   DataflowStatus = "pending"
	DataflowRunning   DataflowStatus = "running"
	DataflowStopped   DataflowStatus = "stopped"
	DataflowDestroyed DataflowStatus = "destroyed"
	DataflowFailed    DataflowStatus = "failed"
	DataflowUnknown   DataflowStatus = "unknown"
)

// DataflowStatuses lists every known DataflowStatus.
var DataflowStatuses = []DataflowStatus{
	DataflowPending, DataflowRunning, DataflowStopped, DataflowDestroyed, DataflowFailed, DataflowUnknown,
}

func (s *DataflowStatus) UnmarshalText(text []byte) error {
	v, err := parseVariant("dataflow status", text, DataflowStatuses)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// NodeStatus is the high-level state of a node.
type NodeStatus string

const (
	NodeInitializing NodeStatus = "initializing"
	NodeRunning      NodeStatus = "running"
	NodeStopped      NodeStatus = "stopped"
	NodeFailed       NodeStatus = "failed"
	NodeUnknown      NodeStatus = "unknown"
)

// NodeStatuses lists every known NodeStatus.
var NodeStatuses = []NodeStatus{NodeInitializing, NodeRunning, NodeStopped, NodeFailed, NodeUnknown}

func (s *NodeStatus) UnmarshalText(text []byte) error {
	v, err := parseVariant("node status", text, NodeStatuses)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// NodeKind is the core node type.
type NodeKind string

const (
	NodeKindRuntime  NodeKind = "runtime"
	NodeKindOperator NodeKind = "operator"
	NodeKindCustom   NodeKind = "custom"
)

// NodeKinds lists every known NodeKind.
var NodeKinds = []NodeKind{NodeKindRuntime, NodeKindOperator, NodeKindCustom}

func (k *NodeKind) UnmarshalText(text []byte) error {
	v, err := parseVariant("node kind", text, NodeKinds)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// LogLevel is a log severity as sent on the wire (upper case).
type LogLevel string

const (
	LogTrace LogLevel = "TRACE"
	LogDebug LogLevel = "DEBUG"
	LogInfo  LogLevel = "INFO"
	LogWarn  LogLevel = "WARN"
	LogError LogLevel = "ERROR"
)

// LogLevels lists every known LogLevel.
var LogLevels = []LogLevel{LogTrace, LogDebug, LogInfo, LogWarn, LogError}

func (l *LogLevel) UnmarshalText(text []byte) error {
	v, err := parseVariant("log level", text, LogLevels)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// UIMode is the preferred interface mode of a client.
type UIMode string

const (
	UIModeAuto    UIMode = "auto"
	UIModeCLI     UIMode = "cli"
	UIModeTUI     UIMode = "tui"
	UIModeMinimal UIMode = "minimal"
)

// UIModes lists every known UIMode.
var UIModes = []UIMode{UIModeAuto, UIModeCLI, UIModeTUI, UIModeMinimal}

func (m *UIMode) UnmarshalText(text []byte) error {
	v, err := parseVariant("ui mode", text, UIModes)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ErrorCode is a canonical gateway error code.
type ErrorCode string

const (
	CodeResourceNotFound   ErrorCode = "RESOURCE_NOT_FOUND"
	CodeInvalidArgument    ErrorCode = "INVALID_ARGUMENT"
	CodeAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	CodeFailedPrecondition ErrorCode = "FAILED_PRECONDITION"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeNotImplemented     ErrorCode = "NOT_IMPLEMENTED"
	CodeUnavailable        ErrorCode = "UNAVAILABLE"
)

// ErrorCodes lists every known ErrorCode.
var ErrorCodes = []ErrorCode{
	CodeResourceNotFound, CodeInvalidArgument, CodeAlreadyExists, CodeFailedPrecondition,
	CodeInternalError, CodeNotImplemented, CodeUnavailable,
}

func (c *ErrorCode) UnmarshalText(text []byte) error {
	v, err := parseVariant("error code", text, ErrorCodes)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func parseVariant[T ~string](what string, text []byte, known []T) (T, error) {
	for _, k := range known {
		if string(k) == string(text) {
			return k, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownVariant, what, string(text))
}

// missingVariant reports a required enum field that was absent or null.
// UnmarshalText never runs for those, so the field would otherwise stay "".
func missingVariant(what string) error {
	return fmt.Errorf("%w: %s is missing or null", ErrUnknownVariant, what)
}
