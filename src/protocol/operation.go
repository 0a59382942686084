package protocol

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an operation state would move backwards.
var ErrInvalidTransition = errors.New("invalid operation state transition")

// OperationState is the state of an asynchronous operation.
type OperationState string

const (
	OperationPending   OperationState = "pending"
	OperationRunning   OperationState = "running"
	OperationCompleted OperationState = "completed"
	OperationFailed    OperationState = "failed"
)

// OperationStates lists every known OperationState.
var OperationStates = []OperationState{OperationPending, OperationRunning, OperationCompleted, OperationFailed}

func (s *OperationState) UnmarshalText(text []byte) error {
	v, err := parseVariant("operation state", text, OperationStates)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s OperationState) rank() int {
	switch s {
	case OperationPending:
		return 0
	case OperationRunning:
		return 1
	case OperationCompleted, OperationFailed:
		return 2
	}
	return -1
}

// Terminal reports whether no further transition is possible.
func (s OperationState) Terminal() bool {
	return s == OperationCompleted || s == OperationFailed
}

// Advance moves the status to next. Transitions are monotonic: a state never
// moves backwards and terminal states are final. Re-applying the current
// state is a no-op.
func (o *OperationStatus) Advance(next OperationState) error {
	if next == o.State {
		return nil
	}
	if o.State.Terminal() || next.rank() < 0 || next.rank() <= o.State.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.State, next)
	}
	o.State = next
	return nil
}
