package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnimplemented marks a capability the active backend does not provide.
	ErrUnimplemented = errors.New("capability not implemented by this backend")
	// ErrBackendUnavailable marks a backend that could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// InterfaceError is the single error shape returned by every capability,
// whatever backend produced it. Message is meant for display.
type InterfaceError struct {
	Message string
	Err     error
}

func (e *InterfaceError) Error() string {
	return e.Message
}

func (e *InterfaceError) Unwrap() error {
	return e.Err
}

// Errorf builds an InterfaceError wrapping err.
func Errorf(err error, format string, args ...interface{}) *InterfaceError {
	return &InterfaceError{Message: fmt.Sprintf(format, args...), Err: err}
}

// FromError converts a backend error into an InterfaceError.
// nil stays nil and an existing InterfaceError is returned unchanged.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var ie *InterfaceError
	if errors.As(err, &ie) {
		return ie
	}
	return &InterfaceError{Message: err.Error(), Err: err}
}

// Unimplemented returns the InterfaceError for a missing capability.
func Unimplemented(capability string) *InterfaceError {
	return &InterfaceError{
		Message: fmt.Sprintf("%s is not available with the remote backend", capability),
		Err:     ErrUnimplemented,
	}
}

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError adds a hint to capability errors that users can act on.
// Other errors are returned unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrUnimplemented) {
		return &UserError{
			Message: "Not available with the remote backend",
			Hint:    "Run with --backend local to execute dora CLI commands on this machine.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrBackendUnavailable) {
		return &UserError{
			Message: "Protocol gateway unreachable",
			Hint:    "Check that the gateway is running and DORA_PROTOCOL_URL (or --protocol-url) points at it.",
			Err:     err,
		}
	}

	return err
}
