package protocolclient

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heyong4725/dora-tui/src/protocol"
)

var (
	// ErrInvalidURL is returned for a malformed base URL or an endpoint path
	// that would leave the base.
	ErrInvalidURL = errors.New("invalid gateway url")
	// ErrDecode is returned when a response body or event payload is not valid JSON
	// for the expected type.
	ErrDecode = errors.New("failed to decode gateway response")
	// ErrStream is returned for I/O failures while reading an event stream.
	ErrStream = errors.New("event stream failed")
	// ErrProtocol is returned when the gateway answers with something that is
	// neither a valid response nor an error envelope.
	ErrProtocol = errors.New("gateway protocol violation")
)

// HTTPError reports a non-2xx gateway response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	// Envelope is set when the body was a gateway error envelope.
	Envelope *protocol.ErrorEnvelope
	Body     string
}

func (e *HTTPError) Error() string {
	if e.Envelope != nil {
		return fmt.Sprintf("%s %s failed with status %d: %s: %s",
			e.Method, e.Path, e.StatusCode, e.Envelope.Error.Code, e.Envelope.Error.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s failed with status %d", e.Method, e.Path, e.StatusCode)
}

// Code returns the gateway error code, or "" when the body carried no envelope.
func (e *HTTPError) Code() protocol.ErrorCode {
	if e.Envelope == nil {
		return ""
	}
	return e.Envelope.Error.Code
}

func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	httpErr := &HTTPError{Method: method, Path: path, StatusCode: status, Body: string(body)}
	var env protocol.ErrorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil && env.Error.Code != "" {
		httpErr.Envelope = &env
	}
	return httpErr
}

// IsCode reports whether err is an HTTPError carrying the given gateway code.
func IsCode(err error, code protocol.ErrorCode) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Code() == code
}
