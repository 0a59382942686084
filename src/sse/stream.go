package sse

import (
	"encoding/json"
	"errors"
	"io"
	"iter"
	"sync"
)

// DecodeFunc turns one event payload into a typed value.
type DecodeFunc[T any] func(payload []byte) (T, error)

// JSON decodes each payload as a JSON document of type T.
func JSON[T any](payload []byte) (T, error) {
	var v T
	err := json.Unmarshal(payload, &v)
	return v, err
}

// Stream yields typed values decoded from an SSE body. It owns the body and
// releases it on Close.
type Stream[T any] struct {
	body   io.ReadCloser
	dec    *Decoder
	decode DecodeFunc[T]

	closeOnce sync.Once
	closeErr  error
}

// NewStream returns a Stream reading events from body.
func NewStream[T any](body io.ReadCloser, decode DecodeFunc[T]) *Stream[T] {
	return &Stream[T]{body: body, dec: NewDecoder(body), decode: decode}
}

// Next blocks until the next value is available. It returns io.EOF when the
// server ends the stream. A payload that fails to decode is reported as an
// error but does not end the stream; read errors are terminal.
func (s *Stream[T]) Next() (T, error) {
	var zero T
	payload, err := s.dec.Next()
	if err != nil {
		return zero, err
	}
	return s.decode([]byte(payload))
}

// All ranges over the remaining values. Iteration ends at end of stream, or
// after the first error is yielded.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying connection. A Next blocked on the network
// returns an error once Close has run. Close is idempotent.
func (s *Stream[T]) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
