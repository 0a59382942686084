// Package store archives the log events followed from running dataflows.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/protocol"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store defines the interface for persisting dataflow log events.
type Store interface {
	// Append archives one event for a dataflow.
	Append(ctx context.Context, dataflowID uuid.UUID, event protocol.LogEvent) error

	// Recent returns up to limit of the newest events for a dataflow, oldest first.
	// A non-positive limit returns every retained event.
	Recent(ctx context.Context, dataflowID uuid.UUID, limit int) ([]protocol.LogEvent, error)

	// Close closes the store connection
	Close() error
}

// New returns a PostgresStore for dsn, or a MemoryStore when dsn is empty.
func New(dsn string) (Store, error) {
	if dsn == "" {
		return NewMemoryStore(DefaultRetention), nil
	}
	return NewPostgresStore(dsn)
}
