package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/protocol"
)

// DefaultRetention is how many events MemoryStore keeps per dataflow.
const DefaultRetention = 1000

// MemoryStore is an in-memory implementation of Store.
// Each dataflow keeps a ring of its newest events; older ones are dropped.
type MemoryStore struct {
	mu        sync.RWMutex
	retention int
	rings     map[uuid.UUID]*ring
	closed    bool
}

type ring struct {
	events []protocol.LogEvent
	next   int
	full   bool
}

func (r *ring) push(e protocol.LogEvent) {
	r.events[r.next] = e
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// ordered returns the retained events, oldest first.
func (r *ring) ordered() []protocol.LogEvent {
	if !r.full {
		return append([]protocol.LogEvent(nil), r.events[:r.next]...)
	}
	out := make([]protocol.LogEvent, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

// NewMemoryStore creates a new in-memory store keeping retention events per
// dataflow. A non-positive retention uses DefaultRetention.
func NewMemoryStore(retention int) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		retention: retention,
		rings:     make(map[uuid.UUID]*ring),
	}
}

// Append archives one event for a dataflow.
func (s *MemoryStore) Append(ctx context.Context, dataflowID uuid.UUID, event protocol.LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	r, ok := s.rings[dataflowID]
	if !ok {
		r = &ring{events: make([]protocol.LogEvent, s.retention)}
		s.rings[dataflowID] = r
	}
	r.push(event)
	return nil
}

// Recent returns up to limit of the newest events for a dataflow, oldest first.
func (s *MemoryStore) Recent(ctx context.Context, dataflowID uuid.UUID, limit int) ([]protocol.LogEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	r, ok := s.rings[dataflowID]
	if !ok {
		return []protocol.LogEvent{}, nil
	}
	events := r.ordered()
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Close drops every retained event.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.rings = nil
	return nil
}
