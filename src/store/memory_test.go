package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/protocol"
)

func event(i int) protocol.LogEvent {
	return protocol.LogEvent{
		Timestamp: time.Date(2024, 5, 1, 12, 0, i, 0, time.UTC),
		Level:     protocol.LogInfo,
		Line:      fmt.Sprintf("line %d", i),
	}
}

func TestMemoryStore_AppendAndRecent(t *testing.T) {
	store := NewMemoryStore(10)
	defer store.Close()

	ctx := context.Background()
	flow := uuid.New()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, flow, event(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	events, err := store.Recent(ctx, flow, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Line != fmt.Sprintf("line %d", i) {
			t.Errorf("event %d: line = %q", i, e.Line)
		}
	}
}

func TestMemoryStore_RetentionDropsOldest(t *testing.T) {
	store := NewMemoryStore(4)
	defer store.Close()

	ctx := context.Background()
	flow := uuid.New()
	for i := 0; i < 10; i++ {
		store.Append(ctx, flow, event(i))
	}

	events, err := store.Recent(ctx, flow, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("Expected 4 retained events, got %d", len(events))
	}
	if events[0].Line != "line 6" || events[3].Line != "line 9" {
		t.Errorf("Expected lines 6..9, got %q..%q", events[0].Line, events[3].Line)
	}
}

func TestMemoryStore_RecentLimit(t *testing.T) {
	tests := []struct {
		name      string
		appended  int
		limit     int
		wantFirst string
		wantLen   int
	}{
		{"limit below count", 5, 2, "line 3", 2},
		{"limit above count", 2, 10, "line 0", 2},
		{"no limit", 5, 0, "line 0", 5},
		{"negative limit", 5, -1, "line 0", 5},
		{"exactly full ring", 8, 3, "line 5", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore(8)
			ctx := context.Background()
			flow := uuid.New()
			for i := 0; i < tt.appended; i++ {
				store.Append(ctx, flow, event(i))
			}

			events, err := store.Recent(ctx, flow, tt.limit)
			if err != nil {
				t.Fatalf("Recent failed: %v", err)
			}
			if len(events) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(events), tt.wantLen)
			}
			if events[0].Line != tt.wantFirst {
				t.Errorf("first = %q, want %q", events[0].Line, tt.wantFirst)
			}
		})
	}
}

func TestMemoryStore_DataflowsAreIsolated(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()

	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	store.Append(ctx, a, event(1))

	events, err := store.Recent(ctx, b, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("Expected empty non-nil slice for unknown dataflow, got %v", events)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore(0)
	store.Close()

	ctx := context.Background()
	if err := store.Append(ctx, uuid.New(), event(0)); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close: got %v, want ErrClosed", err)
	}
	if _, err := store.Recent(ctx, uuid.New(), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent after Close: got %v, want ErrClosed", err)
	}
}

func TestNew_EmptyDSNUsesMemory(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("New(\"\") = %T, want *MemoryStore", s)
	}
}

func TestNewPostgresStore_Unreachable(t *testing.T) {
	_, err := NewPostgresStore("postgres://dora@127.0.0.1:1/dora?sslmode=disable&connect_timeout=1")
	if err == nil {
		t.Fatal("Expected error for unreachable database")
	}
}
