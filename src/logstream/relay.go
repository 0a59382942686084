package logstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/broker"
	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/store"
)

// Record is the message published for every relayed log event.
type Record struct {
	DataflowID uuid.UUID         `json:"dataflow_id"`
	Event      protocol.LogEvent `json:"event"`
}

// DecodeRecord parses a message published by a Relay.
func DecodeRecord(msg broker.Message) (Record, error) {
	var rec Record
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal log record at offset %d: %w", msg.Offset, err)
	}
	return rec, nil
}

// Relay publishes followed log events to a broker topic, keyed by dataflow
// id, and archives them in a store. Either sink may be nil.
type Relay struct {
	broker broker.Broker
	store  store.Store
	topic  string
	log    logger.Logger
}

// NewRelay creates a relay publishing to topic.
func NewRelay(b broker.Broker, s store.Store, topic string, log logger.Logger) *Relay {
	return &Relay{broker: b, store: s, topic: topic, log: log}
}

// Handle publishes and archives one event.
func (r *Relay) Handle(ctx context.Context, dataflowID uuid.UUID, event protocol.LogEvent) error {
	if r.broker != nil {
		data, err := json.Marshal(Record{DataflowID: dataflowID, Event: event})
		if err != nil {
			return fmt.Errorf("failed to marshal log record: %w", err)
		}
		if err := r.broker.Publish(ctx, r.topic, dataflowID.String(), data); err != nil {
			return fmt.Errorf("failed to publish log event: %w", err)
		}
	}

	if r.store != nil {
		if err := r.store.Append(ctx, dataflowID, event); err != nil {
			return fmt.Errorf("failed to archive log event: %w", err)
		}
	}
	return nil
}

// Run relays events until the channel is closed or ctx is cancelled, and
// returns how many were relayed. A failing event is logged and skipped.
// Every event is also passed to each tap, in order, after it was relayed.
func (r *Relay) Run(ctx context.Context, dataflowID uuid.UUID, events <-chan protocol.LogEvent, taps ...func(protocol.LogEvent)) (int, error) {
	relayed := 0
	for {
		select {
		case <-ctx.Done():
			return relayed, ctx.Err()
		case event, ok := <-events:
			if !ok {
				return relayed, nil
			}
			if err := r.Handle(ctx, dataflowID, event); err != nil {
				r.log.Warn("relay %s: %v", dataflowID, err)
			} else {
				relayed++
			}
			for _, tap := range taps {
				tap(event)
			}
		}
	}
}

// Archive appends every record consumed from msgs to s until msgs is closed
// or ctx is cancelled, and returns how many were archived. Records that fail
// to decode or append are logged and skipped.
func Archive(ctx context.Context, msgs <-chan broker.Message, s store.Store, log logger.Logger) int {
	archived := 0
	for {
		select {
		case <-ctx.Done():
			return archived
		case msg, ok := <-msgs:
			if !ok {
				return archived
			}
			rec, err := DecodeRecord(msg)
			if err != nil {
				log.Warn("[Archive] %v", err)
				continue
			}
			if err := s.Append(ctx, rec.DataflowID, rec.Event); err != nil {
				log.Warn("[Archive] failed to archive event of %s: %v", rec.DataflowID, err)
				continue
			}
			archived++
		}
	}
}
