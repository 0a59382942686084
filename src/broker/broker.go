// Package broker defines the interface for message brokers and provides implementations.
// The log relay publishes one message per followed log event, keyed by dataflow id.
package broker

import (
	"context"
	"errors"

	"github.com/heyong4725/dora-tui/src/logger"
)

// Broker abstracts message publishing and consumption.
// This interface supports both in-memory and distributed (Redpanda/Kafka) implementations.
type Broker interface {
	// Publish sends a message to a topic with an optional key for partitioning.
	// For in-memory broker, key is only carried through to subscribers.
	// For Redpanda/Kafka, key is used for partition assignment, so all events
	// of one dataflow stay ordered.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe returns a channel for consuming messages from a topic.
	// groupID is used for consumer group coordination in Kafka.
	// The channel is closed when ctx is cancelled or the broker is closed.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	// Close shuts down the broker connection gracefully.
	Close() error
}

// Message represents a consumed message from a broker.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	Timestamp int64
}

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("broker is closed")

// New returns a RedpandaBroker for the given seed brokers, or an
// InMemoryBroker when none are configured.
func New(brokers []string, log logger.Logger) (Broker, error) {
	if len(brokers) == 0 {
		return NewInMemoryBroker(), nil
	}
	return NewRedpandaBroker(brokers, log)
}
