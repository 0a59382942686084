package broker

import (
	"context"
	"sync"
	"time"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

type subscriber struct {
	ch   chan Message
	done <-chan struct{}
}

// InMemoryBroker fans every published message out to all current subscribers
// of its topic. Used when no Redpanda brokers are configured.
type InMemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	offset map[string]int64
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs:   make(map[string][]*subscriber),
		offset: make(map[string]int64),
		done:   make(chan struct{}),
	}
}

// Publish delivers the message to every subscriber of topic. It blocks while
// a subscriber's buffer is full, until ctx is done or the broker is closed.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	offset := b.offset[topic]
	b.offset[topic] = offset + 1
	b.mu.Unlock()

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    offset,
		Timestamp: time.Now().UnixMilli(),
	}

	// Channels are only closed under the write lock, so every subscriber
	// still listed here has an open channel.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, sub := range b.subs[topic] {
		select {
		case sub.ch <- msg:
		case <-sub.done:
		case <-b.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a new subscriber on topic. groupID is ignored: every
// subscriber receives every message published after it subscribed.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscriber{ch: make(chan Message, subscriberBuffer), done: ctx.Done()}
	b.subs[topic] = append(b.subs[topic], sub)

	go func() {
		select {
		case <-ctx.Done():
			b.remove(topic, sub)
		case <-b.done:
		}
	}()

	return sub.ch, nil
}

func (b *InMemoryBroker) remove(topic string, target *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, sub := range subs {
		if sub == target {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Close closes every subscriber channel. Publishers blocked on a full
// subscriber return ErrClosed.
func (b *InMemoryBroker) Close() error {
	// Signal before locking: a blocked Publish holds the read lock.
	b.closeOnce.Do(func() { close(b.done) })

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, topic)
	}
	return nil
}
