package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/heyong4725/dora-tui/src/logger"
)

// clientID identifies dora-tui producers and consumers to the cluster.
const clientID = "dora-tui"

type groupKey struct {
	topic string
	group string
}

// RedpandaBroker relays messages through a Kafka-compatible cluster.
// Records are partitioned by key, so the log events of one dataflow are
// consumed in the order they were published.
type RedpandaBroker struct {
	producer *kgo.Client
	seeds    []string
	log      logger.Logger

	mu     sync.Mutex
	groups map[groupKey]*kgo.Client
	closed bool
}

// NewRedpandaBroker connects a producer to the seed brokers
// (e.g. ["localhost:19092"]). Fetch errors of subscriptions go to log.
func NewRedpandaBroker(seeds []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(seeds) == 0 {
		return nil, errors.New("no seed brokers configured")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
		kgo.ProducerBatchCompression(kgo.ZstdCompression(), kgo.NoCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer for %v: %w", seeds, err)
	}

	return &RedpandaBroker{
		producer: producer,
		seeds:    seeds,
		log:      log,
		groups:   make(map[groupKey]*kgo.Client),
	}, nil
}

// Publish produces one record and waits for it to be acknowledged.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	if err := b.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// Subscribe joins consumer group groupID on topic, starting from the oldest
// retained record for a new group. Only one subscription per topic and group
// may be open at a time.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	k := groupKey{topic: topic, group: groupID}
	if _, ok := b.groups[k]; ok {
		return nil, fmt.Errorf("group %s is already consuming %s", groupID, topic)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.seeds...),
		kgo.ClientID(clientID),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer for %s: %w", topic, err)
	}
	b.groups[k] = consumer

	out := make(chan Message, subscriberBuffer)
	go b.consume(ctx, k, consumer, out)
	return out, nil
}

func (b *RedpandaBroker) consume(ctx context.Context, k groupKey, consumer *kgo.Client, out chan<- Message) {
	defer close(out)
	defer b.release(k, consumer)

	for ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if ctx.Err() == nil {
				b.log.Warn("[RedpandaBroker] fetch error on %s/%d: %v", topic, partition, err)
			}
		})

		iter := fetches.RecordIter()
		for !iter.Done() {
			r := iter.Next()
			msg := Message{
				Topic:     r.Topic,
				Key:       string(r.Key),
				Value:     r.Value,
				Offset:    r.Offset,
				Partition: r.Partition,
				Timestamp: r.Timestamp.UnixMilli(),
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// release forgets and closes a consumer whose subscription ended, unless
// Close already did.
func (b *RedpandaBroker) release(k groupKey, consumer *kgo.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.groups[k] == consumer {
		delete(b.groups, k)
		consumer.Close()
	}
}

// Close stops every subscription and the producer.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for k, consumer := range b.groups {
		consumer.Close()
		delete(b.groups, k)
	}
	b.producer.Close()
	return nil
}
