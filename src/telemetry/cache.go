// Package telemetry keeps the most recent system metrics snapshot from the
// gateway's metrics stream so reads never wait on the network.
package telemetry

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
)

// FrameSource is an open metrics stream.
type FrameSource interface {
	Next() (protocol.SystemMetrics, error)
	Close() error
}

// StreamOpener opens the metrics stream.
type StreamOpener func(ctx context.Context) (FrameSource, error)

// MetricsCache consumes a metrics stream on its own goroutine and holds the
// latest mapped snapshot. Once the stream ends or fails the cache stops for
// good; the last snapshot stays readable and its Timestamp shows its age.
type MetricsCache struct {
	log     logger.Logger
	metrics *Metrics
	now     func() time.Time

	mu     sync.Mutex
	latest provider.SystemMetrics
	has    bool
	source FrameSource
	closed bool

	done chan struct{}
}

// StartMetricsCache opens the stream in the background and starts consuming it.
func StartMetricsCache(open StreamOpener, log logger.Logger, metrics *Metrics) *MetricsCache {
	c := newMetricsCache(log, metrics)
	go c.run(open)
	return c
}

func newMetricsCache(log logger.Logger, metrics *Metrics) *MetricsCache {
	return &MetricsCache{
		log:     log,
		metrics: metrics,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

func (c *MetricsCache) run(open StreamOpener) {
	defer close(c.done)

	source, err := open(context.Background())
	if err != nil {
		c.log.Warn("failed to start system metrics stream: %v", err)
		c.metrics.terminated(ReasonOpenFailed)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		source.Close()
		c.metrics.terminated(ReasonClosed)
		return
	}
	c.source = source
	c.mu.Unlock()

	for {
		frame, err := source.Next()
		if err != nil {
			c.stop(err)
			return
		}
		c.store(mapping.Metrics(frame, c.now()))
		c.metrics.frame(float64(frame.Timestamp.UnixNano()) / 1e9)
	}
}

func (c *MetricsCache) store(m provider.SystemMetrics) {
	c.mu.Lock()
	c.latest = m
	c.has = true
	c.mu.Unlock()
}

func (c *MetricsCache) stop(err error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	switch {
	case closed:
		c.log.Debug("system metrics stream closed")
		c.metrics.terminated(ReasonClosed)
	case errors.Is(err, io.EOF):
		c.log.Warn("system metrics stream ended")
		c.metrics.terminated(ReasonEnded)
	default:
		c.log.Warn("system metrics stream failed: %v", err)
		c.metrics.terminated(ReasonError)
	}
}

// Latest returns the most recent snapshot, or false if no frame has arrived.
func (c *MetricsCache) Latest() (provider.SystemMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.has
}

// Done is closed once the consumer goroutine has exited.
func (c *MetricsCache) Done() <-chan struct{} {
	return c.done
}

// Close closes the stream, which ends the consumer. A read already blocked in
// the network returns once the connection is torn down.
func (c *MetricsCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	source := c.source
	c.mu.Unlock()

	if source == nil {
		return nil
	}
	return source.Close()
}

// CachedTelemetryService answers LatestMetrics from a MetricsCache. Until the
// first frame arrives it asks fallback instead.
type CachedTelemetryService struct {
	cache    *MetricsCache
	fallback provider.TelemetryService
}

var _ provider.TelemetryService = (*CachedTelemetryService)(nil)

// NewCachedTelemetryService returns a TelemetryService backed by cache.
func NewCachedTelemetryService(cache *MetricsCache, fallback provider.TelemetryService) *CachedTelemetryService {
	return &CachedTelemetryService{cache: cache, fallback: fallback}
}

func (s *CachedTelemetryService) LatestMetrics(ctx context.Context) (provider.SystemMetrics, error) {
	if m, ok := s.cache.Latest(); ok {
		return m, nil
	}
	return s.fallback.LatestMetrics(ctx)
}
