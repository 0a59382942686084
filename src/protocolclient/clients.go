package protocolclient

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
	"github.com/heyong4725/dora-tui/src/sse"
)

const (
	dataflowsPath     = "/v1/dataflows"
	metricsPath       = "/v1/telemetry/system"
	metricsStreamPath = "/v1/telemetry/system/stream"
	preferencesPath   = "/v1/preferences/ui"
)

func logStreamPath(id uuid.UUID) string {
	return fmt.Sprintf("/v1/logs/%s/stream", id)
}

// LogStream yields log events for one dataflow.
type LogStream = sse.Stream[protocol.LogEvent]

// MetricsStream yields system metrics snapshots.
type MetricsStream = sse.Stream[protocol.SystemMetrics]

// Clients is the remote backend factory. Every capability it hands out shares
// one Transport.
type Clients struct {
	transport *Transport
	now       func() time.Time
}

// NewClients builds the remote backend for the gateway at baseURL.
func NewClients(baseURL string, opts Options) (*Clients, error) {
	transport, err := NewTransport(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &Clients{transport: transport, now: time.Now}, nil
}

// Transport exposes the shared transport.
func (c *Clients) Transport() *Transport {
	return c.transport
}

// Coordinator returns the remote dataflow listing capability.
func (c *Clients) Coordinator() *RemoteCoordinator {
	return &RemoteCoordinator{transport: c.transport}
}

// Telemetry returns the remote one-shot metrics capability.
func (c *Clients) Telemetry() *RemoteTelemetry {
	return &RemoteTelemetry{transport: c.transport, now: c.now}
}

// Preferences returns the remote preferences store.
func (c *Clients) Preferences() *RemotePreferences {
	return &RemotePreferences{transport: c.transport, now: c.now}
}

// LegacyCLI returns the remote legacy command capability, which always fails.
func (c *Clients) LegacyCLI() *RemoteLegacyCLI {
	return &RemoteLegacyCLI{}
}

// Services bundles all four remote capabilities.
func (c *Clients) Services() provider.Services {
	return provider.Services{
		Coordinator: c.Coordinator(),
		Telemetry:   c.Telemetry(),
		Preferences: c.Preferences(),
		LegacyCLI:   c.LegacyCLI(),
	}
}

// LogStream opens the log event stream of a dataflow.
func (c *Clients) LogStream(ctx context.Context, dataflowID uuid.UUID) (*LogStream, error) {
	body, err := c.transport.GetStream(ctx, logStreamPath(dataflowID))
	if err != nil {
		return nil, err
	}
	return sse.NewStream(streamBody(body), decodeFrame[protocol.LogEvent]), nil
}

// SystemMetricsStream opens the system metrics stream.
func (c *Clients) SystemMetricsStream(ctx context.Context) (*MetricsStream, error) {
	body, err := c.transport.GetStream(ctx, metricsStreamPath)
	if err != nil {
		return nil, err
	}
	return sse.NewStream(streamBody(body), decodeFrame[protocol.SystemMetrics]), nil
}

func decodeFrame[T any](payload []byte) (T, error) {
	v, err := sse.JSON[T](payload)
	if err != nil {
		return v, fmt.Errorf("%w: event payload: %w", ErrDecode, err)
	}
	return v, nil
}

// errStreamBody tags read failures with ErrStream. End of stream passes through.
type errStreamBody struct {
	io.ReadCloser
}

func streamBody(body io.ReadCloser) io.ReadCloser {
	return errStreamBody{body}
}

func (b errStreamBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %w", ErrStream, err)
	}
	return n, err
}
