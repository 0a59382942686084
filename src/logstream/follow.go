// Package logstream follows the log events of a running dataflow and relays
// them to a broker topic and a log archive.
package logstream

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/protocolclient"
)

// followBuffer is the capacity of the channel returned by Follow.
const followBuffer = 64

// Source is an open log event stream.
type Source interface {
	Next() (protocol.LogEvent, error)
	Close() error
}

// Opener opens the log event stream of a dataflow.
type Opener func(ctx context.Context, dataflowID uuid.UUID) (Source, error)

// ClientOpener opens log streams through the protocol gateway.
func ClientOpener(clients *protocolclient.Clients) Opener {
	return func(ctx context.Context, dataflowID uuid.UUID) (Source, error) {
		stream, err := clients.LogStream(ctx, dataflowID)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}
}

// Follow opens the log stream of dataflowID and forwards its events on the
// returned channel from a background goroutine. The channel is closed when
// the stream ends, fails (logged as a warning) or ctx is cancelled. Streams
// are not reopened.
func Follow(ctx context.Context, open Opener, dataflowID uuid.UUID, log logger.Logger) (<-chan protocol.LogEvent, error) {
	source, err := open(ctx, dataflowID)
	if err != nil {
		return nil, err
	}

	events := make(chan protocol.LogEvent, followBuffer)
	finished := make(chan struct{})

	var once sync.Once
	closeSource := func() { once.Do(func() { source.Close() }) }

	// A blocked Next only returns once the source is closed.
	go func() {
		select {
		case <-ctx.Done():
			closeSource()
		case <-finished:
		}
	}()

	go func() {
		defer close(events)
		defer close(finished)
		defer closeSource()

		for {
			event, err := source.Next()
			if err != nil {
				switch {
				case ctx.Err() != nil:
					log.Debug("log stream of %s closed", dataflowID)
				case errors.Is(err, io.EOF):
					log.Info("log stream of %s ended", dataflowID)
				default:
					log.Warn("log stream of %s failed: %v", dataflowID, err)
				}
				return
			}

			select {
			case events <- event:
			case <-ctx.Done():
				log.Debug("log stream of %s closed", dataflowID)
				return
			}
		}
	}()

	return events, nil
}
