package local

import (
	"context"
	"time"

	"github.com/heyong4725/dora-tui/src/logger"
	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
)

// Coordinator lists dataflows through a ControlChannel.
type Coordinator struct {
	control ControlChannel
	log     logger.Logger
	now     func() time.Time
}

var _ provider.CoordinatorClient = (*Coordinator)(nil)

// NewCoordinator returns a CoordinatorClient backed by control. Entries the
// coordinator reports without a valid UUID are skipped and logged to log.
func NewCoordinator(control ControlChannel, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Coordinator{control: control, log: log, now: time.Now}
}

// ListDataflows reports running dataflows. The coordinator does not report an
// update time, so every entry is stamped with the time of the query.
func (c *Coordinator) ListDataflows(ctx context.Context) ([]provider.DataflowSummary, error) {
	entries, err := c.control.ListRunning(ctx)
	if err != nil {
		return nil, provider.Errorf(err, "listing dataflows: %v", err)
	}

	queried := c.now().UTC()
	list := make([]protocol.DataflowSummary, 0, len(entries))
	for _, entry := range entries {
		summary, err := entry.summary()
		if err != nil {
			c.log.Warn("[Coordinator] skipping dataflow %q: %v", entry.Name, err)
			continue
		}
		summary.UpdatedAt = queried
		list = append(list, summary)
	}
	return mapping.Dataflows(list), nil
}
