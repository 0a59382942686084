package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Termination reasons recorded by Metrics.StreamTerminations.
const (
	ReasonOpenFailed = "open_failed"
	ReasonEnded      = "ended"
	ReasonError      = "error"
	ReasonClosed     = "closed"
)

// Metrics holds Prometheus collectors for the metrics stream consumer.
// A nil *Metrics disables recording.
type Metrics struct {
	FramesReceived     prometheus.Counter
	StreamTerminations *prometheus.CounterVec
	LastFrameTimestamp prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dora_tui",
			Subsystem: "metrics_stream",
			Name:      "frames_received_total",
			Help:      "Total system metrics frames received from the gateway",
		}),
		StreamTerminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dora_tui",
			Subsystem: "metrics_stream",
			Name:      "terminations_total",
			Help:      "Times the system metrics consumer stopped, by reason",
		}, []string{"reason"}),
		LastFrameTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dora_tui",
			Subsystem: "metrics_stream",
			Name:      "last_frame_timestamp_seconds",
			Help:      "Sample timestamp of the most recent frame, in unix seconds",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.FramesReceived, m.StreamTerminations, m.LastFrameTimestamp} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) frame(unixSeconds float64) {
	if m == nil {
		return
	}
	m.FramesReceived.Inc()
	m.LastFrameTimestamp.Set(unixSeconds)
}

func (m *Metrics) terminated(reason string) {
	if m == nil {
		return
	}
	m.StreamTerminations.WithLabelValues(reason).Inc()
}
