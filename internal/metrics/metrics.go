// Package metrics exports loop events as Prometheus metrics.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/samwire/internal/engine"
)

const (
	metricsNamespace = "samwire"
	loopSubsystem    = "loop"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the loop's Prometheus collectors and observes a bus.
type Metrics struct {
	// ProposalsTotal counts proposals by name and outcome.
	ProposalsTotal *prometheus.CounterVec

	// RendersTotal counts render passes by phase and status.
	RendersTotal *prometheus.CounterVec

	// RenderDurationSeconds measures render passes.
	// Labels: phase (initial, thinking, settled)
	RenderDurationSeconds *prometheus.HistogramVec

	// ReplaysTotal counts replayed pre-hydration events by action and status.
	ReplaysTotal *prometheus.CounterVec
}

// New creates and registers the collectors on reg. Use a fresh
// prometheus.NewRegistry() per server or test; registering twice on the
// same registry panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProposalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: loopSubsystem,
			Name:      "proposals_total",
			Help:      "Proposals by name and outcome",
		}, []string{"name", "outcome"}),
		RendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: loopSubsystem,
			Name:      "renders_total",
			Help:      "Render passes by phase and status",
		}, []string{"phase", "status"}),
		RenderDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: loopSubsystem,
			Name:      "render_duration_seconds",
			Help:      "Render pass duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"phase"}),
		ReplaysTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: loopSubsystem,
			Name:      "replays_total",
			Help:      "Replayed pre-hydration events by action and status",
		}, []string{"name", "status"}),
	}
}

// Observe implements engine.Observer.
func (m *Metrics) Observe(ev engine.Event) {
	switch ev.Kind {
	case engine.KindProposal:
		m.ProposalsTotal.WithLabelValues(ev.Name, string(ev.Outcome)).Inc()
	case engine.KindRender:
		phase := string(ev.Phase)
		m.RendersTotal.WithLabelValues(phase, status(ev)).Inc()
		m.RenderDurationSeconds.WithLabelValues(phase).Observe(ev.Duration.Seconds())
	case engine.KindReplay:
		m.ReplaysTotal.WithLabelValues(ev.Name, status(ev)).Inc()
	}
}

func status(ev engine.Event) string {
	if ev.Error != "" {
		return StatusError
	}
	return StatusOK
}
