// Package observability provides telemetry sinks for the engine's
// execution hooks. The engine knows nothing about these sinks; they attach
// through domain.ExecutionHooks.
package observability

import (
	"context"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes step attempt counts and durations as Prometheus series.
type Metrics struct {
	attempts  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	inFlight  prometheus.Gauge
}

// NewMetrics registers the gleaner metric families with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gleaner",
			Name:      "step_attempts_total",
			Help:      "Step attempts by step id and outcome.",
		}, []string{"step", "outcome"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gleaner",
			Name:      "step_duration_seconds",
			Help:      "Wall-clock duration of step attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gleaner",
			Name:      "steps_in_flight",
			Help:      "Step attempts currently executing.",
		}),
	}
}

// Hooks adapts the metrics into engine callbacks. The callbacks only touch
// local counters, so they never block a run.
func (m *Metrics) Hooks() domain.ExecutionHooks {
	return domain.ExecutionHooks{
		OnStepStart: func(_ context.Context, ev *domain.StepEvent) {
			m.inFlight.Inc()
		},
		OnStepEnd: func(_ context.Context, ev *domain.StepEvent) {
			m.inFlight.Dec()
			m.attempts.WithLabelValues(ev.StepID, string(ev.Outcome)).Inc()
			m.durations.WithLabelValues(ev.StepID).Observe(ev.Elapsed.Seconds())
		},
	}
}
