package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records every Fire and ReplaySideEffects outcome. Outcome is
// "committed" or the domain error code that stopped the transition.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	TransitionLatency *prometheus.HistogramVec
	Rejections        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_workflow_transitions_total",
			Help: "Workflow transitions attempted, by workflow, event and outcome",
		}, []string{"workflow", "event", "outcome"}),
		TransitionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "merenda_workflow_transition_duration_seconds",
			Help:    "Time spent resolving, guarding and running hooks for one transition",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"workflow"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_workflow_rejections_total",
			Help: "Transitions refused by a guard or hook, by error code",
		}, []string{"workflow", "code"}),
	}
}

func (m *Metrics) ObserveTransition(workflow, event, outcome string, start time.Time) {
	m.Transitions.WithLabelValues(workflow, event, outcome).Inc()
	m.TransitionLatency.WithLabelValues(workflow).Observe(time.Since(start).Seconds())
	if outcome != "committed" {
		m.Rejections.WithLabelValues(workflow, outcome).Inc()
	}
}
