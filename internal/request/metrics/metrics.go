package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts request lifecycle operations outside the state machine.
type Metrics struct {
	RequestsCreated   *prometheus.CounterVec
	RequestsDiscarded *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_requests_created_total",
			Help: "Requests created, by kind",
		}, []string{"kind"}),
		RequestsDiscarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_requests_discarded_total",
			Help: "Draft requests discarded before entering their flow, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementRequestsCreated(kind string) {
	m.RequestsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRequestsDiscarded(kind string) {
	m.RequestsDiscarded.WithLabelValues(kind).Inc()
}
