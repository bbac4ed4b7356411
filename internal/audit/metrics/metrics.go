package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the outbox relay feeding the audit stream.
type Metrics struct {
	Published       prometheus.Counter
	PublishFailures prometheus.Counter
	Lag             prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "merenda_audit_outbox_published_total",
			Help: "Outbox rows published to the audit stream",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "merenda_audit_outbox_publish_failures_total",
			Help: "Outbox batches the broker did not acknowledge",
		}),
		Lag: f.NewGauge(prometheus.GaugeOpts{
			Name: "merenda_audit_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox row at the last flush",
		}),
	}
}

func (m *Metrics) ObservePublished(n int) {
	m.Published.Add(float64(n))
}

func (m *Metrics) ObservePublishFailure() {
	m.PublishFailures.Inc()
}

func (m *Metrics) ObserveLag(oldest time.Duration) {
	m.Lag.Set(oldest.Seconds())
}
