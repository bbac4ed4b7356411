package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for notification fan-out and email delivery.
type Metrics struct {
	NotificationsCreated *prometheus.CounterVec
	EmailsEnqueued       *prometheus.CounterVec
	DispatchFailures     *prometheus.CounterVec
	PendenciesResolved   prometheus.Counter
	EmailsDelivered      *prometheus.CounterVec
}

// New registers the notification metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NotificationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_notifications_created_total",
			Help: "In-app notifications created, by topic",
		}, []string{"topic"}),
		EmailsEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_emails_enqueued_total",
			Help: "Outbound emails enqueued, by topic",
		}, []string{"topic"}),
		DispatchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_notification_dispatch_failures_total",
			Help: "Fan-outs that completed with at least one failure",
		}, []string{"topic"}),
		PendenciesResolved: f.NewCounter(prometheus.CounterOpts{
			Name: "merenda_pendencies_resolved_total",
			Help: "Pendency notifications resolved by later transitions",
		}),
		EmailsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "merenda_emails_delivered_total",
			Help: "Email delivery attempts, by outcome",
		}, []string{"success"}),
	}
}

func (m *Metrics) IncrementNotificationsCreated(topic string, n int) {
	m.NotificationsCreated.WithLabelValues(topic).Add(float64(n))
}

func (m *Metrics) IncrementEmailsEnqueued(topic string) {
	m.EmailsEnqueued.WithLabelValues(topic).Inc()
}

func (m *Metrics) IncrementDispatchFailures(topic string) {
	m.DispatchFailures.WithLabelValues(topic).Inc()
}

func (m *Metrics) IncrementPendenciesResolved(n int) {
	m.PendenciesResolved.Add(float64(n))
}

func (m *Metrics) IncrementEmailsSent() {
	m.EmailsDelivered.WithLabelValues(strconv.FormatBool(true)).Inc()
}

func (m *Metrics) IncrementEmailsFailed() {
	m.EmailsDelivered.WithLabelValues(strconv.FormatBool(false)).Inc()
}
