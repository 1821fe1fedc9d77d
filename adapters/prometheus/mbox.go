package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/mbox"
)

// mboxMetrics implements mbox.MboxMetrics using Prometheus.
type mboxMetrics struct {
	deliveredTotal *prometheus.CounterVec
	requestsTotal  *prometheus.CounterVec
	mailboxes      prometheus.Gauge
}

// NewMboxMetrics creates a new Prometheus implementation of MboxMetrics.
func NewMboxMetrics(reg prometheus.Registerer) mbox.MboxMetrics {
	m := &mboxMetrics{
		deliveredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_mbox_delivered_total",
			Help: "Total number of deliver calls by message type and fan-out",
		}, []string{"message_type", "fanout"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_mbox_service_requests_total",
			Help: "Total number of service requests",
		}, []string{"message_type"}),

		mailboxes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "actr_mbox_active",
			Help: "Number of live mailboxes",
		}),
	}

	reg.MustRegister(m.deliveredTotal, m.requestsTotal, m.mailboxes)
	return m
}

func (m *mboxMetrics) MessageDelivered(msgType string, fanout int) {
	m.deliveredTotal.WithLabelValues(msgType, strconv.Itoa(fanout)).Inc()
}

func (m *mboxMetrics) ServiceRequested(msgType string) {
	m.requestsTotal.WithLabelValues(msgType).Inc()
}

func (m *mboxMetrics) MailboxesActive(count int) {
	m.mailboxes.Set(float64(count))
}

var _ mbox.MboxMetrics = (*mboxMetrics)(nil)
