package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/coop"
)

// coopMetrics implements coop.CoopMetrics using Prometheus.
type coopMetrics struct {
	registeredTotal   prometheus.Counter
	deregisteredTotal *prometheus.CounterVec
	live              prometheus.Gauge
}

// NewCoopMetrics creates a new Prometheus implementation of CoopMetrics.
func NewCoopMetrics(reg prometheus.Registerer) coop.CoopMetrics {
	m := &coopMetrics{
		registeredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actr_coop_registered_total",
			Help: "Total number of completed cooperation registrations",
		}),

		deregisteredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_coop_deregistered_total",
			Help: "Total number of completed deregistrations by reason",
		}, []string{"reason"}),

		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "actr_coop_live",
			Help: "Number of registered cooperations",
		}),
	}

	reg.MustRegister(m.registeredTotal, m.deregisteredTotal, m.live)
	return m
}

func (m *coopMetrics) Registered()              { m.registeredTotal.Inc() }
func (m *coopMetrics) Deregistered(reason string) { m.deregisteredTotal.WithLabelValues(reason).Inc() }
func (m *coopMetrics) Live(count int)           { m.live.Set(float64(count)) }

var _ coop.CoopMetrics = (*coopMetrics)(nil)
