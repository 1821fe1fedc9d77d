package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/disp"
	"github.com/codewandler/actr-go/core/metrics"
)

// dispMetrics implements disp.DispatcherMetrics using Prometheus.
type dispMetrics struct {
	queueDepth     *prometheus.GaugeVec
	demandDuration *prometheus.HistogramVec
	discardedTotal *prometheus.CounterVec
	workersActive  *prometheus.GaugeVec
}

// NewDispatcherMetrics creates a new Prometheus implementation of
// DispatcherMetrics.
func NewDispatcherMetrics(reg prometheus.Registerer) disp.DispatcherMetrics {
	m := &dispMetrics{
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actr_disp_queue_depth",
			Help: "Pending demands per dispatcher",
		}, []string{"dispatcher"}),

		demandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actr_disp_demand_duration_seconds",
			Help:    "Demand execution time in seconds",
			Buckets: defaultBuckets,
		}, []string{"kind"}),

		discardedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_disp_demands_discarded_total",
			Help: "Demands discarded during shutdown or agent finishing",
		}, []string{"kind"}),

		workersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actr_disp_workers_active",
			Help: "Live work threads per dispatcher",
		}, []string{"dispatcher"}),
	}

	reg.MustRegister(m.queueDepth, m.demandDuration, m.discardedTotal, m.workersActive)
	return m
}

func (m *dispMetrics) QueueDepth(dispatcher string, depth int) {
	m.queueDepth.WithLabelValues(dispatcher).Set(float64(depth))
}

func (m *dispMetrics) DemandDuration(kind string) metrics.TimerFunc {
	h := m.demandDuration.WithLabelValues(kind)
	return func() metrics.Timer { return newTimer(h) }
}

func (m *dispMetrics) DemandDiscarded(kind string) {
	m.discardedTotal.WithLabelValues(kind).Inc()
}

func (m *dispMetrics) WorkersActive(dispatcher string, count int) {
	m.workersActive.WithLabelValues(dispatcher).Set(float64(count))
}

var _ disp.DispatcherMetrics = (*dispMetrics)(nil)
