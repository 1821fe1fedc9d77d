// Package prometheus provides Prometheus implementations of the metrics
// interfaces for all three runtime pillars (mailbox, dispatcher,
// cooperation).
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/metrics"
)

// timer wraps a Prometheus histogram to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1,
}

// AllMetrics holds Prometheus implementations for all three pillars.
type AllMetrics struct {
	Mbox       *mboxMetrics
	Dispatcher *dispMetrics
	Coop       *coopMetrics
}

// NewAllMetrics creates Prometheus metrics for all three pillars. Pass the
// fields into env.Options when constructing the environment.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Mbox:       NewMboxMetrics(reg).(*mboxMetrics),
		Dispatcher: NewDispatcherMetrics(reg).(*dispMetrics),
		Coop:       NewCoopMetrics(reg).(*coopMetrics),
	}
}
