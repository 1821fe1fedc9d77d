package disp

import "github.com/codewandler/actr-go/core/metrics"

// DispatcherMetrics defines the metrics interface for the dispatcher
// pillar. All methods are thread-safe.
type DispatcherMetrics interface {
	// QueueDepth tracks the pending-demand count of a dispatcher.
	QueueDepth(dispatcher string, depth int)
	// DemandDuration times the execution of one demand.
	DemandDuration(kind string) metrics.TimerFunc
	// DemandDiscarded counts demands dropped during shutdown or agent
	// finishing.
	DemandDiscarded(kind string)
	// WorkersActive tracks live work threads of a dispatcher.
	WorkersActive(dispatcher string, count int)
}

type nopDispatcherMetrics struct{}

func (nopDispatcherMetrics) QueueDepth(string, int) {}
func (nopDispatcherMetrics) DemandDuration(string) metrics.TimerFunc {
	return metrics.NopTimerFunc()
}
func (nopDispatcherMetrics) DemandDiscarded(string)    {}
func (nopDispatcherMetrics) WorkersActive(string, int) {}

// NopDispatcherMetrics returns a no-op DispatcherMetrics implementation.
func NopDispatcherMetrics() DispatcherMetrics { return nopDispatcherMetrics{} }
