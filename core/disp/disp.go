package disp

import (
	"errors"
	"log/slog"

	"github.com/codewandler/actr-go/core/queue"
)

// ErrDispatcherClosed is returned by Bind after Shutdown.
var ErrDispatcherClosed = errors.New("dispatcher is shut down")

// Dispatcher binds executors (agents) to event queues served by its work
// threads.
type Dispatcher interface {
	// Bind attaches e and returns the event queue it must push demands to.
	// An executor is served by exactly one work thread at a time.
	Bind(e queue.Executor) (queue.EventQueue, error)
	// Unbind detaches an executor. Used when registration rolls back;
	// normally the binding dies with the agent's finish demand.
	Unbind(e queue.Executor)
	// Shutdown stops the work threads: remaining finish demands are
	// executed, remaining user demands discarded. Blocks until all work
	// threads exit. Idempotent.
	Shutdown()
}

// Options configures a dispatcher. Zero values get defaults.
type Options struct {
	Name      string
	Logger    *slog.Logger
	Metrics   DispatcherMetrics
	BatchSize int // demands executed per agent pickup, default 16
}

func (o Options) withDefaults(kind string) Options {
	if o.Name == "" {
		o.Name = kind
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Logger = o.Logger.With(slog.String("dispatcher", o.Name))
	if o.Metrics == nil {
		o.Metrics = NopDispatcherMetrics()
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 16
	}
	return o
}

// execute runs one demand, or — when the dispatcher is closing — runs only
// finish demands and discards the rest.
func execute(d queue.Demand, closing bool, m DispatcherMetrics) {
	if closing && d.Kind != queue.KindFinish {
		queue.Discard(d)
		m.DemandDiscarded(d.Kind.String())
		return
	}
	t := m.DemandDuration(d.Kind.String())()
	d.Target.ExecDemand(d)
	t.ObserveDuration()
}
