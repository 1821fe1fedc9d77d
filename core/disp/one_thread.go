package disp

import (
	"sync"

	"github.com/codewandler/actr-go/core/agent"
	"github.com/codewandler/actr-go/core/queue"
)

// OneThread serves all bound agents from a single work thread. Demands are
// kept in one FIFO bucket per priority level; the worker always drains the
// highest non-empty bucket first, so a high-priority agent's demand runs
// before queued demands of lower-priority agents.
type OneThread struct {
	opts Options

	mu      sync.Mutex
	cond    *sync.Cond
	buckets [agent.PriorityMax + 1][]queue.Demand
	pending int
	closed  bool

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewOneThread creates the dispatcher and starts its work thread.
func NewOneThread(opts Options) *OneThread {
	d := &OneThread{
		opts:    opts.withDefaults("one_thread"),
		stopped: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	d.opts.Metrics.WorkersActive(d.opts.Name, 1)
	go d.work()
	return d
}

type oneThreadQueue struct{ d *OneThread }

func (q oneThreadQueue) Push(d queue.Demand) bool { return q.d.push(d) }

// Bind implements Dispatcher.
func (d *OneThread) Bind(queue.Executor) (queue.EventQueue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}
	return oneThreadQueue{d: d}, nil
}

// Unbind implements Dispatcher. The shared queue holds no per-agent
// resources, so there is nothing to release.
func (d *OneThread) Unbind(queue.Executor) {}

func (d *OneThread) push(dem queue.Demand) bool {
	prio := dem.Target.Priority()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.buckets[prio] = append(d.buckets[prio], dem)
	d.pending++
	d.opts.Metrics.QueueDepth(d.opts.Name, d.pending)
	d.cond.Signal()
	return true
}

// popLocked removes the oldest demand of the highest non-empty priority.
func (d *OneThread) popLocked() (queue.Demand, bool) {
	for p := agent.PriorityMax; p >= agent.PriorityMin; p-- {
		b := d.buckets[p]
		if len(b) == 0 {
			continue
		}
		dem := b[0]
		copy(b, b[1:])
		d.buckets[p] = b[:len(b)-1]
		d.pending--
		d.opts.Metrics.QueueDepth(d.opts.Name, d.pending)
		return dem, true
	}
	return queue.Demand{}, false
}

func (d *OneThread) work() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		for d.pending == 0 && !d.closed {
			d.cond.Wait()
		}
		closing := d.closed
		dem, ok := d.popLocked()
		d.mu.Unlock()

		if !ok {
			if closing {
				d.opts.Metrics.WorkersActive(d.opts.Name, 0)
				return
			}
			continue
		}
		execute(dem, closing, d.opts.Metrics)
	}
}

// Shutdown implements Dispatcher.
func (d *OneThread) Shutdown() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.cond.Broadcast()
		d.mu.Unlock()
	})
	<-d.stopped
}
