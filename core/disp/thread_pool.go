package disp

import (
	"sync"
	"sync/atomic"

	"github.com/codewandler/actr-go/core/queue"
)

// ThreadPool runs K work threads over a shared ready queue of agents.
// Serial execution per agent is enforced with an activity flag: an agent
// whose flag is set is already in the ready queue or being served, so it is
// never picked up twice. A worker that finishes its batch re-queues the
// agent with the flag still set if demands remain, and clears the flag
// otherwise.
type ThreadPool struct {
	opts    Options
	threads int

	closed atomic.Bool

	mu    sync.Mutex
	cond  *sync.Cond
	ready []*poolSlot
	slots map[queue.Executor]*poolSlot

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// poolSlot is the per-agent demand list plus the activity flag.
type poolSlot struct {
	exec queue.Executor

	mu        sync.Mutex
	demands   []queue.Demand
	scheduled bool
}

// NewThreadPool creates the dispatcher and starts threads work threads.
func NewThreadPool(opts Options, threads int) *ThreadPool {
	if threads <= 0 {
		threads = 4
	}
	d := &ThreadPool{
		opts:    opts.withDefaults("thread_pool"),
		threads: threads,
		slots:   make(map[queue.Executor]*poolSlot),
	}
	d.cond = sync.NewCond(&d.mu)
	d.opts.Metrics.WorkersActive(d.opts.Name, threads)
	for i := 0; i < threads; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

type poolQueue struct {
	d    *ThreadPool
	slot *poolSlot
}

func (q poolQueue) Push(dem queue.Demand) bool { return q.d.push(q.slot, dem) }

// Bind implements Dispatcher.
func (d *ThreadPool) Bind(e queue.Executor) (queue.EventQueue, error) {
	if d.closed.Load() {
		return nil, ErrDispatcherClosed
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	slot, ok := d.slots[e]
	if !ok {
		slot = &poolSlot{exec: e}
		d.slots[e] = slot
	}
	return poolQueue{d: d, slot: slot}, nil
}

// Unbind implements Dispatcher.
func (d *ThreadPool) Unbind(e queue.Executor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.slots, e)
}

func (d *ThreadPool) push(slot *poolSlot, dem queue.Demand) bool {
	if d.closed.Load() {
		return false
	}

	slot.mu.Lock()
	slot.demands = append(slot.demands, dem)
	enqueue := !slot.scheduled
	if enqueue {
		slot.scheduled = true
	}
	slot.mu.Unlock()

	if enqueue {
		d.mu.Lock()
		d.ready = append(d.ready, slot)
		d.cond.Signal()
		d.mu.Unlock()
	}
	return true
}

func (d *ThreadPool) work() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for len(d.ready) == 0 && !d.closed.Load() {
			d.cond.Wait()
		}
		if len(d.ready) == 0 {
			// closed and drained
			d.mu.Unlock()
			return
		}
		slot := d.ready[0]
		d.ready = d.ready[1:]
		d.mu.Unlock()

		d.serve(slot)
	}
}

// serve executes one batch for slot, then yields the work thread to the
// next ready agent.
func (d *ThreadPool) serve(slot *poolSlot) {
	closing := d.closed.Load()

	slot.mu.Lock()
	n := len(slot.demands)
	if n > d.opts.BatchSize {
		n = d.opts.BatchSize
	}
	batch := make([]queue.Demand, n)
	copy(batch, slot.demands[:n])
	rest := copy(slot.demands, slot.demands[n:])
	slot.demands = slot.demands[:rest]
	slot.mu.Unlock()

	for _, dem := range batch {
		execute(dem, closing, d.opts.Metrics)
	}

	slot.mu.Lock()
	again := len(slot.demands) > 0
	if !again {
		slot.scheduled = false
	}
	slot.mu.Unlock()

	if again {
		d.mu.Lock()
		d.ready = append(d.ready, slot)
		d.cond.Signal()
		d.mu.Unlock()
	}
}

// Shutdown implements Dispatcher.
func (d *ThreadPool) Shutdown() {
	d.stopOnce.Do(func() {
		d.closed.Store(true)
		d.mu.Lock()
		d.cond.Broadcast()
		d.mu.Unlock()
		d.wg.Wait()

		// demands that never made it into the ready queue
		d.mu.Lock()
		slots := make([]*poolSlot, 0, len(d.slots))
		for _, s := range d.slots {
			slots = append(slots, s)
		}
		d.mu.Unlock()
		for _, s := range slots {
			s.mu.Lock()
			rest := s.demands
			s.demands = nil
			s.mu.Unlock()
			for _, dem := range rest {
				execute(dem, true, d.opts.Metrics)
			}
		}
		d.opts.Metrics.WorkersActive(d.opts.Name, 0)
	})
}
