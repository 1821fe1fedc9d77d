package queue

import "sync"

// FIFO is an unbounded multi-producer demand queue with blocking batch pop.
// Push/pop are linearizable; demands come out in push order.
type FIFO struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Demand
	closed bool
}

// NewFIFO creates an empty queue.
func NewFIFO() *FIFO {
	q := &FIFO{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a demand. Returns false if the queue is closed.
func (q *FIFO) Push(d Demand) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, d)
	q.cond.Signal()
	return true
}

// PopWait removes up to max demands, blocking while the queue is empty and
// open. Returns ok=false once the queue is closed and drained.
func (q *FIFO) PopWait(max int) ([]Demand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	return q.popLocked(max), true
}

// TryPop removes up to max demands without blocking.
func (q *FIFO) TryPop(max int) []Demand {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.popLocked(max)
}

func (q *FIFO) popLocked(max int) []Demand {
	n := len(q.items)
	if max > 0 && n > max {
		n = max
	}
	batch := make([]Demand, n)
	copy(batch, q.items[:n])
	rest := copy(q.items, q.items[n:])
	q.items = q.items[:rest]
	return batch
}

// Len returns the number of queued demands.
func (q *FIFO) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting new demands and wakes all blocked consumers.
// Already-queued demands remain poppable. Idempotent.
func (q *FIFO) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
