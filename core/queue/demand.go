// Package queue defines execution demands — the units of work dispatchers
// feed to agents — and the FIFO demand queue they travel through.
package queue

import (
	"github.com/codewandler/actr-go/core/msg"
)

// Kind tells the executing agent what a demand asks for.
type Kind int

const (
	// KindStart runs the agent's start hook. Always the first demand an
	// agent executes.
	KindStart Kind = iota
	// KindFinish runs the agent's finish hook and releases the event-queue
	// binding. Always the last demand an agent executes.
	KindFinish
	// KindEvent invokes a user event handler.
	KindEvent
	// KindService invokes a user event handler and resolves the demand's
	// future with its result.
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindFinish:
		return "finish"
	case KindEvent:
		return "event"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Releasable is a reservation that must be released when the work it covers
// completes or is discarded. Message-limit counters implement it.
type Releasable interface{ Release() }

// Executor consumes demands. Agents implement it; dispatchers call it from
// their work threads, never concurrently for the same executor.
type Executor interface {
	// ExecDemand runs a single demand to completion.
	ExecDemand(d Demand)
	// Priority orders executors on priority-aware dispatchers. Higher wins.
	Priority() int
}

// Demand is one unit of work targeted at an agent. Immutable after enqueue.
type Demand struct {
	Target  Executor
	MboxID  uint64
	MsgType msg.Type
	Message *msg.Message
	Limit   Releasable // nil when the target has no limit for MsgType
	Kind    Kind
	Future  *msg.Future // set for KindService only
}

// Discard drops a demand without executing it: the limit reservation is
// released and a pending service future is failed so its sender unblocks.
func Discard(d Demand) {
	if d.Limit != nil {
		d.Limit.Release()
	}
	if d.Future != nil {
		d.Future.Fail(msg.ErrServiceSkipped)
	}
}

// EventQueue is the binding an agent pushes demands through. Dispatchers
// hand one to each agent they serve.
type EventQueue interface {
	// Push enqueues a demand. Returns false when the queue no longer
	// accepts demands (dispatcher shut down or binding released).
	Push(d Demand) bool
}
