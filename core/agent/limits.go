package agent

import (
	"log/slog"
	"sync/atomic"

	"github.com/codewandler/actr-go/core/mbox"
	"github.com/codewandler/actr-go/core/msg"
)

// overflowAction says what to do with a message that would push a limit
// counter past its cap.
type overflowAction int

const (
	overflowDrop overflowAction = iota
	overflowAbort
	overflowRedirect
	overflowTransform
)

func (a overflowAction) String() string {
	switch a {
	case overflowAbort:
		return "abort"
	case overflowRedirect:
		return "redirect"
	case overflowTransform:
		return "transform"
	default:
		return "drop"
	}
}

// TransformFunc rewrites an overflowing message and names the mailbox the
// result is redirected through.
type TransformFunc func(m *msg.Message) (mbox.Mbox, *msg.Message)

// limitRecord bounds the in-flight demands for one message type. The
// counter is incremented when a demand is pushed and decremented when its
// execution completes or the push is discarded. reserve increments before
// it checks and undoes an overflowing claim, so under concurrent producers
// the counter may briefly read above cap and a racing sender may see an
// overflow; admitted in-flight demands never exceed cap.
type limitRecord struct {
	t         msg.Type
	cap       int64
	count     atomic.Int64
	action    overflowAction
	dest      mbox.Mbox
	transform TransformFunc
}

// Release implements queue.Releasable.
func (r *limitRecord) Release() { r.count.Add(-1) }

// reserve claims one slot. Returns false on overflow, with the claim undone.
func (r *limitRecord) reserve() bool {
	if r.count.Add(1) > r.cap {
		r.count.Add(-1)
		return false
	}
	return true
}

func (a *Agent) defineLimit(rec *limitRecord) error {
	if a.phase.Load() >= int32(phaseBound) {
		return ErrLimitAfterBind
	}
	if _, ok := a.limits[rec.t]; ok {
		return ErrLimitExists
	}
	a.limits[rec.t] = rec
	return nil
}

// LimitThenDrop caps in-flight demands for t; overflowing messages are
// silently dropped.
func (a *Agent) LimitThenDrop(t msg.Type, cap int) error {
	return a.defineLimit(&limitRecord{t: t, cap: int64(cap), action: overflowDrop})
}

// LimitThenAbort caps in-flight demands for t; an overflow terminates the
// process after logging.
func (a *Agent) LimitThenAbort(t msg.Type, cap int) error {
	return a.defineLimit(&limitRecord{t: t, cap: int64(cap), action: overflowAbort})
}

// LimitThenRedirect caps in-flight demands for t; overflowing messages are
// redelivered through dest. The redirected delivery is not re-checked
// against this limit; the receivers' own limits apply.
func (a *Agent) LimitThenRedirect(t msg.Type, cap int, dest mbox.Mbox) error {
	return a.defineLimit(&limitRecord{t: t, cap: int64(cap), action: overflowRedirect, dest: dest})
}

// LimitThenTransform caps in-flight demands for t; overflowing messages are
// rewritten by fn and the result delivered through the mailbox fn returns.
func (a *Agent) LimitThenTransform(t msg.Type, cap int, fn TransformFunc) error {
	return a.defineLimit(&limitRecord{t: t, cap: int64(cap), action: overflowTransform, transform: fn})
}

// applyOverflow handles an overflowing message on the sender's thread.
func (a *Agent) applyOverflow(rec *limitRecord, m *msg.Message) {
	a.tracer.LimitOverflow(m.T.Name, a.id, rec.action.String())

	switch rec.action {
	case overflowAbort:
		a.log.Error("message limit overflow", slog.String("msg_type", m.T.Name), slog.Int64("cap", rec.cap))
		abortProcess()
	case overflowRedirect:
		rec.dest.DeliverMsg(m)
	case overflowTransform:
		dest, out := rec.transform(m)
		dest.DeliverMsg(out)
	}
}
