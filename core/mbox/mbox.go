package mbox

import (
	"context"
	"fmt"

	"github.com/codewandler/actr-go/core/msg"
	"github.com/codewandler/actr-go/core/queue"
)

// Kind distinguishes shared mailboxes from agent-owned direct mailboxes.
type Kind int

const (
	// MPMC is a shared mailbox: any producer, 0..N subscribers.
	MPMC Kind = iota
	// MPSC is a direct mailbox: any producer, exactly one subscriber for
	// the lifetime of its owning agent.
	MPSC
)

func (k Kind) String() string {
	if k == MPSC {
		return "mpsc"
	}
	return "mpmc"
}

// Subscriber receives offered messages from a mailbox. Agents implement it.
//
// OfferMessage runs the subscriber-side delivery pipeline (delivery filter,
// message limit, demand construction) and returns true when a demand was
// enqueued. On false no demand was enqueued (the message was rejected,
// dropped, or rerouted by a limit's overflow action) and, for service
// requests, the caller still owns the future.
type Subscriber interface {
	SubscriberID() uint64
	OfferMessage(mboxID uint64, m *msg.Message, kind queue.Kind, f *msg.Future) bool
}

// Mbox is a delivery endpoint.
type Mbox interface {
	ID() uint64
	Name() string // empty for anonymous and direct mailboxes
	Kind() Kind

	// Subscribe adds s to the subscriber set. Fails on direct mailboxes.
	Subscribe(s Subscriber) error
	// Unsubscribe removes s. No-op if not subscribed.
	Unsubscribe(s Subscriber)

	// Deliver wraps payload into a message and delivers it.
	Deliver(payload any)
	// DeliverMsg delivers an already-built message to all subscribers.
	DeliverMsg(m *msg.Message)

	// Request delivers payload as a service request and returns the future
	// carrying the handler's result. The future is always resolved
	// eventually, even when no handler runs.
	Request(payload any) *msg.Future
	// RequestMsg is Request for an already-built message.
	RequestMsg(m *msg.Message) *msg.Future
}

// SendSignal delivers the payload-free signal S through mb.
func SendSignal[S any](mb Mbox) {
	mb.DeliverMsg(msg.NewSignal[S]())
}

// Request sends a service request through mb and awaits a result of type R.
func Request[R any](ctx context.Context, mb Mbox, payload any) (R, error) {
	var zero R
	v, err := mb.Request(payload).Await(ctx)
	if err != nil {
		return zero, err
	}
	r, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("service result is %T, want %T", v, zero)
	}
	return r, nil
}
