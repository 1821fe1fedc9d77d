package mbox

import (
	"github.com/codewandler/actr-go/core/msg"
	"github.com/codewandler/actr-go/core/queue"
)

// mpsc is an agent's direct mailbox: the owner is the only subscriber, set
// at creation, so delivery skips subscriber iteration entirely.
type mpsc struct {
	id      uint64
	owner   Subscriber
	tracer  Tracer
	metrics MboxMetrics
}

func newMPSC(id uint64, owner Subscriber, tracer Tracer, metrics MboxMetrics) *mpsc {
	return &mpsc{id: id, owner: owner, tracer: tracer, metrics: metrics}
}

func (m *mpsc) ID() uint64   { return m.id }
func (m *mpsc) Name() string { return "" }
func (m *mpsc) Kind() Kind   { return MPSC }

func (m *mpsc) Subscribe(Subscriber) error { return ErrDirectSubscription }
func (m *mpsc) Unsubscribe(Subscriber)     {}

func (m *mpsc) Deliver(payload any) { m.DeliverMsg(msg.New(payload)) }

func (m *mpsc) DeliverMsg(message *msg.Message) {
	m.owner.OfferMessage(m.id, message, queue.KindEvent, nil)
	m.tracer.Delivered(m.id, message.T.Name, 1)
	m.metrics.MessageDelivered(message.T.Name, 1)
}

func (m *mpsc) Request(payload any) *msg.Future { return m.RequestMsg(msg.New(payload)) }

func (m *mpsc) RequestMsg(message *msg.Message) *msg.Future {
	f := msg.NewFuture()
	m.metrics.ServiceRequested(message.T.Name)
	if !m.owner.OfferMessage(m.id, message, queue.KindService, f) {
		f.Fail(msg.ErrServiceSkipped)
	}
	return f
}
