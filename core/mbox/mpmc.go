package mbox

import (
	"sync"

	"github.com/codewandler/actr-go/core/ds"
	"github.com/codewandler/actr-go/core/msg"
	"github.com/codewandler/actr-go/core/queue"
)

// mpmc is a shared mailbox. The mutex is held across the whole fan-out so
// pushes from one deliver call form an atomic batch relative to concurrent
// delivers on the same mailbox. Subscribers are iterated in registration
// order.
type mpmc struct {
	id      uint64
	name    string
	tracer  Tracer
	metrics MboxMetrics

	mu    sync.Mutex
	order *ds.Set[uint64]
	subs  map[uint64]Subscriber
}

func newMPMC(id uint64, name string, tracer Tracer, metrics MboxMetrics) *mpmc {
	return &mpmc{
		id:      id,
		name:    name,
		tracer:  tracer,
		metrics: metrics,
		order:   ds.NewSet[uint64](),
		subs:    make(map[uint64]Subscriber),
	}
}

func (m *mpmc) ID() uint64   { return m.id }
func (m *mpmc) Name() string { return m.name }
func (m *mpmc) Kind() Kind   { return MPMC }

func (m *mpmc) Subscribe(s Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[s.SubscriberID()] = s
	m.order.Add(s.SubscriberID())
	return nil
}

func (m *mpmc) Unsubscribe(s Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, s.SubscriberID())
	m.order.Remove(s.SubscriberID())
}

func (m *mpmc) Deliver(payload any) { m.DeliverMsg(msg.New(payload)) }

func (m *mpmc) DeliverMsg(message *msg.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order.ForEach(func(id uint64) {
		m.subs[id].OfferMessage(m.id, message, queue.KindEvent, nil)
	})
	m.tracer.Delivered(m.id, message.T.Name, m.order.Len())
	m.metrics.MessageDelivered(message.T.Name, m.order.Len())
}

func (m *mpmc) Request(payload any) *msg.Future { return m.RequestMsg(msg.New(payload)) }

func (m *mpmc) RequestMsg(message *msg.Message) *msg.Future {
	f := msg.NewFuture()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.ServiceRequested(message.T.Name)

	switch m.order.Len() {
	case 0:
		f.Fail(msg.ErrServiceNotHandled)
	case 1:
		target := m.subs[m.order.Values()[0]]
		if !target.OfferMessage(m.id, message, queue.KindService, f) {
			f.Fail(msg.ErrServiceSkipped)
		}
	default:
		f.Fail(msg.ErrTooManyServiceHandlers)
	}
	return f
}
