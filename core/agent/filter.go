package agent

import (
	"sync"

	"github.com/codewandler/actr-go/core/mbox"
	"github.com/codewandler/actr-go/core/msg"
)

// Filter gates delivery of one message type from one shared mailbox. It
// runs on the sender's thread, so it must not touch agent state.
type Filter func(payload any) bool

type filterKey struct {
	mbox uint64
	t    msg.Type
}

// filterStore is read from arbitrary delivery threads and mutated from the
// agent's working thread.
type filterStore struct {
	mu      sync.RWMutex
	filters map[filterKey]Filter
}

func (fs *filterStore) set(k filterKey, f Filter) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.filters == nil {
		fs.filters = make(map[filterKey]Filter)
	}
	fs.filters[k] = f
}

func (fs *filterStore) drop(k filterKey) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.filters, k)
}

// allows reports whether the message passes the filter for (mboxID, t).
// No filter means pass.
func (fs *filterStore) allows(mboxID uint64, m *msg.Message) bool {
	fs.mu.RLock()
	f, ok := fs.filters[filterKey{mbox: mboxID, t: m.T}]
	fs.mu.RUnlock()
	if !ok {
		return true
	}
	return f(m.Payload)
}

// SetDeliveryFilter installs a predicate gating delivery of t from mb to
// this agent. Only shared mailboxes and non-signal types can be filtered.
func (a *Agent) SetDeliveryFilter(mb mbox.Mbox, t msg.Type, f Filter) error {
	if mb.Kind() == mbox.MPSC {
		return ErrFilterOnDirectMbox
	}
	if t.Signal {
		return ErrFilterOnSignal
	}
	if err := a.assertMutable(); err != nil {
		return err
	}
	a.filters.set(filterKey{mbox: mb.ID(), t: t}, f)
	return nil
}

// DropDeliveryFilter removes the filter for (mb, t), if any.
func (a *Agent) DropDeliveryFilter(mb mbox.Mbox, t msg.Type) error {
	if err := a.assertMutable(); err != nil {
		return err
	}
	a.filters.drop(filterKey{mbox: mb.ID(), t: t})
	return nil
}

// SetFilter is the typed form of [Agent.SetDeliveryFilter].
func SetFilter[T any](a *Agent, mb mbox.Mbox, pred func(T) bool) error {
	return a.SetDeliveryFilter(mb, msg.TypeFor[T](), func(payload any) bool {
		switch v := payload.(type) {
		case T:
			return pred(v)
		case *T:
			return pred(*v)
		default:
			return false
		}
	})
}
