package mbox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/msg"
	"github.com/codewandler/actr-go/core/queue"
)

type note struct{ N int }

// recordingSub collects offered messages; accept toggles rejection.
type recordingSub struct {
	id     uint64
	accept bool

	mu   sync.Mutex
	got  []*msg.Message
	futs []*msg.Future
}

func newRecordingSub(id uint64) *recordingSub { return &recordingSub{id: id, accept: true} }

func (s *recordingSub) SubscriberID() uint64 { return s.id }

func (s *recordingSub) OfferMessage(mboxID uint64, m *msg.Message, kind queue.Kind, f *msg.Future) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accept {
		return false
	}
	s.got = append(s.got, m)
	if f != nil {
		s.futs = append(s.futs, f)
	}
	return true
}

func (s *recordingSub) received() []*msg.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*msg.Message(nil), s.got...)
}

func newTestRepo() *Repository { return NewRepository(RepositoryOptions{}) }

func TestMPMC_fanout(t *testing.T) {
	r := newTestRepo()
	mb := r.CreateAnonymous()

	a, b, c := newRecordingSub(1), newRecordingSub(2), newRecordingSub(3)
	require.NoError(t, mb.Subscribe(a))
	require.NoError(t, mb.Subscribe(b))
	require.NoError(t, mb.Subscribe(c))

	mb.Deliver(note{N: 7})

	for _, s := range []*recordingSub{a, b, c} {
		got := s.received()
		require.Len(t, got, 1)
		require.Equal(t, note{N: 7}, got[0].Payload)
	}

	// one shared instance across receivers
	require.Same(t, a.received()[0], b.received()[0])
}

func TestMPMC_unsubscribe(t *testing.T) {
	r := newTestRepo()
	mb := r.CreateAnonymous()
	a := newRecordingSub(1)
	require.NoError(t, mb.Subscribe(a))
	mb.Unsubscribe(a)

	mb.Deliver(note{N: 1})
	require.Empty(t, a.received())
}

func TestMPMC_requestSingleSubscriber(t *testing.T) {
	r := newTestRepo()
	mb := r.CreateAnonymous()
	a := newRecordingSub(1)
	require.NoError(t, mb.Subscribe(a))

	f := mb.Request(note{N: 1})
	require.Len(t, a.futs, 1)
	a.futs[0].Complete("ok")

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

func TestMPMC_requestNoSubscriber(t *testing.T) {
	r := newTestRepo()
	mb := r.CreateAnonymous()

	_, err := mb.Request(note{}).Await(t.Context())
	require.ErrorIs(t, err, msg.ErrServiceNotHandled)
}

func TestMPMC_requestManySubscribers(t *testing.T) {
	r := newTestRepo()
	mb := r.CreateAnonymous()
	require.NoError(t, mb.Subscribe(newRecordingSub(1)))
	require.NoError(t, mb.Subscribe(newRecordingSub(2)))

	_, err := mb.Request(note{}).Await(t.Context())
	require.ErrorIs(t, err, msg.ErrTooManyServiceHandlers)
}

func TestMPMC_requestRejected(t *testing.T) {
	r := newTestRepo()
	mb := r.CreateAnonymous()
	a := newRecordingSub(1)
	a.accept = false
	require.NoError(t, mb.Subscribe(a))

	_, err := mb.Request(note{}).Await(t.Context())
	require.ErrorIs(t, err, msg.ErrServiceSkipped)
}

func TestMPSC_singleOwner(t *testing.T) {
	r := newTestRepo()
	owner := newRecordingSub(1)
	mb := r.CreateDirect(owner)

	require.Equal(t, MPSC, mb.Kind())
	require.ErrorIs(t, mb.Subscribe(newRecordingSub(2)), ErrDirectSubscription)

	mb.Deliver(note{N: 3})
	mb.Deliver(note{N: 4})

	got := owner.received()
	require.Len(t, got, 2)
	require.Equal(t, note{N: 3}, got[0].Payload)
	require.Equal(t, note{N: 4}, got[1].Payload)
}

func TestRepository_namedCollision(t *testing.T) {
	r := newTestRepo()

	mb, err := r.CreateNamed("bus")
	require.NoError(t, err)
	require.Equal(t, "bus", mb.Name())

	_, err = r.CreateNamed("bus")
	require.ErrorIs(t, err, ErrNameCollision)

	found, ok := r.LookupNamed("bus")
	require.True(t, ok)
	require.Same(t, mb, found)
}

func TestRepository_uniqueIDs(t *testing.T) {
	r := newTestRepo()
	a := r.CreateAnonymous()
	b := r.CreateAnonymous()
	c := r.CreateDirect(newRecordingSub(1))

	require.NotEqual(t, a.ID(), b.ID())
	require.NotEqual(t, b.ID(), c.ID())
}

func TestSendSignal(t *testing.T) {
	type ping struct{}
	r := newTestRepo()
	mb := r.CreateAnonymous()
	a := newRecordingSub(1)
	require.NoError(t, mb.Subscribe(a))

	SendSignal[ping](mb)

	got := a.received()
	require.Len(t, got, 1)
	require.True(t, got[0].IsSignal())
}
