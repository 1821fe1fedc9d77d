package agent

import (
	"sort"

	"github.com/codewandler/actr-go/core/msg"
)

// StorageKind selects the subscription-storage implementation for an agent.
type StorageKind int

const (
	// StorageHash keys subscriptions in a hash map. The default; O(1)
	// lookup regardless of subscription count.
	StorageHash StorageKind = iota
	// StorageArray keeps subscriptions in a sorted slice. Better cache
	// locality for agents with a handful of subscriptions.
	StorageArray
)

type subKey struct {
	mbox  uint64
	t     msg.Type
	state int
}

// storage indexes an agent's subscriptions: (mailbox, message type, state)
// to handler. Accessed only from the agent's mutable thread; no locking.
//
// Find does not fall back to the default state — a missed lookup is a
// missed lookup.
type storage interface {
	insert(k subKey, h Handler) error
	drop(k subKey) bool
	dropAllStates(mboxID uint64, t msg.Type) int
	find(mboxID uint64, t msg.Type, state int) (Handler, bool)
	countForMbox(mboxID uint64) int
	clear()
}

func newStorage(kind StorageKind) storage {
	if kind == StorageArray {
		return &arrayStorage{}
	}
	return hashStorage{}
}

// === hash implementation ===

type hashStorage map[subKey]Handler

func (s hashStorage) insert(k subKey, h Handler) error {
	if _, ok := s[k]; ok {
		return ErrSubscriptionExists
	}
	s[k] = h
	return nil
}

func (s hashStorage) drop(k subKey) bool {
	if _, ok := s[k]; !ok {
		return false
	}
	delete(s, k)
	return true
}

func (s hashStorage) dropAllStates(mboxID uint64, t msg.Type) int {
	n := 0
	for k := range s {
		if k.mbox == mboxID && k.t == t {
			delete(s, k)
			n++
		}
	}
	return n
}

func (s hashStorage) find(mboxID uint64, t msg.Type, state int) (Handler, bool) {
	h, ok := s[subKey{mbox: mboxID, t: t, state: state}]
	return h, ok
}

func (s hashStorage) countForMbox(mboxID uint64) int {
	n := 0
	for k := range s {
		if k.mbox == mboxID {
			n++
		}
	}
	return n
}

func (s hashStorage) clear() {
	for k := range s {
		delete(s, k)
	}
}

// === sorted-array implementation ===

type subEntry struct {
	k subKey
	h Handler
}

type arrayStorage struct {
	entries []subEntry
}

// keyLess orders by (mbox, type name, state). Type pointers have no stable
// order, the interned name does.
func keyLess(a, b subKey) bool {
	if a.mbox != b.mbox {
		return a.mbox < b.mbox
	}
	if a.t != b.t {
		return a.t.Name < b.t.Name
	}
	return a.state < b.state
}

func (s *arrayStorage) search(k subKey) (int, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return !keyLess(s.entries[i].k, k)
	})
	return i, i < len(s.entries) && s.entries[i].k == k
}

func (s *arrayStorage) insert(k subKey, h Handler) error {
	i, found := s.search(k)
	if found {
		return ErrSubscriptionExists
	}
	s.entries = append(s.entries, subEntry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = subEntry{k: k, h: h}
	return nil
}

func (s *arrayStorage) drop(k subKey) bool {
	i, found := s.search(k)
	if !found {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

func (s *arrayStorage) dropAllStates(mboxID uint64, t msg.Type) int {
	kept := s.entries[:0]
	n := 0
	for _, e := range s.entries {
		if e.k.mbox == mboxID && e.k.t == t {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return n
}

func (s *arrayStorage) find(mboxID uint64, t msg.Type, state int) (Handler, bool) {
	i, found := s.search(subKey{mbox: mboxID, t: t, state: state})
	if !found {
		return Handler{}, false
	}
	return s.entries[i].h, true
}

func (s *arrayStorage) countForMbox(mboxID uint64) int {
	n := 0
	for _, e := range s.entries {
		if e.k.mbox == mboxID {
			n++
		}
	}
	return n
}

func (s *arrayStorage) clear() { s.entries = nil }
