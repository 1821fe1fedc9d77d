package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/msg"
)

type (
	alpha struct{ A int }
	beta  struct{ B int }
)

func storages() map[string]storage {
	return map[string]storage{
		"hash":  newStorage(StorageHash),
		"array": newStorage(StorageArray),
	}
}

func TestStorage_insertFind(t *testing.T) {
	for name, s := range storages() {
		t.Run(name, func(t *testing.T) {
			ta, tb := msg.TypeFor[alpha](), msg.TypeFor[beta]()
			h := On(func(alpha) error { return nil })

			require.NoError(t, s.insert(subKey{mbox: 1, t: ta, state: 0}, h))
			require.NoError(t, s.insert(subKey{mbox: 1, t: ta, state: 1}, h))
			require.NoError(t, s.insert(subKey{mbox: 2, t: tb, state: 0}, h))

			_, ok := s.find(1, ta, 0)
			require.True(t, ok)
			_, ok = s.find(1, ta, 2)
			require.False(t, ok)
			_, ok = s.find(9, ta, 0)
			require.False(t, ok)
		})
	}
}

func TestStorage_duplicate(t *testing.T) {
	for name, s := range storages() {
		t.Run(name, func(t *testing.T) {
			k := subKey{mbox: 1, t: msg.TypeFor[alpha](), state: 0}
			h := On(func(alpha) error { return nil })

			require.NoError(t, s.insert(k, h))
			require.ErrorIs(t, s.insert(k, h), ErrSubscriptionExists)
		})
	}
}

func TestStorage_drop(t *testing.T) {
	for name, s := range storages() {
		t.Run(name, func(t *testing.T) {
			k := subKey{mbox: 1, t: msg.TypeFor[alpha](), state: 0}
			h := On(func(alpha) error { return nil })

			require.False(t, s.drop(k))
			require.NoError(t, s.insert(k, h))
			require.True(t, s.drop(k))
			_, ok := s.find(1, msg.TypeFor[alpha](), 0)
			require.False(t, ok)
		})
	}
}

func TestStorage_dropAllStates(t *testing.T) {
	for name, s := range storages() {
		t.Run(name, func(t *testing.T) {
			ta, tb := msg.TypeFor[alpha](), msg.TypeFor[beta]()
			h := On(func(alpha) error { return nil })

			require.NoError(t, s.insert(subKey{mbox: 1, t: ta, state: 0}, h))
			require.NoError(t, s.insert(subKey{mbox: 1, t: ta, state: 1}, h))
			require.NoError(t, s.insert(subKey{mbox: 1, t: tb, state: 0}, h))

			require.Equal(t, 2, s.dropAllStates(1, ta))
			require.Equal(t, 1, s.countForMbox(1))

			_, ok := s.find(1, tb, 0)
			require.True(t, ok)
		})
	}
}
