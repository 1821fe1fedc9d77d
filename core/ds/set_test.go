package ds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_insertionOrder(t *testing.T) {
	s := NewSet[string]()
	s.Add("c")
	s.Add("a")
	s.Add("b")
	s.Add("a") // duplicate, no-op

	require.Equal(t, []string{"c", "a", "b"}, s.Values())
	require.Equal(t, 3, s.Len())
}

func TestSet_remove(t *testing.T) {
	s := NewSet(1, 2, 3, 4)
	s.Remove(2, 4, 99)

	require.Equal(t, []int{1, 3}, s.Values())
	require.False(t, s.Contains(2))
	require.True(t, s.Contains(3))
}

func TestSet_forEach(t *testing.T) {
	s := NewSet("x", "y", "z")
	var got []string
	s.ForEach(func(v string) { got = append(got, v) })
	require.Equal(t, []string{"x", "y", "z"}, got)
}

func TestSet_copyIsIndependent(t *testing.T) {
	s := NewSet(1, 2)
	c := s.Copy()
	c.Add(3)

	require.Equal(t, 2, s.Len())
	require.Equal(t, 3, c.Len())
}

func TestSet_clear(t *testing.T) {
	s := NewSet(1, 2)
	s.Clear()
	require.True(t, s.IsEmpty())
	s.Add(5)
	require.Equal(t, []int{5}, s.Values())
}
