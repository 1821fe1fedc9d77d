package reflector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type (
	payload struct{ N int }
	marker  struct{}
)

func TestTypeInfo_interned(t *testing.T) {
	a := TypeInfoFor[payload]()
	b := TypeInfoOf(payload{N: 1})
	c := TypeInfoOf(&payload{N: 2})

	require.Same(t, a, b)
	require.Same(t, a, c)
	require.Contains(t, a.Name, "reflector.payload")
}

func TestTypeInfo_signal(t *testing.T) {
	require.True(t, TypeInfoFor[marker]().Signal)
	require.False(t, TypeInfoFor[payload]().Signal)
	require.False(t, TypeInfoFor[int]().Signal)
}

func TestTypeInfo_distinctTypes(t *testing.T) {
	require.NotSame(t, TypeInfoFor[payload](), TypeInfoFor[marker]())
}

func TestTypeInfo_nil(t *testing.T) {
	require.Nil(t, TypeInfoForType(nil))
}
