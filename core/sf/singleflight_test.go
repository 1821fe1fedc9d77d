package sf

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSingleflight_dedups(t *testing.T) {
	s := New[int]()
	var calls atomic.Int32
	gate := make(chan struct{})
	entered := make(chan struct{})

	const n = 16
	var wg, started sync.WaitGroup
	results := make([]int, n)
	wg.Add(n)
	started.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			started.Done()
			v, err := s.Do("key", func() (int, error) {
				if calls.Add(1) == 1 {
					close(entered)
				}
				<-gate
				return 42, nil
			})
			require.NoError(t, err)
			results[i] = v
		}()
	}

	// keep the first call in flight until every goroutine has joined it
	started.Wait()
	<-entered
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestSingleflight_distinctKeys(t *testing.T) {
	s := New[string]()

	a, err := s.Do("a", func() (string, error) { return "va", nil })
	require.NoError(t, err)
	b, err := s.Do("b", func() (string, error) { return "vb", nil })
	require.NoError(t, err)

	require.Equal(t, "va", a)
	require.Equal(t, "vb", b)
}
