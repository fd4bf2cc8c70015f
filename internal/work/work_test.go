package work

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	var w Work[int]
	w.Init(slices.Values([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.Equal(t, 10, w.Len())

	var (
		mu  sync.Mutex
		got []int
	)
	err := w.Do(3, func(item int) error {
		mu.Lock()
		got = append(got, item)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	slices.Sort(got)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
	require.Zero(t, w.Reset().Len())
}

func TestDoLimit(t *testing.T) {
	var w Work[int]
	w.Init(slices.Values(make([]int, 64)))
	var cur, peak atomic.Int32
	err := w.Do(4, func(int) error {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		cur.Add(-1)
		return nil
	})
	require.NoError(t, err)
	require.LessOrEqual(t, peak.Load(), int32(4))
}

func TestDoStopsAfterFailure(t *testing.T) {
	var w Work[int]
	w.Init(slices.Values([]int{0, 1, 2, 3, 4, 5, 6, 7}))
	bad := errors.New("bad item")
	var calls atomic.Int32
	err := w.Do(1, func(item int) error {
		calls.Add(1)
		if item == 2 {
			return bad
		}
		return nil
	})
	require.ErrorIs(t, err, bad)
	// with a single worker nothing after the failing item starts
	require.Equal(t, int32(3), calls.Load())
}

func TestDoPanicsOnZeroWorkers(t *testing.T) {
	var w Work[int]
	require.Panics(t, func() { _ = w.Do(0, func(int) error { return nil }) })
}
