package pools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	p := New(
		func() []int { return make([]int, 0, 4) },
		func(v []int) []int { return v[:0] },
	)
	v := p.Get()
	require.Empty(t, v)
	v = append(v, 1, 2, 3)
	p.Put(v)
	require.Empty(t, p.Get())
}

func TestBuffers(t *testing.T) {
	b := Buffers.Get()
	b.WriteString("hello")
	Buffers.Put(b)
	require.Zero(t, Buffers.Get().Len())
}
