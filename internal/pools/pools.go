// Package pools provides typed wrappers around sync.Pool.
package pools

import (
	"bytes"
	"sync"
)

// Pool is a typed sync.Pool. Items returned by Put are passed through reset
// before they become visible to Get again.
type Pool[T any] struct {
	init  func() T
	reset func(T) T
	base  sync.Pool
}

// New returns a pool creating fresh items with init.
func New[T any](init func() T, reset func(T) T) *Pool[T] {
	return &Pool[T]{init: init, reset: reset}
}

func (p *Pool[T]) Get() T {
	if v := p.base.Get(); v != nil {
		return v.(T)
	}
	return p.init()
}

func (p *Pool[T]) Put(v T) {
	p.base.Put(p.reset(v))
}

// Buffers holds scratch buffers for reading bitmap payloads and formatting
// listings.
var Buffers = New(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) *bytes.Buffer {
		b.Reset()
		return b
	},
)
