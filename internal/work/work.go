package work

import (
	"iter"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Work manages a set of work items to be executed in parallel, at most once each.
type Work[T any] struct {
	todo []T // items yet to be run
}

// Init initializes w with todo work items
func (w *Work[T]) Init(todo iter.Seq[T]) {
	for i := range todo {
		w.todo = append(w.todo, i)
	}
}

func (w *Work[T]) Reset() *Work[T] {
	w.todo = w.todo[:0]
	return w
}

// Len returns number of pending items.
func (w *Work[T]) Len() int {
	return len(w.todo)
}

// Do calls f for every item using at most n goroutines and waits for all
// started calls to return.
//
// Once a call fails no further items are started. Calls already running are
// left to finish. The first error observed is returned.
func (w *Work[T]) Do(n int, f func(item T) error) error {
	if n < 1 {
		panic("work.Do: n < 1")
	}

	var (
		g      errgroup.Group
		failed atomic.Bool
	)
	g.SetLimit(n)

	for i := range w.todo {
		if failed.Load() {
			break
		}
		item := w.todo[i]
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			err := f(item)
			if err != nil {
				failed.Store(true)
			}
			return err
		})
	}
	return g.Wait()
}
