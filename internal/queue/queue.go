// Package queue provides the unbounded buffer shared between the tick path
// and the flush worker. Producers push from the tick thread; the worker takes
// the whole batch in one swap, so the tick side never waits on I/O.
package queue

import "sync"

// Queue is a thread-safe batch buffer.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends items in order.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain returns every buffered item in push order and leaves the queue
// empty. The caller owns the returned slice.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = make([]T, 0, cap(out))
	return out
}
