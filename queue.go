package server

import (
	"context"
	"sync"
)

// EventQueue is a FIFO hand-off point between pipeline workers. It is safe
// for concurrent producers and a single consumer; Take atomically waits for
// and removes the head so callers never race an emptiness check against the
// removal.
type EventQueue[T any] struct {
	mu    sync.Mutex
	items []T
	wake  chan struct{}
}

// NewEventQueue constructs an empty queue.
func NewEventQueue[T any]() *EventQueue[T] {
	return &EventQueue[T]{wake: make(chan struct{}, 1)}
}

// Push appends an item and wakes the consumer.
func (q *EventQueue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

// Take removes and returns the oldest item, blocking until one is available
// or ctx is cancelled.
func (q *EventQueue[T]) Take(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				// The single wake token may have been spent on this
				// item; re-arm it for the rest of the backlog.
				q.signal()
			}
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.wake:
		}
	}
}

// Len reports the number of pending items.
func (q *EventQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *EventQueue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
