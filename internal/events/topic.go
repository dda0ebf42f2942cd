// Package events provides a small typed publish/subscribe topic used to pass
// settings and weather changes between components without globals.
package events

import "sync"

// Topic delivers published values to subscribers in registration order.
// Delivery is synchronous on the publishing goroutine.
type Topic[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// NewTopic creates an empty Topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{}
}

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscription[T]{id: id, fn: fn})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber with v.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	subs := make([]subscription[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}
