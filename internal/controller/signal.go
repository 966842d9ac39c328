package controller

import (
	"context"
	"sync"
)

// Signal holds a current value and fan-outs updates to all active
// subscribers. Controllers are the single writer; the UI collaborator
// reads the current value or subscribes for changes.
type Signal[T any] struct {
	mu   sync.RWMutex
	val  T
	subs map[int]chan T
	next int
}

// NewSignal creates a signal holding the initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{val: initial, subs: make(map[int]chan T)}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.val
}

// Set stores the value and fan-outs it to all subscribers.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val = v
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Drop when subscriber is slow to avoid blocking the writer.
		}
	}
}

// Subscribe registers a subscriber and returns a channel which receives
// every subsequent value. The channel is closed when the provided
// context ends.
func (s *Signal[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}
