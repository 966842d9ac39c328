package controller

import (
	"sync"

	"nimbustalk.org/internal/ids"
)

// EventKind labels a one-shot event.
type EventKind int

const (
	// EventLoginSucceeded fires exactly once per successful login.
	EventLoginSucceeded EventKind = iota
	// EventRegistrationSucceeded fires exactly once per successful signup.
	EventRegistrationSucceeded
)

// Event is a pending one-shot occurrence. Each carries a unique id so
// consumers can deduplicate across re-subscription.
type Event struct {
	ID      string
	Kind    EventKind
	Message string
}

// Events is a queue of pending one-shot events drained explicitly by
// the consumer. Draining is the reset: an event observed once is gone,
// so re-observing after a configuration change cannot replay it.
type Events struct {
	mu      sync.Mutex
	pending []Event
}

// NewEvents creates an empty queue.
func NewEvents() *Events { return &Events{} }

// Emit appends an event to the queue.
func (e *Events) Emit(kind EventKind, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, Event{ID: ids.New(), Kind: kind, Message: message})
}

// Drain returns all pending events and clears the queue.
func (e *Events) Drain() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pending
	e.pending = nil
	return out
}

// Pending reports the number of undrained events.
func (e *Events) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
