package txstate

import "sync"

// Status is the last/current operation pair tracked for one session.
type Status struct {
	Last    Operation
	Current Operation
}

// Store holds the lifecycle status for one session. It is a dumb holder:
// the lifecycle controller is responsible for only writing valid
// transitions, the store performs no validation of its own.
type Store struct {
	mu        sync.Mutex
	status    Status
	listeners []func(Status)
}

// NewStore creates a store with both operations set to Idle.
func NewStore() *Store {
	return &Store{status: Status{Last: Idle, Current: Idle}}
}

// Set replaces both fields atomically. Listeners are notified only when the
// pair actually changed (value equality).
func (s *Store) Set(last, current Operation) {
	s.mu.Lock()
	next := Status{Last: last, Current: current}
	if s.status == next {
		s.mu.Unlock()
		return
	}
	s.status = next
	listeners := make([]func(Status), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Status returns the current pair by value.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Reset returns both fields to Idle. Views call this when a modal closes or
// a new attempt starts.
func (s *Store) Reset() {
	s.Set(Idle, Idle)
}

// OnChange registers a listener invoked after every effective change.
func (s *Store) OnChange(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
