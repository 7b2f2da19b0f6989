package events

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives the single opaque value passed to Emit.
type Handler func(payload any)

// Subscription identifies one registered handler so it can be removed.
type Subscription struct {
	ID    string
	Event string
}

type subscriber struct {
	id string
	fn Handler
}

// Emitter is a minimal synchronous multicast: per event name an ordered list
// of subscribers, invoked in registration order. No wildcards, no once-only
// subscriptions, no back-pressure.
type Emitter struct {
	mu   sync.Mutex
	subs map[string][]subscriber
}

func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[string][]subscriber)}
}

// On registers fn for event and returns its subscription handle.
func (e *Emitter) On(event string, fn Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.Must(uuid.NewV7()).String()
	e.subs[event] = append(e.subs[event], subscriber{id: id, fn: fn})
	return Subscription{ID: id, Event: event}
}

// Off removes the subscription. Removing one that is not registered is a
// no-op and returns false.
func (e *Emitter) Off(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.subs[sub.Event]
	for i, s := range list {
		if s.id == sub.ID {
			e.subs[sub.Event] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Emit invokes all current subscribers of event synchronously, in
// registration order. It iterates a snapshot of the list so a handler that
// unsubscribes itself mid-dispatch does not disturb co-subscribers. Returns
// the number of handlers invoked.
func (e *Emitter) Emit(event string, payload any) int {
	e.mu.Lock()
	list := e.subs[event]
	snapshot := make([]subscriber, len(list))
	copy(snapshot, list)
	e.mu.Unlock()

	for _, s := range snapshot {
		s.fn(payload)
	}
	return len(snapshot)
}

// SubscriberCount returns the number of handlers registered for event.
func (e *Emitter) SubscriberCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs[event])
}
