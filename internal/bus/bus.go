// Package bus provides the in-process event bus decoupling the core
// pipeline from its consumers (stores, transport adapters).
//
// Delivery is synchronous: Publish invokes every handler registered for
// the type, in registration order, on the publishing goroutine. Handlers
// must not block indefinitely or they stall the publisher; consumers
// needing async delivery wrap their handler in a bounded queue on their
// side — the bus itself provides no backpressure.
package bus

import "sync"

// Handler receives one published event payload.
type Handler func(payload any)

// Subscription is the handle returned by Subscribe; pass it to
// Unsubscribe to remove the handler. Unsubscribing twice is a no-op.
type Subscription struct {
	eventType string
	id        uint64
}

type entry struct {
	id uint64
	fn Handler
}

// Bus is a synchronous publish/subscribe broker keyed by event-type string.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]entry
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]entry)}
}

// Subscribe registers handler for eventType and returns its handle.
func (b *Bus) Subscribe(eventType string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], entry{id: b.nextID, fn: handler})
	return Subscription{eventType: eventType, id: b.nextID}
}

// Unsubscribe removes the handler identified by sub. Idempotent.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[sub.eventType]
	for i, e := range list {
		if e.id == sub.id {
			b.handlers[sub.eventType] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers payload to every handler registered for eventType at
// the moment of the call, in registration order. The handler list is
// snapshotted first, so a handler registered during delivery of this
// event is not guaranteed to see it, and handlers may unsubscribe safely
// from within their own invocation.
func (b *Bus) Publish(eventType string, payload any) {
	b.mu.RLock()
	list := b.handlers[eventType]
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	b.mu.RUnlock()

	for _, e := range snapshot {
		e.fn(payload)
	}
}

// SubscriberCount returns the number of handlers for eventType.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
