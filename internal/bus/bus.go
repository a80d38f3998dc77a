// Package bus provides a minimal in-process publish/subscribe channel.
//
// The sync engine broadcasts run results on it; the CLI, daemon, and
// dashboard subscribe. Delivery is fire-and-forget and ordered per topic:
// handlers run synchronously on the publisher's goroutine in subscription
// order. Past events are not retained; a subscriber that joins after a
// publish misses it.
package bus

import "sync"

// Topics published by the sync engine and daemon.
const (
	TopicSyncSucceeded = "sync.succeeded"
	TopicSyncFailed    = "sync.failed"
	TopicStatus        = "daemon.status"
)

// Handler receives a published payload.
type Handler func(payload interface{})

type subscriber struct {
	id int
	fn Handler
}

// Bus is a topic-keyed set of subscriber lists. The zero value is not
// usable; create one with New.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscriber
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]subscriber)}
}

// Subscribe registers a handler for a topic and returns a function that
// removes the registration. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(topic string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers payload to every handler subscribed to topic, in
// subscription order, on the calling goroutine. Handlers must not block.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.Lock()
	list := make([]subscriber, len(b.subs[topic]))
	copy(list, b.subs[topic])
	b.mu.Unlock()

	for _, s := range list {
		s.fn(payload)
	}
}
