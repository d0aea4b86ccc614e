// Package eventx is a small typed publish/subscribe bus for cross-cutting
// client notifications (auth changes, session warnings, session expiry).
package eventx

import (
	"sync"
	"time"
)

// Topic names an event stream.
type Topic string

const (
	// TopicAuthChanged carries the new authenticated flag after every session transition.
	TopicAuthChanged Topic = "auth:changed"
	// TopicSessionWarning fires ahead of an inactivity logout.
	TopicSessionWarning Topic = "session:warning"
	// TopicSessionExpired fires after an inactivity logout.
	TopicSessionExpired Topic = "session:expired"
)

// Event is delivered to subscribers of its Topic.
type Event struct {
	Topic   Topic
	Authed  bool
	Message string
	At      time.Time
}

// Handler receives events. Handlers run synchronously on the publishing
// goroutine and must not block for long.
type Handler func(Event)

// Bus fans events out to per-topic subscribers. The zero value is ready to use.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[Topic]map[uint64]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers h for topic and returns a func that removes it.
// The returned func is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[Topic]map[uint64]Handler)
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}

	id := b.next
	b.next++
	b.subs[topic][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
		})
	}
}

// Publish delivers e to every current subscriber of e.Topic. Handlers are
// called outside the bus lock, so they may publish or (un)subscribe.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Topic]))
	for _, h := range b.subs[e.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Subscribers reports how many handlers are registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
