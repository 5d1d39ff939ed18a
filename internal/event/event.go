// Package event provides the engine's change-notification bus.
//
// Controllers publish grid and document events; the application layer
// subscribes to drive re-render and persistence. Delivery is synchronous
// and in subscription order: the engine is single-threaded and
// event-driven, so handlers run before the publishing mutator returns.
package event

import (
	"strings"
	"sync"
	"time"
)

// Topic is a hierarchical event type, e.g. "grid.structure.row-inserted".
type Topic string

// Engine topics.
const (
	// TopicGridStructure covers row/column insert, delete and reorder.
	TopicGridStructure Topic = "grid.structure"
	// TopicGridContent covers cell content changes (clear, paste-merge).
	TopicGridContent Topic = "grid.content"
	// TopicGridLayout covers column width and heading flag changes.
	TopicGridLayout Topic = "grid.layout"
	// TopicSelection covers selection establish/extend/clear.
	TopicSelection Topic = "selection"
	// TopicDocument covers block record changes (sibling table insertion).
	TopicDocument Topic = "document"
)

// Matches reports whether the topic matches a subscription pattern. A
// pattern matches itself, any descendant ("grid.structure" matches
// publishes to "grid.structure.row-inserted"), and "*" matches everything.
func (t Topic) Matches(pattern Topic) bool {
	if pattern == "*" || pattern == t {
		return true
	}
	return strings.HasPrefix(string(t), string(pattern)+".")
}

// Sub appends a segment to the topic.
func (t Topic) Sub(segment string) Topic {
	return Topic(string(t) + "." + segment)
}

// Event is one published occurrence.
type Event struct {
	// Topic is the event type.
	Topic Topic

	// Source identifies the publishing controller.
	Source string

	// Payload carries event-specific data, if any.
	Payload any

	// Time is when the event was published.
	Time time.Time
}

// Handler receives published events.
type Handler func(Event)

// Subscription identifies an active subscription for Unsubscribe.
type Subscription uint64

type subscriber struct {
	id      Subscription
	pattern Topic
	fn      Handler
}

// Bus is the synchronous topic bus.
type Bus struct {
	mu     sync.RWMutex
	nextID Subscription
	subs   []subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events matching pattern.
func (b *Bus) Subscribe(pattern Topic, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, pattern: pattern, fn: fn})
	return b.nextID
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every matching subscriber, in subscription
// order, before returning.
func (b *Bus) Publish(topic Topic, source string, payload any) {
	ev := Event{Topic: topic, Source: source, Payload: payload, Time: time.Now()}

	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if topic.Matches(s.pattern) {
			matched = append(matched, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range matched {
		fn(ev)
	}
}
