// Package hooks is the in-process event bus the sync engine is built on.
//
// It mirrors the shape of a host-CMS hook system: handlers are subscribed
// to a topic under a stable name with a priority, publishing runs the
// handlers synchronously in priority order, and pre-phase payloads are
// passed by pointer so handlers can mutate them.
//
// Suspend is the echo-suppression primitive: it detaches one named handler
// from one topic and returns a resume function that reattaches it. Callers
// hold the suspension across exactly one mirrored mutation:
//
//	defer bus.Suspend(crm.TopicPre, "sync.crm_contacts_added")()
//
// The deferred resume runs on every exit path, including panics, so a
// failed mutation can never leave the handler detached.
package hooks

import (
	"context"
	"sort"
	"sync"
)

// Handler receives the published payload. Payloads are pointers for
// pre-phase topics so handlers can amend them in place.
type Handler func(ctx context.Context, payload any)

type subscriber struct {
	name     string
	priority int
	seq      int
	fn       Handler
}

// Bus routes published events to subscribed handlers.
// All methods are safe for concurrent use; handlers themselves run
// synchronously on the publishing goroutine.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]subscriber
	seq    int
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]subscriber)}
}

// Subscribe attaches fn to topic under name. Lower priorities run first;
// equal priorities run in subscription order. Subscribing an existing
// (topic, name) pair replaces the previous handler.
func (b *Bus) Subscribe(topic, name string, priority int, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	for i, s := range subs {
		if s.name == name {
			subs[i].priority = priority
			subs[i].fn = fn
			b.sortLocked(topic)
			return
		}
	}
	b.seq++
	b.topics[topic] = append(subs, subscriber{name: name, priority: priority, seq: b.seq, fn: fn})
	b.sortLocked(topic)
}

// Unsubscribe removes the named handler from topic. Removing a handler
// that is not attached is a no-op.
func (b *Bus) Unsubscribe(topic, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(topic, name)
}

// Publish runs every handler attached to topic, in order, on the calling
// goroutine. Handlers attached or detached during publication do not
// affect the in-flight run.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ctx, payload)
	}
}

// Suspend detaches the named handler from topic and returns the function
// that reattaches it with its original priority. If the handler is not
// attached, Suspend is a no-op and the returned resume is too.
//
// The intended shape is a scoped guard around one mutation:
//
//	resume := bus.Suspend(topic, name)
//	defer resume()
func (b *Bus) Suspend(topic, name string) (resume func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.removeLocked(topic, name)
	if !ok {
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.topics[topic] = append(b.topics[topic], sub)
			b.sortLocked(topic)
		})
	}
}

// Handlers returns the handler names attached to topic, in run order.
func (b *Bus) Handlers(topic string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.topics[topic]))
	for _, s := range b.topics[topic] {
		names = append(names, s.name)
	}
	return names
}

func (b *Bus) removeLocked(topic, name string) (subscriber, bool) {
	subs := b.topics[topic]
	for i, s := range subs {
		if s.name == name {
			b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
			return s, true
		}
	}
	return subscriber{}, false
}

func (b *Bus) sortLocked(topic string) {
	subs := b.topics[topic]
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].priority != subs[j].priority {
			return subs[i].priority < subs[j].priority
		}
		return subs[i].seq < subs[j].seq
	})
}
