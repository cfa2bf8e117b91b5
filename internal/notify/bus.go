// Package notify propagates row-level mutation events to connected
// viewers: a process-local bus carries table change events, a coalescer
// folds bursts into single resynchronization passes, and a websocket hub
// pushes resync signals to every subscribed viewer.
package notify

import (
	"log"
	"sync"
	"time"
)

// Mutation operations.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event is a row-level mutation on one of the layout tables.
type Event struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	Key   string    `json:"key,omitempty"`
	At    time.Time `json:"at"`
}

// Bus is an in-process publish/subscribe channel for mutation events.
// Every write path publishes to it after a successful transaction.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a buffered event channel and returns it with an
// unsubscribe function. The channel is closed on unsubscribe or bus close.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish delivers events to every subscriber. A subscriber that has
// fallen behind loses events rather than blocking publishers; the
// coalescer makes individual events non-critical since any one of them
// triggers a full resync.
func (b *Bus) Publish(events ...Event) {
	now := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, e := range events {
		if e.At.IsZero() {
			e.At = now
		}
		for _, ch := range b.subs {
			select {
			case ch <- e:
			default:
				log.Printf("notify: dropping event for slow subscriber (table=%s op=%s)", e.Table, e.Op)
			}
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
