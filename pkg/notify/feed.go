package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rescp17/landrop/pkg/clock"
	"github.com/rescp17/landrop/pkg/concurrency"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

// Feed is a most-recent-first list of notifications. Every entry removes
// itself after the feed's TTL; nothing else edits or deletes entries.
type Feed struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries []Notification
	timers  map[string]clock.Timer
	closed  bool

	changed *concurrency.Signal
}

// NewFeed creates a feed that expires entries after ttl. A non-positive ttl
// falls back to DefaultTTL.
func NewFeed(clk clock.Clock, ttl time.Duration) *Feed {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Feed{
		clock:   clk,
		ttl:     ttl,
		timers:  make(map[string]clock.Timer),
		changed: concurrency.NewSignal(),
	}
}

// Post builds a notification stamped with a fresh id and the current time,
// pushes it and returns it.
func (f *Feed) Post(kind Kind, title, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Timestamp: f.clock.Now(),
	}
	f.Push(n)
	return n
}

// Push inserts n at the head of the feed and arms its expiry timer.
func (f *Feed) Push(n Notification) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		slog.Debug("Dropping notification pushed after feed close", "id", n.ID)
		return
	}
	f.entries = append([]Notification{n}, f.entries...)
	id := n.ID
	f.timers[id] = f.clock.AfterFunc(f.ttl, func() {
		f.expire(id)
	})
	f.mu.Unlock()

	f.changed.Notify()
}

// expire removes the entry with the given id. Unknown ids are ignored so a
// timer outliving a Clear is harmless.
func (f *Feed) expire(id string) {
	f.mu.Lock()
	delete(f.timers, id)
	removed := false
	for i, n := range f.entries {
		if n.ID == id {
			f.entries = append(f.entries[:i:i], f.entries[i+1:]...)
			removed = true
			break
		}
	}
	f.mu.Unlock()

	if removed {
		f.changed.Notify()
	}
}

// List returns a copy of the visible notifications, newest first.
func (f *Feed) List() []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Notification, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Clear drops every visible notification. Their timers still fire later and
// find nothing to remove.
func (f *Feed) Clear() {
	f.mu.Lock()
	f.entries = nil
	f.mu.Unlock()

	f.changed.Notify()
}

// Close stops all pending expiry timers, drops the visible entries, since
// nothing would expire them any more, and rejects further pushes.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	for id, t := range f.timers {
		t.Stop()
		delete(f.timers, id)
	}
	f.entries = nil
	f.mu.Unlock()

	f.changed.Notify()
}

// TTL reports how long entries stay visible.
func (f *Feed) TTL() time.Duration {
	return f.ttl
}

// Watch subscribes to change signals. The returned func unsubscribes.
func (f *Feed) Watch() (<-chan struct{}, func()) {
	return f.changed.Subscribe()
}
