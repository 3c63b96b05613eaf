package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Manual is a virtual clock that only moves when Advance is called.
// AfterFunc callbacks run synchronously inside Advance, in deadline order,
// and After channels are filled before Advance returns.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	waiters []*manualTimer
	changed chan struct{}
}

type manualTimer struct {
	clock    *Manual
	deadline time.Time
	seq      uint64
	fn       func()
	ch       chan time.Time
}

// NewManual creates a virtual clock starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:     start,
		changed: make(chan struct{}),
	}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	m.schedule(d, nil, ch)
	return ch
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	return m.schedule(d, f, nil)
}

func (m *Manual) schedule(d time.Duration, fn func(), ch chan time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{
		clock:    m,
		deadline: m.now.Add(d),
		seq:      m.seq,
		fn:       fn,
		ch:       ch,
	}
	m.waiters = append(m.waiters, t)
	m.signalLocked()
	return t
}

// Advance moves the clock forward by d and fires every timer whose deadline
// falls inside the window. Timers scheduled by callbacks during the advance
// fire too if their deadline is reached.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.popDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.deadline
		now := m.now
		m.mu.Unlock()

		if next.fn != nil {
			next.fn()
		} else {
			next.ch <- now
		}
	}
}

// popDueLocked removes and returns the earliest timer due at or before target.
func (m *Manual) popDueLocked(target time.Time) *manualTimer {
	if len(m.waiters) == 0 {
		return nil
	}
	sort.Slice(m.waiters, func(i, j int) bool {
		if m.waiters[i].deadline.Equal(m.waiters[j].deadline) {
			return m.waiters[i].seq < m.waiters[j].seq
		}
		return m.waiters[i].deadline.Before(m.waiters[j].deadline)
	})
	first := m.waiters[0]
	if first.deadline.After(target) {
		return nil
	}
	m.waiters = m.waiters[1:]
	m.signalLocked()
	return first
}

// Waiters reports how many timers are pending.
func (m *Manual) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

// BlockUntil waits until at least n timers are pending or ctx is done.
// Tests use it to make sure a goroutine has armed its timer before advancing.
func (m *Manual) BlockUntil(ctx context.Context, n int) error {
	for {
		m.mu.Lock()
		if len(m.waiters) >= n {
			m.mu.Unlock()
			return nil
		}
		changed := m.changed
		m.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manual) signalLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

func (t *manualTimer) Stop() bool {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.waiters {
		if w == t {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			m.signalLocked()
			return true
		}
	}
	return false
}
