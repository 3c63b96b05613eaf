package concurrency

import "sync"

// Signal fans a "something changed" notification out to any number of
// subscribers. Each subscriber owns a channel with a buffer of one, so
// bursts of changes coalesce and Notify never blocks.
type Signal struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]chan struct{}
}

func NewSignal() *Signal {
	return &Signal{subs: make(map[uint64]chan struct{})}
}

// Subscribe returns a channel that receives a value after every Notify and a
// function that cancels the subscription and closes the channel.
func (s *Signal) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Notify wakes every subscriber that is not already holding a pending signal.
func (s *Signal) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (s *Signal) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
