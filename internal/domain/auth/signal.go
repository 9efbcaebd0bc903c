package auth

import "sync"

// Signal coalesces "state changed" notifications for watchers such as the
// server-sent events stream. Each subscriber holds at most one pending signal.
type Signal struct {
	mu      sync.Mutex
	subs    map[chan struct{}]struct{}
	stopped bool
}

// NewSignal returns a Signal with no subscribers.
func NewSignal() *Signal {
	return &Signal{subs: make(map[chan struct{}]struct{})}
}

// Subscribe returns an unsubscribe func and a channel that receives a value after each change.
// After StopAll the channel comes back already closed.
func (s *Signal) Subscribe() (func(), <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	if s.stopped {
		close(ch)
		return func() {}, ch
	}
	s.subs[ch] = struct{}{}

	unsub := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; !ok {
			return
		}
		delete(s.subs, ch)
		drainAndClose(ch)
	}
	return unsub, ch
}

// Broadcast notifies every subscriber without blocking.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// StopAll closes every subscriber channel. The Signal stays stopped.
func (s *Signal) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true

	for ch := range s.subs {
		drainAndClose(ch)
		delete(s.subs, ch)
	}
}

// drainAndClose removes any buffered notifications before closing the channel so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
