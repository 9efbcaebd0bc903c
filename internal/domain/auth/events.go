package auth

import "sync"

// ChangeEvent names a session change reported by an identity provider.
type ChangeEvent string

const (
	EventSignedIn       ChangeEvent = "SIGNED_IN"
	EventSignedOut      ChangeEvent = "SIGNED_OUT"
	EventTokenRefreshed ChangeEvent = "TOKEN_REFRESHED"
	EventUserUpdated    ChangeEvent = "USER_UPDATED"
)

// ChangeListener receives session changes. session is nil after a sign-out.
type ChangeListener func(event ChangeEvent, session *ProviderSession)

// Broadcaster fans session changes out to registered listeners.
// Listeners are invoked outside the lock so they may unsubscribe from inside a callback.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]ChangeListener
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[uint64]ChangeListener)}
}

// Registration is the handle returned by Subscribe.
type Registration struct {
	once   sync.Once
	b      *Broadcaster
	id     uint64
	active bool
}

// Unsubscribe removes the listener. Safe to call more than once.
func (r *Registration) Unsubscribe() {
	if r == nil || !r.active {
		return
	}
	r.once.Do(func() {
		r.b.mu.Lock()
		delete(r.b.listeners, r.id)
		r.b.mu.Unlock()
	})
}

// Subscribe registers fn and returns its registration.
func (b *Broadcaster) Subscribe(fn ChangeListener) *Registration {
	if fn == nil {
		return &Registration{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	return &Registration{b: b, id: id, active: true}
}

// Publish delivers the event to every listener registered at call time.
func (b *Broadcaster) Publish(event ChangeEvent, session *ProviderSession) {
	b.mu.Lock()
	fns := make([]ChangeListener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// Len returns the number of registered listeners.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
