package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/target/prestataires-ui/internal/observability/metrics"
	"github.com/target/prestataires-ui/internal/observability/statsd"
	"github.com/target/prestataires-ui/internal/ports"
)

// ErrRegistryClosed is returned by Get after CloseAll.
var ErrRegistryClosed = errors.New("mirror registry closed")

// DefaultMirrorIdleTTL is used when MirrorRegistryOptions.IdleTTL is zero.
const DefaultMirrorIdleTTL = 30 * time.Minute

// MirrorRegistryOptions groups dependencies for MirrorRegistry.
type MirrorRegistryOptions struct {
	Factory  ports.IdentityProviderFactory // Required: builds the provider bound to each client
	Profiles ports.ProfileStore            // Optional: passed to every mirror
	IdleTTL  time.Duration                 // Optional: defaults to DefaultMirrorIdleTTL
	Logger   *slog.Logger                  // Optional: structured logger
	Metrics  statsd.Sink                   // Optional: metrics sink
	Now      func() time.Time              // Optional: clock, defaults to time.Now

	// RefreshMargin is passed to every mirror.
	RefreshMargin time.Duration
}

// MirrorRegistry owns one SessionMirror per browser client.
type MirrorRegistry struct {
	factory  ports.IdentityProviderFactory
	profiles ports.ProfileStore
	idleTTL  time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time

	refreshMargin time.Duration

	mu      sync.Mutex
	entries map[string]*mirrorEntry
	closed  bool
}

type mirrorEntry struct {
	mirror   *SessionMirror
	created  time.Time
	lastUsed time.Time
}

// MirrorInfo describes a live mirror for admin listings.
type MirrorInfo struct {
	ClientID string
	Created  time.Time
	LastUsed time.Time
	UserID   string
	IsDemo   bool
	Loading  bool
}

// NewMirrorRegistry constructs an empty registry.
func NewMirrorRegistry(opts MirrorRegistryOptions) (*MirrorRegistry, error) {
	if opts.Factory == nil {
		return nil, errors.New("IdentityProviderFactory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idle := opts.IdleTTL
	if idle <= 0 {
		idle = DefaultMirrorIdleTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MirrorRegistry{
		factory:  opts.Factory,
		profiles: opts.Profiles,
		idleTTL:  idle,
		logger:   logger.With("component", "mirror_registry"),
		metrics:  opts.Metrics,
		now:      now,
		entries:  make(map[string]*mirrorEntry),

		refreshMargin: opts.RefreshMargin,
	}, nil
}

// Get returns the mirror for clientID, creating and starting it on first use.
// Every call counts as activity for the idle sweep.
func (r *MirrorRegistry) Get(ctx context.Context, clientID string) (*SessionMirror, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.New("client id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}

	now := r.now()
	if e, ok := r.entries[clientID]; ok {
		e.lastUsed = now
		return e.mirror, nil
	}

	m, err := NewSessionMirror(SessionMirrorOptions{
		Provider: r.factory.ForClient(clientID),
		Profiles: r.profiles,
		ClientID: clientID,
		Logger:   r.logger,
		Metrics:  r.metrics,
		Now:      r.now,

		RefreshMargin: r.refreshMargin,
	})
	if err != nil {
		return nil, err
	}
	// Start only subscribes and spawns the fetch, so holding the lock is fine and
	// guarantees no caller observes an unstarted mirror.
	m.Start(ctx)
	r.entries[clientID] = &mirrorEntry{mirror: m, created: now, lastUsed: now}
	r.logger.DebugContext(ctx, "session mirror created", "client_id", clientID)
	return m, nil
}

// Sweep closes and removes mirrors idle for longer than the idle TTL.
// It returns how many were evicted.
func (r *MirrorRegistry) Sweep(now time.Time) int {
	start := time.Now()
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*SessionMirror
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			idle = append(idle, e.mirror)
			delete(r.entries, id)
		}
	}
	remaining := len(r.entries)
	r.mu.Unlock()

	for _, m := range idle {
		m.Close()
	}
	if len(idle) > 0 {
		r.logger.Info("evicted idle session mirrors", "count", len(idle), "remaining", remaining)
	}
	metrics.EmitSweep(r.metrics, len(idle), remaining, time.Since(start))
	return len(idle)
}

// Len returns the number of live mirrors.
func (r *MirrorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// List returns a description of every live mirror, most recently used first.
func (r *MirrorRegistry) List() []MirrorInfo {
	r.mu.Lock()
	out := make([]MirrorInfo, 0, len(r.entries))
	mirrors := make([]*SessionMirror, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, MirrorInfo{ClientID: id, Created: e.created, LastUsed: e.lastUsed})
		mirrors = append(mirrors, e.mirror)
	}
	r.mu.Unlock()

	for i, m := range mirrors {
		st := m.Snapshot()
		out[i].Loading = st.Loading
		out[i].IsDemo = st.IsDemo
		if st.User != nil {
			out[i].UserID = st.User.ID
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUsed.Equal(out[j].LastUsed) {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out
}

// CloseAll closes every mirror. Later calls to Get fail with ErrRegistryClosed.
func (r *MirrorRegistry) CloseAll() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	all := make([]*SessionMirror, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e.mirror)
	}
	r.entries = make(map[string]*mirrorEntry)
	r.mu.Unlock()

	for _, m := range all {
		m.Close()
	}
	r.logger.Info("closed all session mirrors", "count", len(all))
}
