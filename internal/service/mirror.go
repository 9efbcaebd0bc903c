package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/observability/metrics"
	"github.com/target/prestataires-ui/internal/observability/statsd"
	"github.com/target/prestataires-ui/internal/ports"
)

// SessionMirrorOptions groups dependencies for SessionMirror.
type SessionMirrorOptions struct {
	Provider ports.IdentityProvider // Required: identity provider bound to this client
	Profiles ports.ProfileStore     // Optional: receives a row for each registered principal
	ClientID string                 // Optional: used in log fields
	Logger   *slog.Logger           // Optional: structured logger
	Metrics  statsd.Sink            // Optional: metrics sink
	Now      func() time.Time       // Optional: clock, defaults to time.Now

	// RefreshMargin is how long before expiry the provider session is refreshed.
	RefreshMargin time.Duration
}

// refreshRetryDelay spaces refresh attempts after a transient failure, or when
// the provider hands back a session that is already due.
const refreshRetryDelay = 30 * time.Second

// SessionMirror keeps the client's view of who is signed in, synchronized with
// the identity provider. Reads return immutable snapshots.
type SessionMirror struct {
	provider ports.IdentityProvider
	profiles ports.ProfileStore
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
	margin   time.Duration

	// life scopes background refreshes; Close cancels it.
	life     context.Context
	stopLife context.CancelFunc

	mu      sync.RWMutex
	user    *domainauth.User
	session domainauth.Session
	loading bool
	isDemo  bool
	// gen increases on every state change so a late initial fetch can tell it is stale.
	gen     uint64
	started bool
	closed  bool
	sub     ports.Subscription
	cancel  context.CancelFunc
	refresh *time.Timer

	ready     chan struct{}
	readyOnce sync.Once
	signal    *domainauth.Signal
}

// NewSessionMirror constructs a mirror. Call Start to begin synchronizing.
func NewSessionMirror(opts SessionMirrorOptions) (*SessionMirror, error) {
	if opts.Provider == nil {
		return nil, errors.New("IdentityProvider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session_mirror")
	if opts.ClientID != "" {
		logger = logger.With("client_id", opts.ClientID)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	life, stopLife := context.WithCancel(context.Background())
	return &SessionMirror{
		provider: opts.Provider,
		profiles: opts.Profiles,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      now,
		margin:   max(opts.RefreshMargin, 0),
		life:     life,
		stopLife: stopLife,
		ready:    make(chan struct{}),
		signal:   domainauth.NewSignal(),
	}, nil
}

// Start marks the mirror as loading, subscribes to provider notifications and
// fetches the current session in the background. Only the first call has any effect.
// The fetch outlives ctx's cancellation; Close stops it.
func (m *SessionMirror) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.loading = true
	gen := m.gen
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.mu.Unlock()

	sub := m.provider.OnSessionChange(m.handleChange)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	m.sub = sub
	m.mu.Unlock()

	m.signal.Broadcast()
	go m.fetchInitial(fetchCtx, gen)
}

func (m *SessionMirror) fetchInitial(ctx context.Context, gen uint64) {
	start := time.Now()
	sess, err := m.provider.GetCurrentSession(ctx)
	metrics.EmitAuthAction(m.metrics, metrics.AuthMetric{
		Action:   metrics.ActionFetch,
		Result:   metrics.ResultFor(err),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		m.logger.WarnContext(ctx, "initial session fetch failed; treating client as signed out", "error", err)
		sess = nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.markReady()
		return
	}
	if m.gen == gen {
		m.setSessionLocked(domainauth.FromProvider(sess))
	} else {
		m.logger.DebugContext(ctx, "discarding stale initial session fetch")
	}
	m.loading = false
	m.mu.Unlock()

	m.markReady()
	m.signal.Broadcast()
}

// handleChange applies a provider notification. A notification without a
// session leaves guest mode in place.
func (m *SessionMirror) handleChange(event domainauth.ChangeEvent, sess *domainauth.ProviderSession) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	switch {
	case sess != nil:
		m.isDemo = false
		m.setSessionLocked(sess)
	case m.isDemo:
		m.gen++
	default:
		m.setSessionLocked(nil)
	}
	m.loading = false
	m.mu.Unlock()

	m.logger.Debug("session change", "event", string(event), "has_session", sess != nil)
	m.signal.Broadcast()
}

// Register signs up through the provider. The profile row is written best
// effort; a failure there is logged and does not fail the registration.
// Once the provider has created the account the registration stands, even
// if it also reports an error. The returned session is nil when the
// provider requires confirmation first.
func (m *SessionMirror) Register(
	ctx context.Context,
	email, password, displayName string,
) (*domainauth.ProviderSession, error) {
	start := time.Now()
	res, err := m.provider.SignUp(ctx, ports.SignUpRequest{Email: email, Password: password, DisplayName: displayName})
	m.emit(metrics.ActionRegister, start, err)
	if err != nil {
		if res.User == nil {
			return nil, err
		}
		m.logger.WarnContext(ctx, "sign-up reported an error after creating the account",
			"user_id", res.User.ID, "error", err)
	}

	if res.User != nil && m.profiles != nil {
		createdAt := res.User.CreatedAt
		if createdAt.IsZero() {
			createdAt = m.now()
		}
		rowEmail := res.User.Email
		if rowEmail == "" {
			rowEmail = email
		}
		if insertErr := m.profiles.InsertUserRow(ctx, res.User.ID, rowEmail, createdAt); insertErr != nil {
			m.logger.WarnContext(ctx, "failed to insert profile row", "user_id", res.User.ID, "error", insertErr)
		}
	}

	if res.Session != nil {
		m.applyProviderSession(res.Session)
	}
	return res.Session, nil
}

// Login signs in with email and password. On success the state is updated
// immediately rather than waiting for the provider notification.
func (m *SessionMirror) Login(ctx context.Context, email, password string) error {
	start := time.Now()
	sess, err := m.provider.SignInWithPassword(ctx, email, password)
	m.emit(metrics.ActionLogin, start, err)
	if err != nil {
		return err
	}
	m.applyProviderSession(sess)
	return nil
}

// Logout leaves guest mode and signs out at the provider. A guest session is
// cleared even when the provider call fails; a provider session is kept then.
func (m *SessionMirror) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.isDemo = false
	m.mu.Unlock()

	start := time.Now()
	err := m.provider.SignOut(ctx)
	m.emit(metrics.ActionLogout, start, err)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return err
	}
	if err == nil {
		m.setSessionLocked(nil)
	} else if _, guest := m.session.(*domainauth.GuestSession); guest {
		m.setSessionLocked(nil)
	}
	m.mu.Unlock()

	m.signal.Broadcast()
	return err
}

// EnterGuestMode installs the fabricated guest session. It never contacts the provider.
func (m *SessionMirror) EnterGuestMode() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.setSessionLocked(domainauth.NewGuestSession(m.now()))
	m.isDemo = true
	m.mu.Unlock()

	metrics.EmitAuthAction(m.metrics, metrics.AuthMetric{Action: metrics.ActionGuest, Result: metrics.ResultSuccess})
	m.signal.Broadcast()
}

// Snapshot returns the current state. The returned value shares nothing mutable with the mirror.
func (m *SessionMirror) Snapshot() domainauth.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := domainauth.State{Session: m.session, Loading: m.loading, IsDemo: m.isDemo}
	if m.user != nil {
		u := *m.user
		st.User = &u
	}
	return st
}

// Ready is closed once the initial session fetch has resolved.
func (m *SessionMirror) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until the initial fetch resolves or ctx is done.
func (m *SessionMirror) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watch returns a channel that receives a value after each state change, and
// a function that ends the subscription. The channel is closed by Close.
func (m *SessionMirror) Watch() (<-chan struct{}, func()) {
	unsub, ch := m.signal.Subscribe()
	return ch, unsub
}

// Close releases the provider subscription and stops the initial fetch.
// Late notifications and fetch results are ignored. Safe to call more than once.
func (m *SessionMirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sub, cancel := m.sub, m.cancel
	m.sub, m.cancel = nil, nil
	m.stopRefreshLocked()
	m.mu.Unlock()
	m.stopLife()

	if sub != nil {
		sub.Unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	m.signal.StopAll()
}

func (m *SessionMirror) applyProviderSession(sess *domainauth.ProviderSession) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.isDemo = false
	m.setSessionLocked(domainauth.FromProvider(sess))
	m.loading = false
	m.mu.Unlock()
	m.signal.Broadcast()
}

// setSessionLocked replaces the session, derives the user from it and
// re-arms the refresh timer for provider sessions.
func (m *SessionMirror) setSessionLocked(sess domainauth.Session) {
	m.session = sess
	if sess == nil {
		m.user = nil
	} else {
		u := sess.Principal()
		m.user = &u
	}
	m.gen++

	m.stopRefreshLocked()
	ps, ok := sess.(*domainauth.ProviderSession)
	if !ok || ps == nil || ps.ExpiresAt.IsZero() {
		return
	}
	m.armRefreshLocked(max(ps.ExpiresAt.Sub(m.now())-m.margin, 0))
}

func (m *SessionMirror) armRefreshLocked(delay time.Duration) {
	if m.closed {
		return
	}
	gen := m.gen
	m.refresh = time.AfterFunc(delay, func() { m.refreshSession(gen) })
}

func (m *SessionMirror) stopRefreshLocked() {
	if m.refresh != nil {
		m.refresh.Stop()
		m.refresh = nil
	}
}

// refreshSession asks the provider for the current session, which refreshes
// it when due. A refresh or a rejected refresh token reaches the mirror as a
// provider notification first; the result here covers providers that stay
// silent. gen pins the session the timer was armed for.
func (m *SessionMirror) refreshSession(gen uint64) {
	m.mu.RLock()
	stale := m.closed || m.gen != gen
	m.mu.RUnlock()
	if stale {
		return
	}

	start := time.Now()
	sess, err := m.provider.GetCurrentSession(m.life)
	m.emit(metrics.ActionRefresh, start, err)

	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		m.signal.Broadcast()
		return
	}
	switch {
	case err != nil:
		m.logger.WarnContext(m.life, "session refresh failed; retrying", "error", err, "retry_in", refreshRetryDelay)
		m.armRefreshLocked(refreshRetryDelay)
	case sess == nil:
		m.setSessionLocked(nil)
	default:
		m.setSessionLocked(sess)
		if sess.Expired(m.now(), m.margin) {
			m.stopRefreshLocked()
			m.armRefreshLocked(refreshRetryDelay)
		}
	}
	m.mu.Unlock()
	m.signal.Broadcast()
}

func (m *SessionMirror) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func (m *SessionMirror) emit(action string, start time.Time, err error) {
	metrics.EmitAuthAction(m.metrics, metrics.AuthMetric{
		Action:   action,
		Result:   metrics.ResultFor(err),
		Duration: time.Since(start),
		Err:      err,
	})
}
