// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider        = (*FakeIdentityProvider)(nil)
	_ ports.IdentityProviderFactory = (*FakeProviderFactory)(nil)
	_ ports.ProfileStore            = (*MemoryProfileStore)(nil)
)

// FakeIdentityProvider simulates an identity provider for one client.
// Unset funcs fall back to "no session" and successful no-op calls.
// Emit drives the change-notification stream by hand.
type FakeIdentityProvider struct {
	GetCurrentSessionFunc func(ctx context.Context) (*domainauth.ProviderSession, error)
	SignUpFunc            func(ctx context.Context, req ports.SignUpRequest) (ports.SignUpResult, error)
	SignInFunc            func(ctx context.Context, email, password string) (*domainauth.ProviderSession, error)
	SignOutFunc           func(ctx context.Context) error

	bus *domainauth.Broadcaster

	mu           sync.Mutex
	signOutCalls int
	signInCalls  int
}

// NewFakeIdentityProvider creates a provider with no session.
func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{bus: domainauth.NewBroadcaster()}
}

func (f *FakeIdentityProvider) GetCurrentSession(ctx context.Context) (*domainauth.ProviderSession, error) {
	if f.GetCurrentSessionFunc != nil {
		return f.GetCurrentSessionFunc(ctx)
	}
	return nil, nil
}

func (f *FakeIdentityProvider) OnSessionChange(listener domainauth.ChangeListener) ports.Subscription {
	return f.bus.Subscribe(listener)
}

func (f *FakeIdentityProvider) SignUp(ctx context.Context, req ports.SignUpRequest) (ports.SignUpResult, error) {
	if f.SignUpFunc != nil {
		return f.SignUpFunc(ctx, req)
	}
	user := &domainauth.User{ID: "fake-user", Email: req.Email, DisplayName: req.DisplayName, Role: domainauth.RoleUser}
	return ports.SignUpResult{User: user}, nil
}

func (f *FakeIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*domainauth.ProviderSession, error) {
	f.mu.Lock()
	f.signInCalls++
	f.mu.Unlock()
	if f.SignInFunc != nil {
		return f.SignInFunc(ctx, email, password)
	}
	return NewProviderSession("fake-user", email), nil
}

func (f *FakeIdentityProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOutCalls++
	f.mu.Unlock()
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx)
	}
	return nil
}

// Emit publishes a change notification to every listener.
func (f *FakeIdentityProvider) Emit(event domainauth.ChangeEvent, session *domainauth.ProviderSession) {
	f.bus.Publish(event, session)
}

// Listeners returns the number of active change listeners.
func (f *FakeIdentityProvider) Listeners() int { return f.bus.Len() }

// SignOutCalls returns how many times SignOut was invoked.
func (f *FakeIdentityProvider) SignOutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOutCalls
}

// SignInCalls returns how many times SignInWithPassword was invoked.
func (f *FakeIdentityProvider) SignInCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInCalls
}

// NewProviderSession builds a provider session valid for an hour.
func NewProviderSession(userID, email string) *domainauth.ProviderSession {
	return &domainauth.ProviderSession{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         domainauth.User{ID: userID, Email: email, Role: domainauth.RoleUser},
	}
}

// FakeProviderFactory hands out one FakeIdentityProvider per client id.
type FakeProviderFactory struct {
	// New customizes providers on creation. Defaults to NewFakeIdentityProvider.
	New func(clientID string) *FakeIdentityProvider

	mu        sync.Mutex
	providers map[string]*FakeIdentityProvider
}

func (f *FakeProviderFactory) ForClient(clientID string) ports.IdentityProvider { //nolint:ireturn // factory returns the port
	return f.Provider(clientID)
}

// Provider returns the fake bound to clientID, creating it if needed.
func (f *FakeProviderFactory) Provider(clientID string) *FakeIdentityProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providers == nil {
		f.providers = make(map[string]*FakeIdentityProvider)
	}
	if p, ok := f.providers[clientID]; ok {
		return p
	}
	var p *FakeIdentityProvider
	if f.New != nil {
		p = f.New(clientID)
	} else {
		p = NewFakeIdentityProvider()
	}
	f.providers[clientID] = p
	return p
}

// ProfileRow is a row recorded by MemoryProfileStore.
type ProfileRow struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// MemoryProfileStore records inserted user rows. Err, when set, is returned instead.
type MemoryProfileStore struct {
	Err error

	mu   sync.Mutex
	rows []ProfileRow
}

func (m *MemoryProfileStore) InsertUserRow(_ context.Context, id, email string, createdAt time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	if id == "" {
		return errors.New("user id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, ProfileRow{ID: id, Email: email, CreatedAt: createdAt})
	return nil
}

// Rows returns a copy of the recorded rows.
func (m *MemoryProfileStore) Rows() []ProfileRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ProfileRow, len(m.rows))
	copy(out, m.rows)
	return out
}
