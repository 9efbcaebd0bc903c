// Package ports defines interfaces (hexagonal ports) for auth and catalog behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
)

// Subscription releases a session change listener.
type Subscription interface {
	Unsubscribe()
}

// SignUpRequest carries the registration fields forwarded to the identity provider.
type SignUpRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// SignUpResult is what the identity provider returns on sign-up. User is set when
// a principal was created; Session is set only when no confirmation step is required.
type SignUpResult struct {
	User    *domainauth.User
	Session *domainauth.ProviderSession
}

// IdentityProvider is the external identity/session service as seen by one browser client.
type IdentityProvider interface {
	// GetCurrentSession returns the persisted session for this client, refreshing it if needed.
	// A nil session with a nil error means nobody is signed in.
	GetCurrentSession(ctx context.Context) (*domainauth.ProviderSession, error)

	// OnSessionChange registers a listener for sign-in, sign-out and refresh notifications.
	OnSessionChange(listener domainauth.ChangeListener) Subscription

	SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domainauth.ProviderSession, error)
	SignOut(ctx context.Context) error
}

// IdentityProviderFactory builds the identity provider client bound to one browser client.
type IdentityProviderFactory interface {
	ForClient(clientID string) IdentityProvider
}

// ProfileStore is the external "users" table.
type ProfileStore interface {
	InsertUserRow(ctx context.Context, id, email string, createdAt time.Time) error
}

// TokenStore persists provider sessions per browser client.
// Only provider-issued sessions are accepted; guest sessions are never stored.
type TokenStore interface {
	Save(ctx context.Context, clientID string, sess *domainauth.ProviderSession) error
	Load(ctx context.Context, clientID string) (*domainauth.ProviderSession, error)
	Delete(ctx context.Context, clientID string) error
}
