// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and JSON.
type Role string

const (
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// User is the principal recognized by the identity provider.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the display name, falling back to the email address.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// SessionKind tags the two session variants.
type SessionKind string

const (
	SessionKindProvider SessionKind = "provider"
	SessionKindGuest    SessionKind = "guest"
)

// Session is the credential bundle proving a principal is signed in.
// It is sealed: the only implementations are *ProviderSession and *GuestSession.
// Code that forwards credentials to a backend must take *ProviderSession instead.
type Session interface {
	Kind() SessionKind
	Principal() User
	Expiry() time.Time
	isSession()
}

// ProviderSession is a session issued by the identity provider.
type ProviderSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

func (*ProviderSession) isSession() {}

// Kind implements Session.
func (*ProviderSession) Kind() SessionKind { return SessionKindProvider }

// Principal implements Session.
func (s *ProviderSession) Principal() User { return s.User }

// Expiry implements Session.
func (s *ProviderSession) Expiry() time.Time { return s.ExpiresAt }

// Expired reports whether the access token is expired at now, allowing for margin.
func (s *ProviderSession) Expired(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(s.ExpiresAt)
}

// Bearer returns the Authorization header value for this session.
func (s *ProviderSession) Bearer() string {
	tokenType := s.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return tokenType + " " + s.AccessToken
}

// GuestSession is the fabricated session installed by guest mode.
// Its token fields are placeholders and never valid at any backend.
type GuestSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

func (*GuestSession) isSession() {}

// Kind implements Session.
func (*GuestSession) Kind() SessionKind { return SessionKindGuest }

// Principal implements Session.
func (s *GuestSession) Principal() User { return s.User }

// Expiry implements Session.
func (s *GuestSession) Expiry() time.Time { return s.ExpiresAt }

// FromProvider wraps a provider session as a Session, keeping nil as a nil interface.
func FromProvider(s *ProviderSession) Session {
	if s == nil {
		return nil
	}
	return s
}
