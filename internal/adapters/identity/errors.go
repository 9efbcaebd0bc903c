package identity

import "errors"

// Sentinel errors shared by identity backends. Backends wrap or unwrap to these
// so callers can branch with errors.Is regardless of the provider in use.
var (
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrUserExists          = errors.New("user already registered")
	ErrRateLimited         = errors.New("too many requests")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrWeakPassword        = errors.New("password is too weak")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidEmail        = errors.New("invalid email address")
)
