package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity provider backing the session mirror.
type AuthMode string

const (
	// AuthModeGoTrue talks to a GoTrue-compatible identity API over HTTP.
	AuthModeGoTrue AuthMode = "gotrue"
	// AuthModeMock uses the in-process development identity provider.
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "gotrue", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: gotrue, mock)", v)
	}
}

// TokenStoreKind selects where provider sessions are persisted per browser client.
type TokenStoreKind string

const (
	// TokenStoreRedis persists provider sessions in Redis.
	TokenStoreRedis TokenStoreKind = "redis"
	// TokenStoreMemory keeps provider sessions in process memory.
	TokenStoreMemory TokenStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenStoreKind.
func (k *TokenStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "memory":
		*k = TokenStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenStoreKind: %q (valid options: redis, memory)", v)
	}
}

// GoTrueConfig contains the identity API connection settings.
type GoTrueConfig struct {
	URL       string        `env:"URL"        envDefault:"http://localhost:9999"`
	AnonKey   string        `env:"ANON_KEY"`
	JWTSecret string        `env:"JWT_SECRET"`
	Timeout   time.Duration `env:"TIMEOUT"    envDefault:"10s"`
	// RefreshMargin is how long before expiry an access token is refreshed.
	RefreshMargin time.Duration `env:"REFRESH_MARGIN" envDefault:"60s"`
}

// DevAuthConfig controls the mock identity provider.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	// Accounts are seeded at startup as "email:password" pairs separated by ';'.
	Accounts  []string      `env:"ACCOUNTS"   envDefault:"dev@example.com:devpassword" envSeparator:";"`
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"  envDefault:"1h"`
	// AutoConfirm issues a session directly on sign-up instead of requiring confirmation.
	AutoConfirm bool `env:"AUTO_CONFIRM" envDefault:"true"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"gotrue"`

	// GoTrue configuration (used when Mode=gotrue).
	GoTrue GoTrueConfig `envPrefix:"GOTRUE_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// GuestEnabled exposes the guest bypass on the login page.
	GuestEnabled bool `env:"AUTH_GUEST_ENABLED" envDefault:"true"`

	// TokenStore selects where provider sessions are persisted.
	TokenStore TokenStoreKind `env:"AUTH_TOKEN_STORE" envDefault:"memory"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.GoTrue.URL = strings.TrimRight(strings.TrimSpace(a.GoTrue.URL), "/")
	if a.GoTrue.Timeout <= 0 {
		a.GoTrue.Timeout = 10 * time.Second
	}
	if a.GoTrue.RefreshMargin < 0 {
		a.GoTrue.RefreshMargin = 0
	}
	if a.DevAuth.TokenTTL < time.Minute {
		a.DevAuth.TokenTTL = time.Minute
	}
}
