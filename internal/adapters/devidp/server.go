// Package devidp is an in-process identity backend for AUTH_MODE=mock.
// Accounts live in memory with bcrypt hashes; access tokens are HS256 JWTs.
package devidp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/prestataires-ui/internal/adapters/identity"
	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Config controls the development identity backend.
type Config struct {
	// Accounts are "email:password" pairs created at startup.
	Accounts  []string
	JWTSecret string
	TokenTTL  time.Duration // default 1h when zero
	// AutoConfirm issues a session on sign-up; otherwise accounts need Confirm first.
	AutoConfirm bool
	BcryptCost  int // default bcrypt.DefaultCost when zero
	Now         func() time.Time
}

type account struct {
	user      domainauth.User
	hash      []byte
	confirmed bool
}

// Server implements identity.Backend in memory.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by lower-cased email
	refresh  map[string]string   // refresh token -> user id
	secret   string
	ttl      time.Duration
	confirm  bool
	cost     int
	now      func() time.Time
}

var _ identity.Backend = (*Server)(nil)

// New builds a Server and seeds the configured accounts as confirmed.
func New(cfg Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("dev idp: JWTSecret is required")
	}
	s := &Server{
		accounts: make(map[string]*account),
		refresh:  make(map[string]string),
		secret:   cfg.JWTSecret,
		ttl:      cfg.TokenTTL,
		confirm:  cfg.AutoConfirm,
		cost:     cfg.BcryptCost,
		now:      cfg.Now,
	}
	if s.ttl <= 0 {
		s.ttl = time.Hour
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}

	for _, pair := range cfg.Accounts {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, password, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("dev idp: account %q must be email:password", pair)
		}
		if _, err := s.createAccount(email, password, "", true); err != nil {
			return nil, fmt.Errorf("dev idp: seed %s: %w", email, err)
		}
	}
	return s, nil
}

// SignUp implements identity.Backend.
func (s *Server) SignUp(_ context.Context, req ports.SignUpRequest) (ports.SignUpResult, error) {
	acct, err := s.createAccount(req.Email, req.Password, req.DisplayName, s.confirm)
	if err != nil {
		return ports.SignUpResult{}, err
	}
	user := acct.user
	if !acct.confirmed {
		return ports.SignUpResult{User: &user}, nil
	}
	sess, err := s.issue(acct.user)
	if err != nil {
		return ports.SignUpResult{}, err
	}
	return ports.SignUpResult{User: &user, Session: sess}, nil
}

// PasswordGrant implements identity.Backend.
func (s *Server) PasswordGrant(_ context.Context, email, password string) (*domainauth.ProviderSession, error) {
	s.mu.Lock()
	acct, ok := s.accounts[normalizeEmail(email)]
	s.mu.Unlock()
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return nil, identity.ErrInvalidCredentials
	}
	if !acct.confirmed {
		return nil, identity.ErrEmailNotConfirmed
	}
	return s.issue(acct.user)
}

// RefreshGrant implements identity.Backend. Refresh tokens are single-use.
func (s *Server) RefreshGrant(_ context.Context, refreshToken string) (*domainauth.ProviderSession, error) {
	s.mu.Lock()
	userID, ok := s.refresh[refreshToken]
	delete(s.refresh, refreshToken)
	var user domainauth.User
	found := false
	if ok {
		for _, acct := range s.accounts {
			if acct.user.ID == userID {
				user, found = acct.user, true
				break
			}
		}
	}
	s.mu.Unlock()

	if !found {
		return nil, identity.ErrInvalidRefreshToken
	}
	return s.issue(user)
}

// Logout revokes every refresh token of the token's subject.
func (s *Server) Logout(_ context.Context, accessToken string) error {
	claims, err := identity.ParseClaims(accessToken, s.secret)
	if err != nil {
		return identity.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, uid := range s.refresh {
		if uid == claims.Subject {
			delete(s.refresh, tok)
		}
	}
	return nil
}

// Confirm marks an account as confirmed so it can sign in.
func (s *Server) Confirm(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[normalizeEmail(email)]
	if !ok {
		return fmt.Errorf("dev idp: unknown account %s", email)
	}
	acct.confirmed = true
	return nil
}

// Accounts returns the registered users.
func (s *Server) Accounts() []domainauth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domainauth.User, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct.user)
	}
	return out
}

func (s *Server) createAccount(email, password, displayName string, confirmed bool) (*account, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return nil, identity.ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, identity.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	key := normalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[key]; exists {
		return nil, identity.ErrUserExists
	}
	acct := &account{
		user: domainauth.User{
			ID:          uuid.NewString(),
			Email:       addr.Address,
			DisplayName: strings.TrimSpace(displayName),
			Role:        domainauth.RoleUser,
			CreatedAt:   s.now().UTC(),
		},
		hash:      hash,
		confirmed: confirmed,
	}
	s.accounts[key] = acct
	return acct, nil
}

func (s *Server) issue(user domainauth.User) (*domainauth.ProviderSession, error) {
	now := s.now()
	access, err := identity.SignClaims(identity.NewClaims(user, now, s.ttl), s.secret)
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.refresh[refresh] = user.ID
	s.mu.Unlock()

	return &domainauth.ProviderSession{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    now.Add(s.ttl).Truncate(time.Second),
		User:         user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
