// Package memory provides in-process adapters used in development, tests and
// single-instance deployments.
package memory

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
)

// TokenStore keeps provider sessions in a map keyed by browser client id.
// Sessions are lost on restart.
type TokenStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.ProviderSession
}

// NewTokenStore returns an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{sessions: make(map[string]domainauth.ProviderSession)}
}

// Save stores a copy of sess.
func (s *TokenStore) Save(_ context.Context, clientID string, sess *domainauth.ProviderSession) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	s.mu.Lock()
	s.sessions[clientID] = *sess
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the stored session, or nil.
func (s *TokenStore) Load(_ context.Context, clientID string) (*domainauth.ProviderSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[clientID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// Delete forgets the session for clientID.
func (s *TokenStore) Delete(_ context.Context, clientID string) error {
	s.mu.Lock()
	delete(s.sessions, clientID)
	s.mu.Unlock()
	return nil
}

// Count returns the number of stored sessions.
func (s *TokenStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
