package redis

// Package redis provides Redis-backed adapters for the prestataires UI.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
)

// DefaultRetention is how long a stored session outlives its access token expiry,
// so the refresh token can still be exchanged after the access token lapses.
const DefaultRetention = 7 * 24 * time.Hour

// TokenStore keeps one provider session per browser client in Redis.
type TokenStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// TokenStoreOptions configures a TokenStore.
type TokenStoreOptions struct {
	Prefix    string
	Retention time.Duration
}

// NewTokenStore creates a Redis token store with default options.
func NewTokenStore(client redis.UniversalClient) *TokenStore {
	return NewTokenStoreWithOptions(client, TokenStoreOptions{})
}

// NewTokenStoreWithOptions creates a Redis token store; zero options fall back to defaults.
func NewTokenStoreWithOptions(client redis.UniversalClient, opts TokenStoreOptions) *TokenStore {
	if opts.Prefix == "" {
		opts.Prefix = "auth:session:"
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	return &TokenStore{client: client, prefix: opts.Prefix, retention: opts.Retention, now: time.Now}
}

// Save stores sess under clientID. The key expires Retention after the access token does.
func (s *TokenStore) Save(ctx context.Context, clientID string, sess *domainauth.ProviderSession) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}
	if sess == nil {
		return errors.New("session cannot be nil")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := s.retention
	if !sess.ExpiresAt.IsZero() {
		if remaining := sess.ExpiresAt.Sub(s.now()); remaining > 0 {
			ttl += remaining
		}
	}
	return s.client.Set(ctx, s.prefix+clientID, data, ttl).Err()
}

// Load returns the session stored for clientID, or nil when there is none.
func (s *TokenStore) Load(ctx context.Context, clientID string) (*domainauth.ProviderSession, error) {
	if clientID == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, s.prefix+clientID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.ProviderSession
	if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil {
		// A corrupt entry cannot be refreshed; drop it so the client starts signed out.
		if delErr := s.Delete(ctx, clientID); delErr != nil {
			return nil, fmt.Errorf("cleanup corrupt session: %w", delErr)
		}
		return nil, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}
	return &sess, nil
}

// Delete removes the session stored for clientID.
func (s *TokenStore) Delete(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+clientID).Err()
}

// Count returns the number of stored sessions. It scans, so it is meant for admin tooling.
func (s *TokenStore) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}
