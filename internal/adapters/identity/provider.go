// Package identity binds an identity backend to one browser client: it persists
// the client's provider session, refreshes it when due and reports changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/ports"
	"golang.org/x/oauth2"
)

// Backend is the stateless credential API of an identity service.
type Backend interface {
	SignUp(ctx context.Context, req ports.SignUpRequest) (ports.SignUpResult, error)
	PasswordGrant(ctx context.Context, email, password string) (*domainauth.ProviderSession, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*domainauth.ProviderSession, error)
	// Logout revokes the refresh tokens behind accessToken.
	Logout(ctx context.Context, accessToken string) error
}

// Options configures providers built by a Factory.
type Options struct {
	// RefreshMargin is how long before expiry an access token is refreshed.
	RefreshMargin time.Duration
	Logger        *slog.Logger
}

// Factory builds per-client providers that share one backend and token store.
type Factory struct {
	backend Backend
	store   ports.TokenStore
	opts    Options
}

// NewFactory creates a Factory.
func NewFactory(backend Backend, store ports.TokenStore, opts Options) (*Factory, error) {
	if backend == nil {
		return nil, errors.New("identity backend is required")
	}
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Factory{backend: backend, store: store, opts: opts}, nil
}

// ForClient implements ports.IdentityProviderFactory.
func (f *Factory) ForClient(clientID string) ports.IdentityProvider {
	return &ClientProvider{
		clientID: clientID,
		backend:  f.backend,
		store:    f.store,
		bus:      domainauth.NewBroadcaster(),
		margin:   f.opts.RefreshMargin,
		logger:   f.opts.Logger.With("component", "identity", "client_id", clientID),
	}
}

// ClientProvider is the identity provider as seen by one browser client.
type ClientProvider struct {
	clientID string
	backend  Backend
	store    ports.TokenStore
	bus      *domainauth.Broadcaster
	margin   time.Duration
	logger   *slog.Logger

	// mu serializes session reads and writes so a refresh token is spent once.
	mu sync.Mutex
}

var _ ports.IdentityProvider = (*ClientProvider)(nil)

// OnSessionChange implements ports.IdentityProvider.
func (p *ClientProvider) OnSessionChange(listener domainauth.ChangeListener) ports.Subscription {
	return p.bus.Subscribe(listener)
}

// GetCurrentSession returns the stored session, refreshing it first when it is
// within the refresh margin of expiry. A rejected refresh token signs the client out.
func (p *ClientProvider) GetCurrentSession(ctx context.Context) (*domainauth.ProviderSession, error) {
	p.mu.Lock()
	sess, refreshed, err := p.currentLocked(ctx)
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if refreshed {
		p.bus.Publish(domainauth.EventTokenRefreshed, sess)
	}
	return sess, nil
}

func (p *ClientProvider) currentLocked(ctx context.Context) (*domainauth.ProviderSession, bool, error) {
	sess, err := p.store.Load(ctx, p.clientID)
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, false, nil
	}

	src := oauth2.ReuseTokenSourceWithExpiry(toOAuthToken(sess), &refreshSource{
		ctx:          ctx,
		backend:      p.backend,
		refreshToken: sess.RefreshToken,
	}, p.margin)

	tok, err := src.Token()
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) || errors.Is(err, ErrInvalidCredentials) {
			p.logger.InfoContext(ctx, "refresh token rejected; signing client out", "error", err)
			if delErr := p.store.Delete(ctx, p.clientID); delErr != nil {
				return nil, false, fmt.Errorf("drop rejected session: %w", delErr)
			}
			p.bus.Publish(domainauth.EventSignedOut, nil)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("refresh session: %w", err)
	}

	current, err := sessionFromToken(tok)
	if err != nil {
		return nil, false, err
	}
	if current == sess {
		return sess, false, nil
	}
	if saveErr := p.store.Save(ctx, p.clientID, current); saveErr != nil {
		return nil, false, fmt.Errorf("save refreshed session: %w", saveErr)
	}
	p.logger.DebugContext(ctx, "session refreshed", "expires_at", current.ExpiresAt)
	return current, true, nil
}

// SignUp implements ports.IdentityProvider. When the backend issues a session
// right away it is persisted and SIGNED_IN is reported. The account exists
// once the backend accepts it, so a token store failure is only logged and
// the client signs in again later.
func (p *ClientProvider) SignUp(ctx context.Context, req ports.SignUpRequest) (ports.SignUpResult, error) {
	res, err := p.backend.SignUp(ctx, req)
	if err != nil {
		return ports.SignUpResult{}, err
	}
	if res.Session != nil {
		if saveErr := p.save(ctx, res.Session); saveErr != nil {
			p.logger.WarnContext(ctx, "failed to persist sign-up session", "error", saveErr)
			res.Session = nil
			return res, nil
		}
		p.bus.Publish(domainauth.EventSignedIn, res.Session)
	}
	return res, nil
}

// SignInWithPassword implements ports.IdentityProvider.
func (p *ClientProvider) SignInWithPassword(
	ctx context.Context,
	email, password string,
) (*domainauth.ProviderSession, error) {
	sess, err := p.backend.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if saveErr := p.save(ctx, sess); saveErr != nil {
		return nil, saveErr
	}
	p.bus.Publish(domainauth.EventSignedIn, sess)
	return sess, nil
}

// SignOut revokes the stored session at the backend and forgets it.
// If the backend refuses for a reason other than an unknown session, the
// session is kept and the error returned.
func (p *ClientProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sess, err := p.store.Load(ctx, p.clientID)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("load session: %w", err)
	}
	if sess != nil && sess.AccessToken != "" {
		if logoutErr := p.backend.Logout(ctx, sess.AccessToken); logoutErr != nil &&
			!errors.Is(logoutErr, ErrSessionNotFound) {
			p.mu.Unlock()
			return logoutErr
		}
	}
	delErr := p.store.Delete(ctx, p.clientID)
	p.mu.Unlock()
	if delErr != nil {
		return fmt.Errorf("delete session: %w", delErr)
	}

	p.bus.Publish(domainauth.EventSignedOut, nil)
	return nil
}

func (p *ClientProvider) save(ctx context.Context, sess *domainauth.ProviderSession) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Save(ctx, p.clientID, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
