package identity

import (
	"context"
	"errors"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"golang.org/x/oauth2"
)

const sessionExtraKey = "provider_session"

// toOAuthToken exposes a provider session as an oauth2 token so the standard
// reuse/expiry logic decides when a refresh is due.
func toOAuthToken(s *domainauth.ProviderSession) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}
	return tok.WithExtra(map[string]any{sessionExtraKey: s})
}

func sessionFromToken(tok *oauth2.Token) (*domainauth.ProviderSession, error) {
	s, ok := tok.Extra(sessionExtraKey).(*domainauth.ProviderSession)
	if !ok || s == nil {
		return nil, errors.New("token carries no provider session")
	}
	return s, nil
}

// refreshSource exchanges a refresh token for a new session on each call.
type refreshSource struct {
	ctx          context.Context
	backend      Backend
	refreshToken string
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	if r.refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	s, err := r.backend.RefreshGrant(r.ctx, r.refreshToken)
	if err != nil {
		return nil, err
	}
	return toOAuthToken(s), nil
}
