// Package gotrue talks to a GoTrue-compatible identity API (the auth service
// behind Supabase) over HTTP.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/prestataires-ui/internal/adapters/identity"
	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/ports"
)

const maxResponseBytes = 1 << 20

// Config holds the connection settings for Client.
type Config struct {
	URL     string
	AnonKey string
	// JWTSecret, when set, is used to verify access tokens returned by the API.
	JWTSecret  string
	Timeout    time.Duration
	HTTPClient *http.Client // Optional, defaults to a client with Timeout
	Now        func() time.Time
}

// Client implements identity.Backend against a GoTrue HTTP API.
type Client struct {
	baseURL    *url.URL
	anonKey    string
	jwtSecret  string
	httpClient *http.Client
	now        func() time.Time
}

var _ identity.Backend = (*Client)(nil)

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if raw == "" {
		return nil, errors.New("gotrue URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gotrue URL %q", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{baseURL: u, anonKey: cfg.AnonKey, jwtSecret: cfg.JWTSecret, httpClient: httpClient, now: now}, nil
}

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`
}

// signUpResponse is a token response when the account is confirmed at once,
// and a bare user object otherwise.
type signUpResponse struct {
	tokenResponse
	userResponse
}

// SignUp creates an account. display_name travels in user metadata.
func (c *Client) SignUp(ctx context.Context, req ports.SignUpRequest) (ports.SignUpResult, error) {
	body := map[string]any{
		"email":    strings.TrimSpace(req.Email),
		"password": req.Password,
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		body["data"] = map[string]any{"display_name": name}
	}

	var resp signUpResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/signup", body: body, out: &resp}); err != nil {
		return ports.SignUpResult{}, err
	}

	if resp.AccessToken != "" {
		sess, err := c.toSession(&resp.tokenResponse)
		if err != nil {
			return ports.SignUpResult{}, err
		}
		return ports.SignUpResult{User: &sess.User, Session: sess}, nil
	}
	if resp.userResponse.ID == "" {
		return ports.SignUpResult{}, errors.New("gotrue: sign-up response has neither session nor user")
	}
	user := toUser(&resp.userResponse)
	return ports.SignUpResult{User: &user}, nil
}

// PasswordGrant exchanges email and password for a session.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*domainauth.ProviderSession, error) {
	var resp tokenResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": strings.TrimSpace(email), "password": password},
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return c.toSession(&resp)
}

// RefreshGrant exchanges a refresh token for a new session. GoTrue rotates refresh tokens.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*domainauth.ProviderSession, error) {
	var resp tokenResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return c.toSession(&resp)
}

// Logout revokes the session behind accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/logout", bearer: accessToken})
}

// Health pings the API health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodGet, path: "/health"})
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
	out    any
}

func (c *Client) do(ctx context.Context, in call) error {
	u := c.baseURL.JoinPath(in.path)
	if len(in.query) > 0 {
		u.RawQuery = in.query.Encode()
	}

	var reader io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	switch {
	case in.bearer != "":
		req.Header.Set("Authorization", "Bearer "+in.bearer)
	case c.anonKey != "":
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue %s %s: %w", in.method, in.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if in.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, in.out); err != nil {
		return fmt.Errorf("decode %s response: %w", in.path, err)
	}
	return nil
}

func (c *Client) toSession(resp *tokenResponse) (*domainauth.ProviderSession, error) {
	if resp.AccessToken == "" {
		return nil, errors.New("gotrue: token response without access_token")
	}

	claims, err := identity.ParseClaims(resp.AccessToken, c.jwtSecret)
	if err != nil && c.jwtSecret != "" {
		return nil, fmt.Errorf("gotrue: %w", err)
	}

	sess := &domainauth.ProviderSession{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    firstNonEmpty(resp.TokenType, "bearer"),
	}
	switch {
	case resp.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		sess.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	case claims != nil && claims.ExpiresAt != nil:
		sess.ExpiresAt = claims.ExpiresAt.Time
	}

	if resp.User != nil {
		sess.User = toUser(resp.User)
	} else if claims != nil {
		sess.User = claims.User()
	}
	if sess.User.ID == "" {
		return nil, errors.New("gotrue: token response without user")
	}
	return sess, nil
}

func toUser(u *userResponse) domainauth.User {
	user := domainauth.User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      domainauth.RoleUser,
		CreatedAt: u.CreatedAt,
	}
	if name, ok := u.UserMetadata["display_name"].(string); ok {
		user.DisplayName = strings.TrimSpace(name)
	}
	return user
}
