package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
)

// Claims is the access token payload issued by GoTrue-compatible providers.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// DisplayName returns user_metadata.display_name when it is a string.
func (c *Claims) DisplayName() string {
	if c == nil || c.UserMetadata == nil {
		return ""
	}
	if v, ok := c.UserMetadata["display_name"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// User maps the claims to a domain user.
func (c *Claims) User() domainauth.User {
	u := domainauth.User{
		ID:          c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName(),
		Role:        domainauth.RoleUser,
	}
	if c.IssuedAt != nil {
		u.CreatedAt = c.IssuedAt.Time
	}
	return u
}

// SignClaims signs claims with HS256.
func SignClaims(claims *Claims, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseClaims decodes an access token. With a secret the HS256 signature and
// expiry are verified; without one the payload is decoded as-is.
func ParseClaims(token, secret string) (*Claims, error) {
	claims := &Claims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
		return claims, nil
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return claims, nil
}

// NewClaims builds claims for user expiring ttl after now.
func NewClaims(user domainauth.User, now time.Time, ttl time.Duration) *Claims {
	meta := map[string]any{}
	if user.DisplayName != "" {
		meta["display_name"] = user.DisplayName
	}
	return &Claims{
		Email:        user.Email,
		Role:         "authenticated",
		UserMetadata: meta,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
