package devidp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/prestataires-ui/internal/adapters/identity"
	"github.com/target/prestataires-ui/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

func newServer(t *testing.T, autoConfirm bool) *Server {
	t.Helper()
	s, err := New(Config{
		Accounts:    []string{"dev@example.com:devpassword"},
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		AutoConfirm: autoConfirm,
		BcryptCost:  bcrypt.MinCost,
	})
	require.NoError(t, err)
	return s
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{JWTSecret: "s", Accounts: []string{"missing-colon"}, BcryptCost: bcrypt.MinCost})
	require.Error(t, err)

	_, err = New(Config{JWTSecret: "s", Accounts: []string{"a@b.c:123"}, BcryptCost: bcrypt.MinCost})
	require.ErrorIs(t, err, identity.ErrWeakPassword)
}

func TestServer_SeededAccountSignsIn(t *testing.T) {
	s := newServer(t, true)
	ctx := context.Background()

	sess, err := s.PasswordGrant(ctx, "DEV@example.com", "devpassword")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.RefreshToken)

	claims, err := identity.ParseClaims(sess.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.Subject)

	_, err = s.PasswordGrant(ctx, "dev@example.com", "wrong")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = s.PasswordGrant(ctx, "nobody@example.com", "devpassword")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestServer_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("auto confirm issues a session", func(t *testing.T) {
		s := newServer(t, true)
		res, err := s.SignUp(ctx, ports.SignUpRequest{Email: "alice@example.com", Password: "secret1", DisplayName: " Alice "})
		require.NoError(t, err)
		require.NotNil(t, res.User)
		require.NotNil(t, res.Session)
		assert.Equal(t, "Alice", res.User.DisplayName)
		assert.NotEmpty(t, res.User.ID)
	})

	t.Run("confirmation required", func(t *testing.T) {
		s := newServer(t, false)
		res, err := s.SignUp(ctx, ports.SignUpRequest{Email: "bob@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Nil(t, res.Session)

		_, err = s.PasswordGrant(ctx, "bob@example.com", "secret1")
		require.ErrorIs(t, err, identity.ErrEmailNotConfirmed)

		require.NoError(t, s.Confirm("bob@example.com"))
		_, err = s.PasswordGrant(ctx, "bob@example.com", "secret1")
		require.NoError(t, err)
	})

	t.Run("rejections", func(t *testing.T) {
		s := newServer(t, true)
		_, err := s.SignUp(ctx, ports.SignUpRequest{Email: "dev@example.com", Password: "another1"})
		require.ErrorIs(t, err, identity.ErrUserExists)
		_, err = s.SignUp(ctx, ports.SignUpRequest{Email: "not-an-email", Password: "secret1"})
		require.ErrorIs(t, err, identity.ErrInvalidEmail)
		_, err = s.SignUp(ctx, ports.SignUpRequest{Email: "c@example.com", Password: "123"})
		require.ErrorIs(t, err, identity.ErrWeakPassword)
	})
}

func TestServer_RefreshRotatesTokens(t *testing.T) {
	s := newServer(t, true)
	ctx := context.Background()

	sess, err := s.PasswordGrant(ctx, "dev@example.com", "devpassword")
	require.NoError(t, err)

	next, err := s.RefreshGrant(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	_, err = s.RefreshGrant(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, identity.ErrInvalidRefreshToken)
}

func TestServer_LogoutRevokesRefreshTokens(t *testing.T) {
	s := newServer(t, true)
	ctx := context.Background()

	sess, err := s.PasswordGrant(ctx, "dev@example.com", "devpassword")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx, sess.AccessToken))

	_, err = s.RefreshGrant(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, identity.ErrInvalidRefreshToken)

	require.ErrorIs(t, s.Logout(ctx, "garbage"), identity.ErrSessionNotFound)
}

func TestServer_Accounts(t *testing.T) {
	s := newServer(t, true)
	users := s.Accounts()
	require.Len(t, users, 1)
	assert.Equal(t, "dev@example.com", users[0].Email)
}
