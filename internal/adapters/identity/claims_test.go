package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
)

func TestSignAndParseClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	user := domainauth.User{ID: "u-1", Email: "alice@example.com", DisplayName: "Alice"}

	token, err := SignClaims(NewClaims(user, now, time.Hour), "secret")
	require.NoError(t, err)

	claims, err := ParseClaims(token, "secret")
	require.NoError(t, err)
	got := claims.User()
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, domainauth.RoleUser, got.Role)
	assert.True(t, claims.ExpiresAt.Time.Equal(now.Add(time.Hour)))

	_, err = ParseClaims(token, "other-secret")
	require.Error(t, err)

	unverified, err := ParseClaims(token, "")
	require.NoError(t, err)
	assert.Equal(t, "u-1", unverified.Subject)
}

func TestParseClaims_Expired(t *testing.T) {
	token, err := SignClaims(NewClaims(domainauth.User{ID: "u"}, time.Now().Add(-2*time.Hour), time.Hour), "s")
	require.NoError(t, err)

	_, err = ParseClaims(token, "s")
	require.Error(t, err)
}

func TestSignClaims_RequiresSecret(t *testing.T) {
	_, err := SignClaims(&Claims{}, "")
	require.Error(t, err)
}

func TestClaims_DisplayNameIgnoresNonString(t *testing.T) {
	c := &Claims{UserMetadata: map[string]any{"display_name": 42}}
	assert.Empty(t, c.DisplayName())
	var nilClaims *Claims
	assert.Empty(t, nilClaims.DisplayName())
}
