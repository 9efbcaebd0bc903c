package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	apperrors "github.com/target/prestataires-ui/internal/errors"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	got, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)

	sess := &domainauth.ProviderSession{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, "c1", sess))

	sess.AccessToken = "mutated"
	got, err = store.Load(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.AccessToken, "store keeps its own copy")

	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx, "c1"))
	got, err = store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.Error(t, store.Save(ctx, "", sess))
	require.Error(t, store.Save(ctx, "c1", nil))
}

func TestCatalogRepo(t *testing.T) {
	repo := NewSampleCatalogRepo()
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 6)
	assert.Equal(t, "p-001", list[0].ID)

	list[0].Chantiers[0].Name = "changed"
	again, _ := repo.List(ctx)
	assert.NotEqual(t, "changed", again[0].Chantiers[0].Name)

	p, err := repo.GetByID(ctx, "p-004")
	require.NoError(t, err)
	assert.Equal(t, "Toitures du Rhône", p.Company)
	assert.Empty(t, p.Chantiers)

	_, err = repo.GetByID(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, repo.ReplaceAll(ctx, nil))
	list, _ = repo.List(ctx)
	assert.Empty(t, list)
}
