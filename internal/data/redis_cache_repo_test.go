package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/prestataires-ui/internal/testutil"
)

func TestRedisCacheRepo_SetGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		key := "catalog:test:1"
		ttl := 5 * time.Minute
		require.NoError(t, repo.Set(ctx, key, []byte(`{"items":[]}`), ttl))

		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"items":[]}`), got)

		actualTTL := client.TTL(ctx, key).Val()
		assert.True(t, actualTTL > 0 && actualTTL <= ttl)
	})

	t.Run("missing key is a nil value", func(t *testing.T) {
		got, err := repo.Get(ctx, "catalog:test:missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		key := "catalog:test:2"
		require.NoError(t, repo.Set(ctx, key, []byte("x"), time.Minute))
		require.NoError(t, repo.Delete(ctx, key))

		exists, err := repo.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, repo.Delete(ctx, "catalog:test:never-set"))
	})

	t.Run("delete prefix", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "catalog:prefix:a", []byte("a"), time.Minute))
		require.NoError(t, repo.Set(ctx, "catalog:prefix:b", []byte("b"), time.Minute))
		require.NoError(t, repo.Set(ctx, "other:key", []byte("c"), time.Minute))

		n, err := repo.DeletePrefix(ctx, "catalog:prefix:")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		exists, err := repo.Exists(ctx, "other:key")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("delete prefix spans scan batches", func(t *testing.T) {
		for i := range 2*scanBatch + 7 {
			require.NoError(t, repo.Set(ctx, fmt.Sprintf("catalog:bulk:%03d", i), []byte("x"), time.Minute))
		}
		n, err := repo.DeletePrefix(ctx, "catalog:bulk:")
		require.NoError(t, err)
		assert.Equal(t, int64(2*scanBatch+7), n)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, repo.Health(ctx))
	})
}

func TestRedisCacheRepo_EmptyKey(t *testing.T) {
	// Validation fails before any network call, so the address is never dialed.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	require.ErrorIs(t, repo.Set(ctx, "", []byte("v"), time.Minute), ErrEmptyKey)
	_, err := repo.Get(ctx, "")
	require.ErrorIs(t, err, ErrEmptyKey)
	require.ErrorIs(t, repo.Delete(ctx, ""), ErrEmptyKey)
	_, err = repo.Exists(ctx, "")
	require.ErrorIs(t, err, ErrEmptyKey)
	_, err = repo.DeletePrefix(ctx, "")
	require.ErrorIs(t, err, ErrEmptyKey)
}
