package data

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyKey is returned before any round trip when a key or prefix is blank.
var ErrEmptyKey = errors.New("cache key cannot be empty")

const scanBatch = 100

// RedisCacheRepo stores opaque byte payloads in Redis. It backs the catalog
// cache and the admin cache commands.
type RedisCacheRepo struct {
	client redis.UniversalClient
}

func NewRedisCacheRepo(client redis.UniversalClient) *RedisCacheRepo {
	return &RedisCacheRepo{client: client}
}

// Get returns the payload stored at key. A miss yields (nil, nil).
func (r *RedisCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	payload, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return payload, nil
}

// Set writes value at key. A zero ttl keeps the key until it is deleted.
func (r *RedisCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are ignored.
func (r *RedisCacheRepo) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (r *RedisCacheRepo) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %s: %w", key, err)
	}
	return n > 0, nil
}

// DeletePrefix removes every key matching prefix* and reports how many went.
// On a cluster each master is scanned in turn.
func (r *RedisCacheRepo) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, ErrEmptyKey
	}
	cluster, ok := r.client.(*redis.ClusterClient)
	if !ok {
		return unlinkMatching(ctx, r.client, prefix+"*")
	}

	// ForEachMaster runs the callbacks concurrently.
	var total atomic.Int64
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		n, err := unlinkMatching(ctx, node, prefix+"*")
		total.Add(n)
		return err
	})
	return total.Load(), err
}

// unlinkMatching scans one node and unlinks matches one batch at a time.
func unlinkMatching(ctx context.Context, c redis.Cmdable, pattern string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		// Keys are unlinked one at a time so cluster slots never mix.
		for _, key := range keys {
			n, err := c.Unlink(ctx, key).Result()
			if err != nil {
				return removed, fmt.Errorf("cache unlink %s: %w", key, err)
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Health pings the server.
func (r *RedisCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
