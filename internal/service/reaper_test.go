package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/prestataires-ui/config"
	authmocks "github.com/target/prestataires-ui/internal/mocks/auth"
	"github.com/target/prestataires-ui/internal/observability/statsd"
)

// countingSweeper records Sweep calls.
type countingSweeper struct {
	mu      sync.Mutex
	calls   []time.Time
	evicted int
}

func (c *countingSweeper) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, now)
	return c.evicted
}

func (c *countingSweeper) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestNewReaperService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{
			Sweeper: &countingSweeper{},
			Config:  config.MirrorConfig{IdleTTL: 30 * time.Minute, SweepInterval: time.Minute},
			Logger:  slog.Default(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when sweeper is nil", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{
			Config: config.MirrorConfig{SweepInterval: time.Minute},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MirrorSweeper is required")
	})

	t.Run("returns error when interval is zero", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{Sweeper: &countingSweeper{}})
		require.ErrorContains(t, err, "sweep interval")
	})
}

func TestReaperService_SweepOnce(t *testing.T) {
	sweeper := &countingSweeper{evicted: 3}
	rec := &statsd.Recorder{}
	svc, err := NewReaperService(ReaperServiceOptions{
		Sweeper: sweeper,
		Config:  config.MirrorConfig{SweepInterval: time.Minute},
		Metrics: rec,
		Now:     func() time.Time { return mirrorTestNow },
	})
	require.NoError(t, err)

	assert.Equal(t, 3, svc.SweepOnce(context.Background()))
	require.Equal(t, 1, sweeper.Calls())
	assert.Equal(t, mirrorTestNow, sweeper.calls[0])
	_, ok := rec.Last("reaper.last_success_epoch")
	assert.True(t, ok)
	evicted, ok := rec.Last("reaper.evicted")
	require.True(t, ok)
	assert.InDelta(t, 3, evicted.Value, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, svc.SweepOnce(ctx))
	assert.Equal(t, 1, sweeper.Calls(), "cancelled context skips the sweep")
}

func TestReaperService_Run(t *testing.T) {
	t.Run("stops gracefully on cancellation", func(t *testing.T) {
		sweeper := &countingSweeper{}
		svc, err := NewReaperService(ReaperServiceOptions{
			Sweeper: sweeper,
			Config:  config.MirrorConfig{SweepInterval: 10 * time.Millisecond},
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Run(ctx) }()

		require.Eventually(t, func() bool { return sweeper.Calls() >= 2 }, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("reaper did not stop")
		}
	})

	t.Run("returns deadline errors", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{
			Sweeper: &countingSweeper{},
			Config:  config.MirrorConfig{SweepInterval: time.Hour},
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err = svc.Run(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestReaperService_SweepsRegistry(t *testing.T) {
	clock := &testClock{now: mirrorTestNow}
	reg, err := NewMirrorRegistry(MirrorRegistryOptions{
		Factory: &authmocks.FakeProviderFactory{},
		IdleTTL: time.Minute,
		Now:     clock.Now,
	})
	require.NoError(t, err)
	defer reg.CloseAll()

	_, err = reg.Get(context.Background(), "client")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	svc, err := NewReaperService(ReaperServiceOptions{
		Sweeper: reg,
		Config:  config.MirrorConfig{SweepInterval: time.Minute},
		Now:     clock.Now,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, svc.SweepOnce(context.Background()))
	assert.Equal(t, 0, reg.Len())
}
