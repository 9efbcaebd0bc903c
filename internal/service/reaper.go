package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/observability/statsd"
)

// MirrorSweeper evicts idle session mirrors. Implemented by *MirrorRegistry.
type MirrorSweeper interface {
	Sweep(now time.Time) int
}

type ReaperServiceOptions struct {
	Sweeper MirrorSweeper
	Config  config.MirrorConfig // SweepInterval must be positive
	Logger  *slog.Logger
	Metrics statsd.Sink
	Now     func() time.Time
}

// ReaperService closes session mirrors whose browser has gone quiet.
type ReaperService struct {
	sweeper  MirrorSweeper
	interval time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	switch {
	case opts.Sweeper == nil:
		return nil, errors.New("reaper: MirrorSweeper is required")
	case opts.Config.SweepInterval <= 0:
		return nil, errors.New("reaper: sweep interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ReaperService{
		sweeper:  opts.Sweeper,
		interval: opts.Config.SweepInterval,
		logger:   logger.With("component", "reaper_service"),
		metrics:  opts.Metrics,
		now:      now,
	}, nil
}

// Run sweeps once after a short random delay, then every interval, until ctx
// is done. Cancellation is a clean stop; a deadline is returned as an error.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "reaper started", "interval", s.interval)

	timer := time.NewTimer(s.startDelay())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper stopped", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// startDelay is up to a tenth of the interval so replicas started together
// do not sweep in lockstep.
func (s *ReaperService) startDelay() time.Duration {
	spread := int64(s.interval / 10)
	if spread <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(spread)) // #nosec G404 - scheduling jitter only
}

// SweepOnce runs one sweep and returns how many mirrors were evicted. A done
// context skips the sweep.
func (s *ReaperService) SweepOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	started := time.Now()
	evicted := s.sweeper.Sweep(s.now())
	if s.metrics != nil {
		s.metrics.Timing("reaper.sweep", time.Since(started), nil)
		s.metrics.Count("reaper.evicted", int64(evicted), nil)
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
	if evicted > 0 {
		s.logger.DebugContext(ctx, "sweep evicted idle mirrors", "evicted", evicted)
	}
	return evicted
}
