package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/observability/statsd"
	"github.com/target/prestataires-ui/internal/service"
)

type ReaperConfig struct {
	Registry *service.MirrorRegistry
	Config   config.MirrorConfig
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// RunReaper sweeps idle mirrors out of the registry until ctx is cancelled.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	if cfg.Registry == nil {
		return errors.New("reaper needs the mirror registry")
	}
	svc, err := service.NewReaperService(service.ReaperServiceOptions{
		Sweeper: cfg.Registry,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}
