package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/prestataires-ui/config"
)

// shutdownWaitTimeout bounds how long stopping units may take once the run
// context is done.
const shutdownWaitTimeout = 15 * time.Second

var errShutdownTimeout = errors.New("services did not stop in time")

// ServiceOrchestrationConfig is what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// serviceUnit is one long-running component. run blocks until ctx is done or
// the unit fails; a nil return after cancellation is a clean stop.
type serviceUnit struct {
	mode config.ServiceMode
	name string
	run  func(ctx context.Context) error
}

// RunServicesWithShutdown runs every enabled unit until SIGINT/SIGTERM or the
// first unit failure, then stops the rest and closes the session mirrors.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config with AppConfig is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	units, err := enabledUnits(serviceUnits(cfg, logger), enabled)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := runUnits(ctx, units, logger, shutdownWaitTimeout)
	if cfg.Services.Mirrors != nil {
		cfg.Services.Mirrors.CloseAll()
	}
	return runErr
}

func serviceUnits(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []serviceUnit {
	return []serviceUnit{
		{
			mode: config.ServiceModeHTTP,
			name: "http",
			run: func(ctx context.Context) error {
				server, err := NewHTTPServer(&HTTPServerConfig{
					Config:   cfg.Config,
					Services: cfg.Services,
					Logger:   logger,
				})
				if err != nil {
					return err
				}
				return serveHTTP(ctx, server, cfg.Config.HTTP.ShutdownTimeout, logger)
			},
		},
		{
			mode: config.ServiceModeReaper,
			name: "reaper",
			run: func(ctx context.Context) error {
				return RunReaper(ctx, ReaperConfig{
					Registry: cfg.Services.Mirrors,
					Config:   cfg.Config.Mirror,
					Logger:   logger,
					Metrics:  cfg.Services.Observability.MetricsSink,
				})
			},
		},
	}
}

// enabledUnits keeps the units whose mode is enabled, in declaration order.
func enabledUnits(all []serviceUnit, enabled map[config.ServiceMode]bool) ([]serviceUnit, error) {
	out := make([]serviceUnit, 0, len(all))
	for _, u := range all {
		if enabled[u.mode] {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no service enabled")
	}
	return out, nil
}

// runUnits runs units in an errgroup. A failing unit cancels the others. Once
// the group context is done the units get waitTimeout to return.
func runUnits(ctx context.Context, units []serviceUnit, logger *slog.Logger, waitTimeout time.Duration) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, u := range units {
		group.Go(func() error {
			logger.InfoContext(gctx, "service started", "service", u.name, "mode", u.mode)
			if err := u.run(gctx); err != nil {
				return fmt.Errorf("%s: %w", u.name, err)
			}
			logger.InfoContext(gctx, "service stopped", "service", u.name)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-gctx.Done():
		logger.Info("shutting down services")
	}

	timer := time.NewTimer(waitTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			logger.Error("service error", "error", err)
		}
		return err
	case <-timer.C:
		logger.Warn("timed out waiting for services to stop", "timeout", waitTimeout)
		return errShutdownTimeout
	}
}

// serveHTTP listens until ctx is done, then drains the server. A listen
// failure is returned so the other units stop too.
func serveHTTP(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		listenErr <- server.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", server.Addr, err)
	case <-ctx.Done():
	}
	// The run context is already done; draining gets a fresh one.
	return ShutdownHTTPServer(ShutdownConfig{
		Context: context.Background(),
		Server:  server,
		Timeout: timeout,
		Logger:  logger,
	})
}
