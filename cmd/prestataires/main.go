// Command prestataires serves the prestataire directory web UI and runs the
// session mirror reaper.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/bootstrap"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // non-zero exit on startup or runtime failure
	}
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLogger(&cfg)
	logger.InfoContext(ctx, "starting prestataires service",
		"auth_mode", cfg.Auth.Mode,
		"catalog_source", cfg.Catalog.Source,
		"needs_postgres", cfg.NeedsPostgres(),
		"needs_redis", cfg.NeedsRedis(),
		"enabled_services", bootstrap.GetEnabledServices(&cfg))

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}

	infra, err := connect(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(ctx)

	if err = infra.migrate(ctx, cfg.Postgres.RunMigrationsOnStart); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          infra.db,
		RedisClient: infra.redis,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}
	defer func() {
		if cerr := services.Observability.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics client failed", "error", cerr)
		}
	}()

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

// infrastructure holds the store connections the configuration asked for.
// Either may be nil.
type infrastructure struct {
	db     *sql.DB
	redis  redis.UniversalClient
	logger *slog.Logger
}

func connect(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{logger: logger}
	if cfg.NeedsPostgres() {
		db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		infra.db = db
	}
	if cfg.NeedsRedis() {
		client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("connect redis: %w", err), infra.closeAll())
		}
		infra.redis = client
	}
	return infra, nil
}

func (i *infrastructure) migrate(ctx context.Context, onStart bool) error {
	if i.db == nil {
		return nil
	}
	if !onStart {
		i.logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		return nil
	}
	return bootstrap.RunMigrations(ctx, i.db, i.logger)
}

func (i *infrastructure) closeAll() error {
	var errs []error
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (i *infrastructure) close(ctx context.Context) {
	if err := i.closeAll(); err != nil {
		i.logger.ErrorContext(ctx, "close infrastructure failed", "error", err)
	}
}
