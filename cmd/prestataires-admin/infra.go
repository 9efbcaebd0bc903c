package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/prestataires-ui/internal/bootstrap"
)

var errRedisNotConfigured = errors.New("redis not configured")

// commandScope derives an interruptible context bounded by timeout.
func commandScope(cmdCtx *commandContext, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// withDatabase runs f against a freshly opened pool that is closed afterwards.
func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, cancel := commandScope(cmdCtx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// openRedis dials Redis when REDIS_* is usable. The returned release func is never nil on success.
//
//nolint:ireturn // the concrete client depends on the configured topology.
func openRedis(ctx context.Context, cmdCtx *commandContext) (redis.UniversalClient, func(), error) {
	if !cmdCtx.Config.Redis.Configured() {
		return nil, nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	release := func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close redis failed", "error", cerr)
		}
	}
	return client, release, nil
}
