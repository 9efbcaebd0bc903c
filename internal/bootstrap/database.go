package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/data"
)

const defaultConnectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

func connectTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultConnectTimeout
	}
	return d
}

// ConnectDB opens the pgx-backed pool and pings it before returning.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	pg := cfg.DBConfig
	db, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if pg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pg.MaxOpenConns)
	}
	if pg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pg.MaxIdleConns)
	}
	if pg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(pg.ConnectTimeout))
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		return nil, closeAfter(fmt.Errorf("ping database: %w", pingErr), db.Close)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "database connected",
			"host", pg.Host,
			"port", pg.Port,
			"database", pg.Name,
			"max_open_conns", pg.MaxOpenConns,
		)
	}
	return db, nil
}

func closeAfter(err error, closeFn func() error) error {
	if cerr := closeFn(); cerr != nil {
		return errors.Join(err, fmt.Errorf("close after failure: %w", cerr))
	}
	return err
}

// redisTarget is the resolved dial plan for one RedisConfig.
type redisTarget struct {
	mode     config.RedisMode
	addrs    []string
	username string
	password string
	tls      *tls.Config
	master   string
}

// describe renders the target for logs without credentials.
func (t redisTarget) describe() string {
	switch t.mode {
	case config.RedisModeSentinel:
		return "sentinel:" + t.master
	case config.RedisModeCluster:
		return "cluster:" + strings.Join(t.addrs, ",")
	default:
		if len(t.addrs) == 0 {
			return ""
		}
		return t.addrs[0]
	}
}

func resolveRedisTarget(cfg config.RedisConfig) (redisTarget, error) {
	t := redisTarget{mode: cfg.Mode(), password: cfg.Password}

	switch t.mode {
	case config.RedisModeSentinel:
		t.addrs = cfg.SentinelAddrs()
		t.master = cfg.SentinelMasterName
		if len(t.addrs) == 0 {
			return t, errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return t, nil

	case config.RedisModeCluster:
		t.addrs = cfg.ClusterAddrs()
		if len(t.addrs) > 0 {
			return t, nil
		}
		if err := t.applyURI(cfg.URI); err != nil {
			return t, fmt.Errorf("parse redis cluster url: %w", err)
		}
		if len(t.addrs) == 0 {
			return t, errors.New("redis cluster configuration requires at least one address")
		}
		return t, nil

	default:
		if strings.TrimSpace(cfg.URI) == "" {
			return t, errors.New("redis direct configuration requires a URI")
		}
		if err := t.applyURI(cfg.URI); err != nil {
			return t, fmt.Errorf("parse redis url: %w", err)
		}
		return t, nil
	}
}

// applyURI accepts either a bare host:port or a redis:// / rediss:// URL.
func (t *redisTarget) applyURI(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.HasPrefix(raw, "redis://") && !strings.HasPrefix(raw, "rediss://") {
		t.addrs = []string{raw}
		return nil
	}
	opt, err := redis.ParseURL(raw)
	if err != nil {
		return err
	}
	t.addrs = []string{opt.Addr}
	t.username = opt.Username
	if opt.Password != "" {
		t.password = opt.Password
	}
	t.tls = opt.TLSConfig
	return nil
}

//nolint:ireturn // the concrete client depends on the configured topology.
func (t redisTarget) newClient(cfg config.RedisConfig) redis.UniversalClient {
	dial := connectTimeout(cfg.DialTimeout)
	switch t.mode {
	case config.RedisModeSentinel:
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       t.master,
			SentinelAddrs:    t.addrs,
			Password:         t.password,
			SentinelPassword: cfg.SentinelPassword,
			DialTimeout:      dial,
		})
	case config.RedisModeCluster:
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       t.addrs,
			Username:    t.username,
			Password:    t.password,
			TLSConfig:   t.tls,
			DialTimeout: dial,
		})
	default:
		return redis.NewClient(&redis.Options{
			Addr:        t.addrs[0],
			Username:    t.username,
			Password:    t.password,
			TLSConfig:   t.tls,
			DialTimeout: dial,
		})
	}
}

// ConnectRedis dials the configured topology and pings it.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := resolveRedisTarget(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.newClient(cfg.RedisConfig)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg.RedisConfig.DialTimeout))
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		return nil, closeAfter(fmt.Errorf("ping redis: %w", pingErr), client.Close)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "redis connected", "mode", string(target.mode), "addr", redactAddr(target.describe()))
	}
	return client, nil
}

// redactAddr strips userinfo from anything that looks like a URL.
func redactAddr(addr string) string {
	if u, err := url.Parse(addr); err == nil && u.User != nil {
		u.User = nil
		return u.String()
	}
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[i+1:]
	}
	return addr
}

// RunMigrations applies embedded migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
