package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/adapters/devidp"
	"github.com/target/prestataires-ui/internal/adapters/gotrue"
	"github.com/target/prestataires-ui/internal/adapters/identity"
	"github.com/target/prestataires-ui/internal/adapters/memory"
	redisadapter "github.com/target/prestataires-ui/internal/adapters/redis"
	"github.com/target/prestataires-ui/internal/ports"
)

// AuthConfig contains configuration for the identity provider factory.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildIdentityFactory creates the per-client identity provider factory for
// the configured auth mode and token store.
func BuildIdentityFactory(cfg AuthConfig) (*identity.Factory, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := buildTokenStore(cfg)
	if err != nil {
		return nil, err
	}

	var backend identity.Backend
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		backend, err = buildDevBackend(cfg.Auth.DevAuth, logger)
	case config.AuthModeGoTrue:
		backend, err = gotrue.NewClient(gotrue.Config{
			URL:       cfg.Auth.GoTrue.URL,
			AnonKey:   cfg.Auth.GoTrue.AnonKey,
			JWTSecret: cfg.Auth.GoTrue.JWTSecret,
			Timeout:   cfg.Auth.GoTrue.Timeout,
		})
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("build identity backend: %w", err)
	}

	logger.Info("identity provider configured",
		"mode", cfg.Auth.Mode,
		"token_store", cfg.Auth.TokenStore,
		"guest_enabled", cfg.Auth.GuestEnabled,
	)
	return identity.NewFactory(backend, store, identity.Options{
		RefreshMargin: cfg.Auth.GoTrue.RefreshMargin,
		Logger:        logger,
	})
}

//nolint:ireturn // callers pick the store implementation from config.
func buildTokenStore(cfg AuthConfig) (ports.TokenStore, error) {
	switch cfg.Auth.TokenStore {
	case config.TokenStoreRedis:
		if cfg.RedisClient == nil {
			return nil, errors.New("AUTH_TOKEN_STORE=redis requires a redis connection")
		}
		return redisadapter.NewTokenStore(cfg.RedisClient), nil
	default:
		return memory.NewTokenStore(), nil
	}
}

func buildDevBackend(cfg config.DevAuthConfig, logger *slog.Logger) (*devidp.Server, error) {
	srv, err := devidp.New(devidp.Config{
		Accounts:    cfg.Accounts,
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    cfg.TokenTTL,
		AutoConfirm: cfg.AutoConfirm,
	})
	if err != nil {
		return nil, err
	}
	logger.Warn("using in-process development identity provider; do not use in production",
		"accounts", len(srv.Accounts()),
		"auto_confirm", cfg.AutoConfirm,
	)
	return srv, nil
}
