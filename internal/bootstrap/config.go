package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/target/prestataires-ui/config"
)

// NewLogger builds the process logger for the given format and level.
func NewLogger(w io.Writer, cfg config.LogConfig, isDev bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel(isDev)}
	if cfg.Format == config.LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// InitLogger installs the configured logger as the slog default.
func InitLogger(cfg *config.AppConfig) *slog.Logger {
	var (
		logCfg config.LogConfig
		isDev  bool
	)
	if cfg != nil {
		logCfg, isDev = cfg.Log, cfg.IsDev
	}
	logger := NewLogger(os.Stdout, logCfg, isDev)
	slog.SetDefault(logger)
	return logger
}

// envFiles lists dotenv files to load: ENV_FILE (comma separated) or ".env".
func envFiles() []string {
	raw := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if raw == "" {
		return []string{".env"}
	}
	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// LoadConfig reads dotenv files, when present, then the environment.
// Variables already set in the environment win over dotenv values.
func LoadConfig() (config.AppConfig, error) {
	for _, file := range envFiles() {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.AppConfig{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig reports every startup misconfiguration at once.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}

	var errs []error
	services, err := cfg.GetEnabledServices()
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid service configuration: %w", err))
	case len(services) == 0:
		errs = append(errs, errors.New("no services enabled"))
	}

	if cfg.Auth.Mode == config.AuthModeGoTrue && cfg.Auth.GoTrue.URL == "" {
		errs = append(errs, errors.New("GOTRUE_URL is required when AUTH_MODE=gotrue"))
	}
	if cfg.NeedsRedis() && !cfg.Redis.Configured() {
		errs = append(errs, fmt.Errorf("redis is required but REDIS_* does not describe a %s deployment", cfg.Redis.Mode()))
	}
	return errors.Join(errs...)
}

// GetEnabledServices returns enabled service names in canonical order.
func GetEnabledServices(cfg *config.AppConfig) []string {
	out := []string{}
	if cfg == nil {
		return out
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return out
	}
	for _, mode := range config.ValidServiceModes() {
		if services[mode] {
			out = append(out, string(mode))
		}
	}
	return out
}
