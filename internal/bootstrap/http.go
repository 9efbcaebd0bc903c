package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	prestataires "github.com/target/prestataires-ui"
	"github.com/target/prestataires-ui/config"
	httpx "github.com/target/prestataires-ui/internal/http"
)

// loadingWait is how long a protected request waits for a fresh mirror's
// initial session fetch before the loading placeholder is served.
const loadingWait = 750 * time.Millisecond

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the server with its router and middleware chain. The
// caller starts it; see serveHTTP.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	templates, static, err := assetFilesystems(appCfg.IsDev)
	if err != nil {
		return nil, err
	}
	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{TemplateFS: templates, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	services := httpx.RouterServices{
		Mirrors:      cfg.Services.Mirrors,
		Catalog:      cfg.Services.Catalog,
		Templates:    renderer,
		StaticFS:     static,
		GuestEnabled: appCfg.Auth.GuestEnabled,
		CookieDomain: appCfg.HTTP.CookieDomain,
		LoadingWait:  loadingWait,
		Logger:       logger,

		ReadinessChecks: cfg.Services.Readiness,
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: services,
		HTTP:     appCfg.HTTP,
	})

	server := newServer(handler, appCfg.HTTP)
	// Closing the mirrors ends open auth event streams so Shutdown can drain.
	if cfg.Services.Mirrors != nil {
		server.RegisterOnShutdown(cfg.Services.Mirrors.CloseAll)
	}
	return server, nil
}

// assetFilesystems returns templates and static files: from disk in
// development so edits show up on reload, embedded otherwise.
//
//nolint:ireturn // fs.FS is the abstraction both sources share.
func assetFilesystems(isDev bool) (fs.FS, fs.FS, error) {
	if isDev {
		return os.DirFS(httpx.TemplatePathFromRoot), os.DirFS("frontend/static"), nil
	}
	templates, err := fs.Sub(prestataires.TemplateFS, httpx.TemplatePathFromRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded templates: %w", err)
	}
	static, err := fs.Sub(prestataires.StaticFS, "frontend/static")
	if err != nil {
		return nil, nil, fmt.Errorf("embedded static assets: %w", err)
	}
	return templates, static, nil
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	HTTP     config.HTTPConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	router := httpx.NewRouter(cfg.Services)

	// Apply compression middleware first (innermost) so logging captures compressed sizes
	// Order: Recover -> Logging -> Compression -> Router
	h := router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel, Logger: cfg.Logger})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

func newServer(handler http.Handler, cfg config.HTTPConfig) *http.Server {
	cfg.Sanitize()
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer drains in-flight requests within cfg.Timeout (10s when unset).
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger.Info("shutting down HTTP server", "timeout", timeout)
	ctx, cancel := context.WithTimeout(cfg.Context, timeout)
	defer cancel()
	if err := cfg.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
