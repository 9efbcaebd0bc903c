package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/adapters/memory"
	"github.com/target/prestataires-ui/internal/adapters/s3docs"
	"github.com/target/prestataires-ui/internal/data"
	httpx "github.com/target/prestataires-ui/internal/http"
	"github.com/target/prestataires-ui/internal/observability/statsd"
	"github.com/target/prestataires-ui/internal/ports"
	"github.com/target/prestataires-ui/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Mirrors       *service.MirrorRegistry
	Catalog       *service.CatalogService
	Observability ObservabilityContainer
	// Readiness has one probe per connected store.
	Readiness map[string]httpx.HealthCheck
}

// readinessChecks probes whichever stores were connected at startup.
func readinessChecks(db *sql.DB, redisClient redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := make(map[string]httpx.HealthCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = data.NewRedisCacheRepo(redisClient).Health
	}
	return checks
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// MetricsSink is nil when metrics are disabled.
	MetricsSink   statsd.Sink
	MetricsClient *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Close flushes and closes the metrics client, if any.
func (o ObservabilityContainer) Close() error {
	if o.MetricsClient == nil {
		return nil
	}
	return o.MetricsClient.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures the StatsD sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	out := ObservabilityContainer{MetricsConfig: cfg.Metrics}
	if !cfg.Metrics.IsEnabled() {
		return out
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:       true,
		Address:       cfg.Metrics.StatsdAddress,
		Prefix:        cfg.Metrics.Prefix,
		GlobalTags:    cfg.Metrics.Tags,
		FlushInterval: cfg.Metrics.FlushInterval,
		MaxPacketSize: cfg.Metrics.MaxPacketSize,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return out
	}
	out.MetricsClient = client
	out.MetricsSink = client
	return out
}

// CatalogDeps groups what BuildCatalogService needs.
type CatalogDeps struct {
	Context     context.Context
	Catalog     config.CatalogConfig
	Documents   config.DocumentsConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// BuildCatalogService wires the catalog source, optional Redis cache and optional document storage.
func BuildCatalogService(deps CatalogDeps) (*service.CatalogService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}

	opts := service.CatalogServiceOptions{
		CacheTTL: deps.Catalog.CacheTTL,
		Logger:   logger,
		Metrics:  deps.Metrics,
	}

	switch deps.Catalog.Source {
	case config.CatalogSourcePostgres:
		if deps.DB == nil {
			return nil, errors.New("CATALOG_SOURCE=postgres requires a database connection")
		}
		opts.Repo = data.NewPrestataireRepo(deps.DB)
	default:
		opts.Repo = memory.NewSampleCatalogRepo()
	}

	if deps.Catalog.CacheEnabled {
		if deps.RedisClient == nil {
			return nil, errors.New("CATALOG_CACHE_ENABLED requires a redis connection")
		}
		opts.Cache = data.NewRedisCacheRepo(deps.RedisClient)
	}

	if deps.Documents.IsEnabled() {
		linker, err := s3docs.New(ctx, s3docs.Config{
			Bucket:     deps.Documents.Bucket,
			Region:     deps.Documents.Region,
			Endpoint:   deps.Documents.Endpoint,
			Prefix:     deps.Documents.Prefix,
			PathStyle:  deps.Documents.PathStyle,
			PresignTTL: deps.Documents.PresignTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("document storage: %w", err)
		}
		opts.Documents = linker
	}

	logger.Info("catalog configured",
		"source", deps.Catalog.Source,
		"cache", deps.Catalog.CacheEnabled,
		"documents", deps.Documents.IsEnabled(),
	)
	return service.NewCatalogService(opts)
}

// NewServices builds the application services from configuration and connections.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	obs := buildObservability(logger, cfg.Observability)

	factory, err := BuildIdentityFactory(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	var profiles ports.ProfileStore
	if deps.DB != nil {
		profiles = data.NewProfileRepo(deps.DB)
	}

	mirrors, err := service.NewMirrorRegistry(service.MirrorRegistryOptions{
		Factory:  factory,
		Profiles: profiles,
		IdleTTL:  cfg.Mirror.IdleTTL,
		Logger:   logger,
		Metrics:  obs.MetricsSink,

		RefreshMargin: cfg.Auth.GoTrue.RefreshMargin,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("mirror registry: %w", err)
	}

	catalog, err := BuildCatalogService(CatalogDeps{
		Context:     ctx,
		Catalog:     cfg.Catalog,
		Documents:   cfg.Documents,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Metrics:     obs.MetricsSink,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Mirrors:       mirrors,
		Catalog:       catalog,
		Observability: obs,
		Readiness:     readinessChecks(deps.DB, deps.RedisClient),
	}, nil
}
