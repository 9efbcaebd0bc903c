package config

import (
	"os"
	"slices"
	"strings"
)

// AppConfig is the whole environment-driven configuration, parsed with
// caarlos0/env. Each section lives in its own file:
//
//	auth.go           AUTH_*, GOTRUE_*, DEV_AUTH_*, token storage
//	database.go       DB_*, REDIS_*
//	http.go           HTTP_*, cookie domain, compression
//	catalog.go        CATALOG_*, DOCUMENTS_*
//	services.go       SERVICES, MIRROR_*
//	observability.go  OBSERVABILITY_METRICS_*
//	log.go            LOG_LEVEL, LOG_FORMAT
type AppConfig struct {
	// IsDev serves templates from disk and shows template errors. DEV=true
	// sets it, as does NODE_ENV or APP_ENV set to "development" or "dev".
	IsDev bool `env:"DEV" envDefault:"false"`

	Log  LogConfig
	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP      HTTPConfig
	Catalog   CatalogConfig
	Documents DocumentsConfig

	// Services is the comma-separated list of units to run; see ParseServices.
	Services string `env:"SERVICES" envDefault:"http,reaper"`
	Mirror   MirrorConfig

	Observability ObservabilityConfig
}

// devEnvVars are consulted, in order, when DEV is unset. The frontend
// tooling sets NODE_ENV.
var devEnvVars = []string{"NODE_ENV", "APP_ENV"}

// Sanitize clamps every section and resolves dev mode. Call it once after
// parsing.
func (c *AppConfig) Sanitize() {
	for _, s := range []interface{ Sanitize() }{
		&c.HTTP, &c.Auth, &c.Catalog, &c.Documents, &c.Mirror, &c.Observability,
	} {
		s.Sanitize()
	}
	c.IsDev = c.IsDev || slices.ContainsFunc(devEnvVars, func(key string) bool {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		return v == "development" || v == "dev"
	})
}

// GetEnabledServices parses Services.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// NeedsRedis is true when the token store or the catalog cache uses Redis.
func (c *AppConfig) NeedsRedis() bool {
	return c.Auth.TokenStore == TokenStoreRedis || c.Catalog.CacheEnabled
}

// NeedsPostgres is true when DB_ENABLED is set or the catalog reads from Postgres.
func (c *AppConfig) NeedsPostgres() bool {
	return c.Postgres.Enabled || c.Catalog.Source == CatalogSourcePostgres
}
