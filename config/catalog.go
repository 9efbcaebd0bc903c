package config

import (
	"fmt"
	"strings"
	"time"
)

// CatalogSource selects where prestataire records are read from.
type CatalogSource string

const (
	// CatalogSourceMemory serves the compiled-in sample records.
	CatalogSourceMemory CatalogSource = "memory"
	// CatalogSourcePostgres reads records from the prestataires tables.
	CatalogSourcePostgres CatalogSource = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for CatalogSource.
func (s *CatalogSource) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "postgres":
		*s = CatalogSource(v)
		return nil
	default:
		return fmt.Errorf("invalid CatalogSource: %q (valid options: memory, postgres)", v)
	}
}

// CatalogConfig controls the prestataire catalog.
type CatalogConfig struct {
	Source CatalogSource `env:"CATALOG_SOURCE" envDefault:"memory"`

	// CacheEnabled puts a Redis read-through cache in front of the catalog source.
	CacheEnabled bool          `env:"CATALOG_CACHE_ENABLED" envDefault:"false"`
	CacheTTL     time.Duration `env:"CATALOG_CACHE_TTL"     envDefault:"5m"`
}

// Sanitize applies guardrails to catalog configuration values.
func (c *CatalogConfig) Sanitize() {
	if c.CacheTTL < time.Second {
		c.CacheTTL = time.Second
	}
}

// DocumentsConfig controls where attached documents are stored.
// Document links are only served when Bucket is set.
type DocumentsConfig struct {
	Bucket     string        `env:"DOCS_S3_BUCKET"`
	Region     string        `env:"DOCS_S3_REGION"     envDefault:"eu-west-3"`
	Endpoint   string        `env:"DOCS_S3_ENDPOINT"`
	Prefix     string        `env:"DOCS_S3_PREFIX"     envDefault:"documents/"`
	PathStyle  bool          `env:"DOCS_S3_PATH_STYLE" envDefault:"false"`
	PresignTTL time.Duration `env:"DOCS_PRESIGN_TTL"   envDefault:"15m"`
}

// Sanitize applies guardrails to document storage configuration.
func (d *DocumentsConfig) Sanitize() {
	d.Bucket = strings.TrimSpace(d.Bucket)
	d.Endpoint = strings.TrimSpace(d.Endpoint)
	if d.PresignTTL < time.Minute {
		d.PresignTTL = time.Minute
	}
	// S3 caps presigned URLs at seven days.
	if d.PresignTTL > 7*24*time.Hour {
		d.PresignTTL = 7 * 24 * time.Hour
	}
}

// IsEnabled reports whether document links can be generated.
func (d *DocumentsConfig) IsEnabled() bool {
	return d.Bucket != ""
}
