package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Addr    string `env:"HTTP_ADDR"    envDefault:":8080"`
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	// CookieDomain scopes the client and CSRF cookies. Empty means host-only.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`
	CompressionLevel   int  `env:"HTTP_COMPRESSION_LEVEL"   envDefault:"6"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT"        envDefault:"30s"`
	// WriteTimeout does not apply to the auth event stream, which clears its own deadline.
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

// Sanitize clamps the gzip level and replaces non-positive timeouts with defaults.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	h.CompressionLevel = clampInt(h.CompressionLevel, 1, 9)
	h.ReadHeaderTimeout = orDuration(h.ReadHeaderTimeout, 10*time.Second)
	h.ReadTimeout = orDuration(h.ReadTimeout, 30*time.Second)
	h.WriteTimeout = orDuration(h.WriteTimeout, 30*time.Second)
	h.IdleTimeout = orDuration(h.IdleTimeout, 120*time.Second)
	h.ShutdownTimeout = orDuration(h.ShutdownTimeout, 10*time.Second)
}
