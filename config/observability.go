package config

import (
	"strings"
	"time"
)

// ObservabilityConfig groups configuration that controls metrics emission.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
}

// ObservabilityMetricsConfig controls the StatsD sink.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"prestataires"`
	// Tags are attached to every metric, e.g. "env:prod,region:eu".
	Tags          map[string]string `env:"OBSERVABILITY_METRICS_TAGS"`
	FlushInterval time.Duration     `env:"OBSERVABILITY_METRICS_FLUSH_INTERVAL" envDefault:"1s"`
	MaxPacketSize int               `env:"OBSERVABILITY_METRICS_MAX_PACKET"     envDefault:"1432"`
}

// Sanitize disables emission without an address and trims tag keys.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if len(c.Tags) > 0 {
		tags := make(map[string]string, len(c.Tags))
		for k, v := range c.Tags {
			if k = strings.TrimSpace(k); k != "" {
				tags[k] = strings.TrimSpace(v)
			}
		}
		c.Tags = tags
	}
	if c.MaxPacketSize < 0 {
		c.MaxPacketSize = 0
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}
