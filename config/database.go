package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	// Enabled turns on the Postgres profile store even when the catalog uses memory.
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"prestataires"`
	Password string `env:"PASSWORD" envDefault:"prestataires"`
	Name     string `env:"NAME"     envDefault:"prestataires"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT"   envDefault:"5s"`

	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN renders the pgx connection URL. Credentials are escaped.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// RedisMode selects the go-redis client flavour.
type RedisMode string

const (
	RedisModeDirect   RedisMode = "direct"
	RedisModeSentinel RedisMode = "sentinel"
	RedisModeCluster  RedisMode = "cluster"
)

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`

	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
}

// Mode reports which topology the flags select. Cluster wins over sentinel.
func (c RedisConfig) Mode() RedisMode {
	switch {
	case c.UseCluster:
		return RedisModeCluster
	case c.UseSentinel:
		return RedisModeSentinel
	default:
		return RedisModeDirect
	}
}

// Configured reports whether the selected mode has enough addresses to dial.
func (c RedisConfig) Configured() bool {
	uri := strings.TrimSpace(c.URI) != ""
	switch c.Mode() {
	case RedisModeCluster:
		return len(nonEmpty(c.ClusterNodes)) > 0 || uri
	case RedisModeSentinel:
		return len(nonEmpty(c.SentinelNodes)) > 0
	default:
		return uri
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ClusterAddrs returns the trimmed cluster seed list.
func (c RedisConfig) ClusterAddrs() []string { return nonEmpty(c.ClusterNodes) }

// SentinelAddrs returns the trimmed sentinel list.
func (c RedisConfig) SentinelAddrs() []string { return nonEmpty(c.SentinelNodes) }
