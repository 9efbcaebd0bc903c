package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestDBConfigDSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: 5433, User: "u@x", Password: "p/ss", Name: "cat", SSLMode: "require"}
	want := "postgres://u%40x:p%2Fss@db:5433/cat?sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}

	cfg.SSLMode = ""
	if got := cfg.DSN(); got != "postgres://u%40x:p%2Fss@db:5433/cat" {
		t.Fatalf("DSN() without sslmode = %q", got)
	}
}

func TestDBConfigPoolDefaults(t *testing.T) {
	var cfg DBConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MaxOpenConns != 10 || cfg.MaxIdleConns != 2 {
		t.Fatalf("pool defaults = %d/%d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute || cfg.ConnectTimeout != 5*time.Second {
		t.Fatalf("durations = %v/%v", cfg.ConnMaxLifetime, cfg.ConnectTimeout)
	}
}

func TestRedisConfigModeAndConfigured(t *testing.T) {
	tests := []struct {
		name       string
		cfg        RedisConfig
		mode       RedisMode
		configured bool
	}{
		{"empty", RedisConfig{}, RedisModeDirect, false},
		{"direct", RedisConfig{URI: "localhost:6379"}, RedisModeDirect, true},
		{"sentinel without nodes", RedisConfig{UseSentinel: true, URI: "x"}, RedisModeSentinel, false},
		{"sentinel", RedisConfig{UseSentinel: true, SentinelNodes: []string{"s:26379"}}, RedisModeSentinel, true},
		{"cluster nodes", RedisConfig{UseCluster: true, ClusterNodes: []string{" a:7000 "}}, RedisModeCluster, true},
		{"cluster uri", RedisConfig{UseCluster: true, UseSentinel: true, URI: "a:7000"}, RedisModeCluster, true},
		{"cluster blank", RedisConfig{UseCluster: true, ClusterNodes: []string{" "}}, RedisModeCluster, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Mode(); got != tt.mode {
				t.Errorf("Mode() = %q, want %q", got, tt.mode)
			}
			if got := tt.cfg.Configured(); got != tt.configured {
				t.Errorf("Configured() = %v, want %v", got, tt.configured)
			}
		})
	}
}
