// Package testutil holds helpers for integration tests that need Postgres or Redis.
// Tests using these helpers are skipped when the backing service is not reachable,
// unless TEST_REQUIRE_DB, TEST_REQUIRE_REDIS or TEST_REQUIRE_INFRA is set.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/migrate"
)

const (
	defaultTestDBPort = 55432
	probeTimeout      = 2 * time.Second
)

// managedTables lists every table tests write to, children first.
var managedTables = []string{"documents", "relances", "chantiers", "prestataires", "users"}

// DefaultTestDBConfig reads TEST_DB_* over the local docker-compose defaults.
// CI should set TEST_DB_PORT=5432.
func DefaultTestDBConfig() config.DBConfig {
	port, err := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	if err != nil || port <= 0 {
		port = defaultTestDBPort
	}
	return config.DBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     envOr("TEST_DB_USER", "prestataires"),
		Password: envOr("TEST_DB_PASSWORD", "prestataires"),
		Name:     envOr("TEST_DB_NAME", "prestataires"),
		SSLMode:  envOr("DB_SSL_MODE", "disable"),
	}
}

// unavailable skips or fails depending on whether the service is required.
func unavailable(t testing.TB, required bool, what string, err error) {
	t.Helper()
	if required {
		t.Fatalf("%s not available: %v", what, err)
	}
	t.Skipf("%s not available: %v", what, err)
}

// SetupTestDB opens the test database, migrates it and truncates managed tables
// before and after the test.
func SetupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN())
	if err != nil {
		unavailable(t, requireDB(), "test database", err)
	}
	t.Cleanup(func() {
		if cerr := db.Close(); cerr != nil {
			t.Logf("warning: failed to close test db: %v", cerr)
		}
	})

	probeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	pingErr := db.PingContext(probeCtx)
	cancel()
	if pingErr != nil {
		unavailable(t, requireDB(), "test database", pingErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if migrateErr := migrate.Run(ctx, db); migrateErr != nil {
		t.Fatalf("migrate test database: %v", migrateErr)
	}

	CleanupTestDB(t, db)
	t.Cleanup(func() { CleanupTestDB(t, db) })
	return db
}

// CleanupTestDB empties every managed table in one statement.
func CleanupTestDB(t testing.TB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stmt := "TRUNCATE " + strings.Join(managedTables, ", ") + " CASCADE"
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		t.Fatalf("clean test database: %v", err)
	}
}

// redisCandidates returns the addresses to probe in order. REDIS_ADDR, when set, is the only one.
func redisCandidates() []string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return []string{addr}
	}
	return []string{"redis:6379", "localhost:6379", "localhost:56379"}
}

func probeRedis(addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: probeTimeout})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// reserveRedisDB claims a logical DB in [1..15] through a lock key in DB 0 so
// packages running in parallel do not flush each other. TEST_REDIS_DB overrides.
func reserveRedisDB(t testing.TB, addr string) int {
	t.Helper()
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = meta.Close() })

	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for db := 1; db <= 15; db++ {
		key := fmt.Sprintf("prestataires:testutil:db_lock:%d", db)
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		ok, err := meta.SetNX(ctx, key, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			if err := meta.Del(ctx, key).Err(); err != nil {
				t.Logf("warning: release %s: %v", key, err)
			}
		})
		return db
	}
	t.Logf("no free redis test DB at %s; sharing DB 1", addr)
	return 1
}

// SetupTestRedis returns a client on a flushed, reserved logical DB.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	var (
		addr    string
		lastErr error
	)
	for _, candidate := range redisCandidates() {
		if lastErr = probeRedis(candidate); lastErr == nil {
			addr = candidate
			break
		}
	}
	if addr == "" {
		unavailable(t, requireRedis(), "redis", lastErr)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: close redis client: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis test DB: %v", err)
	}
	return client
}

// TestTime returns a fixed time for testing.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }
