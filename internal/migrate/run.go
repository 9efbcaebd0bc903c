// Package migrate applies the embedded SQL schema migrations in file-name order,
// recording each applied version in schema_migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// managedTables lists the tables owned by the migrations, children first.
var managedTables = []string{"documents", "relances", "chantiers", "prestataires", "users", "schema_migrations"}

// Version describes one embedded migration.
type Version struct {
	Name    string
	Applied bool
}

// Run applies all SQL migrations embedded in this package. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB) error {
	_, err := Apply(ctx, db, slog.Default())
	return err
}

// Apply runs pending migrations, each in its own transaction, and returns the versions it applied.
func Apply(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "migrations")

	if err := ensureVersionTable(ctx, db); err != nil {
		return nil, err
	}

	files, err := migrationFiles()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, f := range files {
		version := strings.TrimSuffix(f, ".sql")
		exists, existsErr := isApplied(ctx, db, version)
		if existsErr != nil {
			return applied, existsErr
		}
		if exists {
			continue
		}
		logger.InfoContext(ctx, "applying migration", "version", version)
		if applyErr := applyMigration(ctx, db, f, version); applyErr != nil {
			return applied, applyErr
		}
		applied = append(applied, version)
	}
	return applied, nil
}

// Status reports every embedded migration and whether it has been applied.
func Status(ctx context.Context, db *sql.DB) ([]Version, error) {
	if err := ensureVersionTable(ctx, db); err != nil {
		return nil, err
	}
	files, err := migrationFiles()
	if err != nil {
		return nil, err
	}
	out := make([]Version, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(f, ".sql")
		ok, existsErr := isApplied(ctx, db, name)
		if existsErr != nil {
			return nil, existsErr
		}
		out = append(out, Version{Name: name, Applied: ok})
	}
	return out, nil
}

// Reset drops every table managed by the migrations. Run must be called again afterwards.
func Reset(ctx context.Context, db *sql.DB) error {
	for _, table := range managedTables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}

func ensureVersionTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func isApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	if err := db.QueryRowContext(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}

func applyMigration(ctx context.Context, db *sql.DB, file, version string) (err error) {
	sqlBytes, err := migrationsFS.ReadFile("migrations/" + file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback migration %s: %w", file, rollbackErr))
		}
	}()

	if _, err = tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("exec migration %s: %w", file, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}
