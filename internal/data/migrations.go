package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/target/prestataires-ui/internal/migrate"
)

// RunMigrations applies pending schema migrations and logs how many were applied.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	applied, err := migrate.Apply(ctx, db, logger)
	if err != nil {
		return err
	}
	if logger != nil && len(applied) > 0 {
		logger.InfoContext(ctx, "database migrations applied", "count", len(applied))
	}
	return nil
}
