package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/prestataires-ui/internal/domain/prestataire"
)

// CatalogWriter is the slice of the prestataire repository seeding needs.
type CatalogWriter interface {
	ReplaceAll(ctx context.Context, records []prestataire.Prestataire) error
	Count(ctx context.Context) (int, error)
}

// CacheInvalidator drops cached catalog reads after the tables change.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Catalog CatalogWriter
	// Cache is optional.
	Cache CacheInvalidator
	// Records defaults to the sample catalog.
	Records []prestataire.Prestataire
}

// Run upserts the development catalog. Running it twice leaves the same rows.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if svcs.Catalog == nil {
		return errors.New("devseed: catalog writer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	records := svcs.Records
	if records == nil {
		records = prestataire.SampleCatalog()
	}

	if err := svcs.Catalog.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("seed prestataires: %w", err)
	}

	total, err := svcs.Catalog.Count(ctx)
	if err != nil {
		return fmt.Errorf("count prestataires: %w", err)
	}
	logger.InfoContext(ctx, "seeded prestataires", "upserted", len(records), "total", total)

	if svcs.Cache != nil {
		if err := svcs.Cache.InvalidateCache(ctx); err != nil {
			logger.WarnContext(ctx, "failed to invalidate catalog cache after seeding", "error", err)
		}
	}
	return nil
}
