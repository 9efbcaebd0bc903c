package ports

import (
	"context"
	"time"

	"github.com/target/prestataires-ui/internal/domain/prestataire"
)

// PrestataireRepository reads prestataire records with their owned collections.
type PrestataireRepository interface {
	List(ctx context.Context) ([]prestataire.Prestataire, error)
	GetByID(ctx context.Context, id string) (*prestataire.Prestataire, error)
}

// CacheRepository is a byte-oriented key/value cache.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DocumentLinker produces short-lived download links for stored documents.
type DocumentLinker interface {
	Link(ctx context.Context, storageKey, filename string) (string, error)
}
