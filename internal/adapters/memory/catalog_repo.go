package memory

import (
	"context"
	"sync"

	"github.com/target/prestataires-ui/internal/domain/prestataire"
	apperrors "github.com/target/prestataires-ui/internal/errors"
)

// ErrNotFound is returned by CatalogRepo.GetByID for unknown ids.
var ErrNotFound = apperrors.NotFound("Prestataire introuvable")

// CatalogRepo serves a fixed list of prestataires from memory.
type CatalogRepo struct {
	mu      sync.RWMutex
	records []prestataire.Prestataire
}

// NewCatalogRepo returns a repo holding records in the given order.
func NewCatalogRepo(records []prestataire.Prestataire) *CatalogRepo {
	return &CatalogRepo{records: cloneAll(records)}
}

// NewSampleCatalogRepo returns a repo holding the built-in sample catalog.
func NewSampleCatalogRepo() *CatalogRepo {
	return NewCatalogRepo(prestataire.SampleCatalog())
}

// List returns every record in stored order.
func (r *CatalogRepo) List(context.Context) ([]prestataire.Prestataire, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.records), nil
}

// GetByID returns the record with id.
func (r *CatalogRepo) GetByID(_ context.Context, id string) (*prestataire.Prestataire, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := prestataire.FindByID(r.records, id)
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(p)
	return &out, nil
}

// ReplaceAll swaps the stored records.
func (r *CatalogRepo) ReplaceAll(_ context.Context, records []prestataire.Prestataire) error {
	r.mu.Lock()
	r.records = cloneAll(records)
	r.mu.Unlock()
	return nil
}

func cloneAll(in []prestataire.Prestataire) []prestataire.Prestataire {
	out := make([]prestataire.Prestataire, len(in))
	for i := range in {
		out[i] = clone(in[i])
	}
	return out
}

func clone(p prestataire.Prestataire) prestataire.Prestataire {
	p.Chantiers = append([]prestataire.Chantier{}, p.Chantiers...)
	p.Relances = append([]prestataire.Relance{}, p.Relances...)
	p.Documents = append([]prestataire.Document{}, p.Documents...)
	return p
}
