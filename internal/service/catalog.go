package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/target/prestataires-ui/internal/domain/prestataire"
	apperrors "github.com/target/prestataires-ui/internal/errors"
	"github.com/target/prestataires-ui/internal/observability/metrics"
	"github.com/target/prestataires-ui/internal/observability/statsd"
	"github.com/target/prestataires-ui/internal/ports"
)

const (
	// CatalogCachePrefix namespaces every catalog cache entry, including older encodings.
	CatalogCachePrefix = "catalog:"
	// CatalogCacheKey is the cache entry holding the full prestataire list.
	CatalogCacheKey = CatalogCachePrefix + "prestataires:v1"
)

var (
	// ErrPrestataireNotFound is returned for unknown prestataire ids.
	ErrPrestataireNotFound = apperrors.NotFound("Prestataire introuvable")
	// ErrDocumentNotFound is returned for unknown documents or documents without a stored file.
	ErrDocumentNotFound = apperrors.NotFound("Document introuvable")
	// ErrDocumentsDisabled is returned when no document storage is configured.
	ErrDocumentsDisabled = apperrors.Unavailable("Le stockage des documents n'est pas configuré")
)

// CatalogServiceOptions groups dependencies for CatalogService.
type CatalogServiceOptions struct {
	Repo      ports.PrestataireRepository // Required: record source
	Cache     ports.CacheRepository       // Optional: read-through cache for List
	CacheTTL  time.Duration               // Optional: defaults to 5m
	Documents ports.DocumentLinker        // Optional: document download links
	Logger    *slog.Logger                // Optional: structured logger
	Metrics   statsd.Sink                 // Optional: metrics sink
}

// CatalogService serves the record browser.
type CatalogService struct {
	repo      ports.PrestataireRepository
	cache     ports.CacheRepository
	ttl       time.Duration
	documents ports.DocumentLinker
	logger    *slog.Logger
	metrics   statsd.Sink
	loads     singleflight.Group
}

// BrowseResult is one rendering of the card grid.
type BrowseResult struct {
	Filter      prestataire.Filter
	Items       []prestataire.Prestataire
	Specialties []string
	Statuses    []prestataire.Status
	// Total is the number of records before filtering.
	Total int
}

// Empty reports whether the filter matched nothing.
func (r BrowseResult) Empty() bool { return len(r.Items) == 0 }

// NewCatalogService constructs a CatalogService.
func NewCatalogService(opts CatalogServiceOptions) (*CatalogService, error) {
	if opts.Repo == nil {
		return nil, errors.New("PrestataireRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{
		repo:      opts.Repo,
		cache:     opts.Cache,
		ttl:       ttl,
		documents: opts.Documents,
		logger:    logger.With("component", "catalog_service"),
		metrics:   opts.Metrics,
	}, nil
}

// DocumentsEnabled reports whether DocumentLink can produce links.
func (s *CatalogService) DocumentsEnabled() bool { return s.documents != nil }

// Browse applies f to the whole catalog. Specialty options always come from the
// unfiltered list so the select keeps every choice.
func (s *CatalogService) Browse(ctx context.Context, f prestataire.Filter) (BrowseResult, error) {
	records, err := s.List(ctx)
	if err != nil {
		return BrowseResult{}, err
	}
	f = f.Normalize()
	return BrowseResult{
		Filter:      f,
		Items:       f.Apply(records),
		Specialties: prestataire.SpecialtyOptions(records),
		Statuses:    prestataire.Statuses(),
		Total:       len(records),
	}, nil
}

// List returns every record, through the cache when one is configured.
func (s *CatalogService) List(ctx context.Context) ([]prestataire.Prestataire, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}

	if records, ok := s.readCache(ctx); ok {
		return records, nil
	}

	// Waiters share this fill; it must not inherit the first caller's cancellation.
	v, err, _ := s.loads.Do(CatalogCacheKey, func() (any, error) {
		fillCtx := context.WithoutCancel(ctx)
		records, err := s.repo.List(fillCtx)
		if err != nil {
			return nil, err
		}
		s.writeCache(fillCtx, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	records, ok := v.([]prestataire.Prestataire)
	if !ok {
		return nil, fmt.Errorf("unexpected catalog load result %T", v)
	}
	return records, nil
}

// Get returns the record with id, or ErrPrestataireNotFound.
func (s *CatalogService) Get(ctx context.Context, id string) (*prestataire.Prestataire, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrPrestataireNotFound
	}
	if s.cache == nil {
		p, err := s.repo.GetByID(ctx, id)
		if apperrors.IsNotFound(err) {
			return nil, ErrPrestataireNotFound
		}
		return p, err
	}

	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := prestataire.FindByID(records, id)
	if !ok {
		return nil, ErrPrestataireNotFound
	}
	return &p, nil
}

// DocumentLink returns a download URL for a document of a prestataire.
func (s *CatalogService) DocumentLink(ctx context.Context, prestataireID, documentID string) (string, error) {
	if s.documents == nil {
		return "", ErrDocumentsDisabled
	}
	p, err := s.Get(ctx, prestataireID)
	if err != nil {
		return "", err
	}
	for _, d := range p.Documents {
		if d.ID != documentID {
			continue
		}
		if !d.HasFile() {
			return "", ErrDocumentNotFound
		}
		url, err := s.documents.Link(ctx, d.StorageKey, d.Name)
		if err != nil {
			return "", apperrors.Wrap(fmt.Errorf("link document %s: %w", d.ID, err),
				apperrors.ErrCodeInternal, "Le lien de téléchargement n'a pas pu être généré")
		}
		return url, nil
	}
	return "", ErrDocumentNotFound
}

// InvalidateCache drops the cached list. A nil cache is a no-op.
func (s *CatalogService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, CatalogCacheKey)
}

// catalogCacheEntry carries storage keys alongside the records because
// Document.StorageKey is not part of the public JSON form.
type catalogCacheEntry struct {
	Records     []prestataire.Prestataire `json:"records"`
	StorageKeys map[string]string         `json:"storage_keys,omitempty"`
}

func storageKeyRef(prestataireID, documentID string) string {
	return prestataireID + "/" + documentID
}

func encodeCatalog(records []prestataire.Prestataire) ([]byte, error) {
	if records == nil {
		records = []prestataire.Prestataire{}
	}
	entry := catalogCacheEntry{Records: records, StorageKeys: map[string]string{}}
	for _, p := range records {
		for _, d := range p.Documents {
			if d.HasFile() {
				entry.StorageKeys[storageKeyRef(p.ID, d.ID)] = d.StorageKey
			}
		}
	}
	return json.Marshal(entry)
}

func decodeCatalog(b []byte) ([]prestataire.Prestataire, error) {
	var entry catalogCacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, err
	}
	if entry.Records == nil {
		return nil, errors.New("cache entry has no records")
	}
	for i := range entry.Records {
		p := &entry.Records[i]
		for j := range p.Documents {
			p.Documents[j].StorageKey = entry.StorageKeys[storageKeyRef(p.ID, p.Documents[j].ID)]
		}
	}
	return entry.Records, nil
}

func (s *CatalogService) readCache(ctx context.Context) ([]prestataire.Prestataire, bool) {
	b, err := s.cache.Get(ctx, CatalogCacheKey)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog cache read failed", "error", err)
		metrics.EmitCacheLookup(s.metrics, "catalog", false)
		return nil, false
	}
	if b == nil {
		metrics.EmitCacheLookup(s.metrics, "catalog", false)
		return nil, false
	}
	records, err := decodeCatalog(b)
	if err != nil {
		s.logger.WarnContext(ctx, "dropping undecodable catalog cache entry", "error", err)
		if delErr := s.cache.Delete(ctx, CatalogCacheKey); delErr != nil {
			s.logger.WarnContext(ctx, "catalog cache delete failed", "error", delErr)
		}
		metrics.EmitCacheLookup(s.metrics, "catalog", false)
		return nil, false
	}
	metrics.EmitCacheLookup(s.metrics, "catalog", true)
	return records, true
}

func (s *CatalogService) writeCache(ctx context.Context, records []prestataire.Prestataire) {
	b, err := encodeCatalog(records)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog cache encode failed", "error", err)
		return
	}
	if err := s.cache.Set(ctx, CatalogCacheKey, b, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "catalog cache write failed", "error", err)
	}
}
