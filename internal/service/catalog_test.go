package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/prestataires-ui/internal/adapters/memory"
	"github.com/target/prestataires-ui/internal/domain/prestataire"
	apperrors "github.com/target/prestataires-ui/internal/errors"
	"github.com/target/prestataires-ui/internal/mocks"
	"github.com/target/prestataires-ui/internal/observability/statsd"
)

// mapCache is a minimal in-memory CacheRepository.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newSampleCatalog(t *testing.T, opts CatalogServiceOptions) *CatalogService {
	t.Helper()
	if opts.Repo == nil {
		opts.Repo = memory.NewSampleCatalogRepo()
	}
	svc, err := NewCatalogService(opts)
	require.NoError(t, err)
	return svc
}

func ids(records []prestataire.Prestataire) []string {
	out := make([]string, 0, len(records))
	for _, p := range records {
		out = append(out, p.ID)
	}
	return out
}

func TestNewCatalogService_RequiresRepo(t *testing.T) {
	_, err := NewCatalogService(CatalogServiceOptions{})
	require.Error(t, err)
}

func TestCatalogService_Browse(t *testing.T) {
	svc := newSampleCatalog(t, CatalogServiceOptions{})
	ctx := context.Background()

	t.Run("no filter returns everything in order", func(t *testing.T) {
		res, err := svc.Browse(ctx, prestataire.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-001", "p-002", "p-003", "p-004", "p-005", "p-006"}, ids(res.Items))
		assert.Equal(t, 6, res.Total)
		assert.Equal(t, prestataire.FilterAll, res.Filter.Status)
		assert.Equal(t, []string{"Plomberie", "Électricité", "Maçonnerie", "Couverture", "Menuiserie"}, res.Specialties)
		assert.Len(t, res.Statuses, 3)
	})

	t.Run("filters combine", func(t *testing.T) {
		res, err := svc.Browse(ctx, prestataire.Filter{Search: "elec", Status: string(prestataire.StatusARelancer)})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-005"}, ids(res.Items))
		assert.Len(t, res.Specialties, 5, "options come from the unfiltered list")
	})

	t.Run("no match is empty", func(t *testing.T) {
		res, err := svc.Browse(ctx, prestataire.Filter{Search: "zzz"})
		require.NoError(t, err)
		assert.True(t, res.Empty())
		assert.Equal(t, 6, res.Total)
	})
}

func TestCatalogService_Get(t *testing.T) {
	svc := newSampleCatalog(t, CatalogServiceOptions{})

	p, err := svc.Get(context.Background(), "p-003")
	require.NoError(t, err)
	assert.Equal(t, "Maçonnerie Bernard", p.Company)

	_, err = svc.Get(context.Background(), "p-999")
	require.ErrorIs(t, err, ErrPrestataireNotFound)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Get(context.Background(), " ")
	require.ErrorIs(t, err, ErrPrestataireNotFound)
}

func TestCatalogService_RepoErrorsPropagate(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPrestataireRepository(ctrl)
	boom := errors.New("connection refused")
	repo.EXPECT().List(gomock.Any()).Return(nil, boom)

	svc := newSampleCatalog(t, CatalogServiceOptions{Repo: repo})
	_, err := svc.Browse(context.Background(), prestataire.Filter{})
	require.ErrorIs(t, err, boom)
}

func TestCatalogService_CacheReadThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPrestataireRepository(ctrl)
	repo.EXPECT().List(gomock.Any()).Return(prestataire.SampleCatalog(), nil).Times(1)

	cache := &mapCache{}
	rec := &statsd.Recorder{}
	svc := newSampleCatalog(t, CatalogServiceOptions{Repo: repo, Cache: cache, Metrics: rec})
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, first[0].LastContact.Unix(), second[0].LastContact.Unix())

	p, err := svc.Get(ctx, "p-001")
	require.NoError(t, err)
	require.Len(t, p.Documents, 2)
	assert.Equal(t, "p-001/contrat-cadre-2024.pdf", p.Documents[0].StorageKey, "storage keys survive the cache")

	lookups := rec.Named("catalog.cache_lookup")
	require.Len(t, lookups, 3)
	assert.Equal(t, "miss", lookups[0].Tags["result"])
	assert.Equal(t, "hit", lookups[1].Tags["result"])
}

func TestCatalogService_SharedFillIgnoresCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPrestataireRepository(ctrl)
	repo.EXPECT().List(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]prestataire.Prestataire, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return prestataire.SampleCatalog(), nil
	}).Times(1)

	cache := &mapCache{}
	svc := newSampleCatalog(t, CatalogServiceOptions{Repo: repo, Cache: cache})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 6)

	cached, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ids(records), ids(cached))
}

func TestCatalogService_CacheFailuresFallBackToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	cache.EXPECT().Get(gomock.Any(), CatalogCacheKey).Return(nil, errors.New("redis down"))
	cache.EXPECT().Set(gomock.Any(), CatalogCacheKey, gomock.Any(), 2*time.Minute).Return(errors.New("redis down"))

	svc := newSampleCatalog(t, CatalogServiceOptions{Cache: cache, CacheTTL: 2 * time.Minute})
	records, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestCatalogService_CorruptCacheEntryIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), CatalogCacheKey).Return([]byte("{not json"), nil),
		cache.EXPECT().Delete(gomock.Any(), CatalogCacheKey).Return(nil),
		cache.EXPECT().Set(gomock.Any(), CatalogCacheKey, gomock.Any(), gomock.Any()).Return(nil),
	)

	svc := newSampleCatalog(t, CatalogServiceOptions{Cache: cache})
	records, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestCatalogService_InvalidateCache(t *testing.T) {
	require.NoError(t, newSampleCatalog(t, CatalogServiceOptions{}).InvalidateCache(context.Background()))

	cache := &mapCache{}
	svc := newSampleCatalog(t, CatalogServiceOptions{Cache: cache})
	_, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cache.data[CatalogCacheKey])

	require.NoError(t, svc.InvalidateCache(context.Background()))
	assert.Nil(t, cache.data[CatalogCacheKey])
}

func TestCatalogService_DocumentLink(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without linker", func(t *testing.T) {
		svc := newSampleCatalog(t, CatalogServiceOptions{})
		assert.False(t, svc.DocumentsEnabled())
		_, err := svc.DocumentLink(ctx, "p-001", "d-1001")
		require.ErrorIs(t, err, ErrDocumentsDisabled)
	})

	t.Run("stored document", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		linker := mocks.NewMockDocumentLinker(ctrl)
		linker.EXPECT().
			Link(gomock.Any(), "p-001/contrat-cadre-2024.pdf", "Contrat cadre 2024").
			Return("https://s3.example/signed", nil)

		svc := newSampleCatalog(t, CatalogServiceOptions{Documents: linker})
		url, err := svc.DocumentLink(ctx, "p-001", "d-1001")
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example/signed", url)
	})

	t.Run("document without file", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := newSampleCatalog(t, CatalogServiceOptions{Documents: mocks.NewMockDocumentLinker(ctrl)})
		_, err := svc.DocumentLink(ctx, "p-002", "d-2001")
		require.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("unknown document or prestataire", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := newSampleCatalog(t, CatalogServiceOptions{Documents: mocks.NewMockDocumentLinker(ctrl)})
		_, err := svc.DocumentLink(ctx, "p-001", "d-9999")
		require.ErrorIs(t, err, ErrDocumentNotFound)
		_, err = svc.DocumentLink(ctx, "p-999", "d-1001")
		require.ErrorIs(t, err, ErrPrestataireNotFound)
	})

	t.Run("linker error is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		linker := mocks.NewMockDocumentLinker(ctrl)
		boom := errors.New("no credentials")
		linker.EXPECT().Link(gomock.Any(), gomock.Any(), gomock.Any()).Return("", boom)

		svc := newSampleCatalog(t, CatalogServiceOptions{Documents: linker})
		_, err := svc.DocumentLink(ctx, "p-001", "d-1002")
		require.ErrorIs(t, err, boom)
		assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err))
	})
}
