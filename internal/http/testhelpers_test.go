package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/prestataires-ui/internal/adapters/memory"
	authmocks "github.com/target/prestataires-ui/internal/mocks/auth"
	"github.com/target/prestataires-ui/internal/ports"
	"github.com/target/prestataires-ui/internal/service"
)

const (
	testClientID  = "6f1c1d1e-2b7a-4d4f-9a53-1b2c3d4e5f60"
	testCSRFToken = "test-csrf-token"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return tr
}

type testEnv struct {
	handler  http.Handler
	factory  *authmocks.FakeProviderFactory
	registry *service.MirrorRegistry
	catalog  *service.CatalogService
}

type testEnvOptions struct {
	providerNew  func(clientID string) *authmocks.FakeIdentityProvider
	documents    ports.DocumentLinker
	guestEnabled bool
	loadingWait  time.Duration
}

func defaultEnvOptions() testEnvOptions {
	return testEnvOptions{guestEnabled: true, loadingWait: 2 * time.Second}
}

func newTestEnv(t *testing.T, opts testEnvOptions) *testEnv {
	t.Helper()
	factory := &authmocks.FakeProviderFactory{New: opts.providerNew}
	registry, err := service.NewMirrorRegistry(service.MirrorRegistryOptions{
		Factory: factory,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(registry.CloseAll)

	catalog, err := service.NewCatalogService(service.CatalogServiceOptions{
		Repo:      memory.NewSampleCatalogRepo(),
		Documents: opts.documents,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)

	handler := NewRouter(RouterServices{
		Mirrors:      registry,
		Catalog:      catalog,
		Templates:    newTestRenderer(t),
		GuestEnabled: opts.guestEnabled,
		LoadingWait:  opts.loadingWait,
		Logger:       discardLogger(),
	})
	return &testEnv{handler: handler, factory: factory, registry: registry, catalog: catalog}
}

// request builds a request carrying the test client and CSRF cookies.
func (e *testEnv) request(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	r.AddCookie(&http.Cookie{Name: ClientCookieName, Value: testClientID})
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	r.Header.Set("Accept", "text/html")
	if method != http.MethodGet && method != http.MethodHead {
		r.Header.Set(DefaultCSRFHeaderName, testCSRFToken)
	}
	return r
}

func (e *testEnv) form(target string, values url.Values) *http.Request {
	r := e.request(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func (e *testEnv) api(method, target, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	r := e.request(method, target, rdr)
	r.Header.Set("Accept", "application/json")
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

// mirror returns the test client's mirror once its initial fetch has resolved.
func (e *testEnv) mirror(t *testing.T) *service.SessionMirror {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := e.registry.Get(ctx, testClientID)
	require.NoError(t, err)
	require.NoError(t, m.WaitReady(ctx))
	return m
}

func (e *testEnv) provider() *authmocks.FakeIdentityProvider {
	return e.factory.Provider(testClientID)
}
