package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/prestataires-ui/internal/domain/prestataire"
	"github.com/target/prestataires-ui/internal/mocks"
)

// newGuestEnv returns an environment whose test client is already in demo mode.
func newGuestEnv(t *testing.T, opts testEnvOptions) *testEnv {
	t.Helper()
	env := newTestEnv(t, opts)
	env.mirror(t).EnterGuestMode()
	return env
}

func cardCount(body string) int {
	return strings.Count(body, `<article class="card"`)
}

func TestBrowse(t *testing.T) {
	env := newGuestEnv(t, defaultEnvOptions())

	t.Run("all records", func(t *testing.T) {
		rec := env.do(env.request(http.MethodGet, "/prestataires", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<html")
		assert.Equal(t, 6, cardCount(body))
		assert.Contains(t, body, `id="dialog-root"`)
	})

	t.Run("search narrows the grid", func(t *testing.T) {
		rec := env.do(env.request(http.MethodGet, "/prestataires?q=duval", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Equal(t, 1, cardCount(body))
		assert.Contains(t, body, "Plomberie Duval")
		assert.NotContains(t, body, "Menuiserie Leroy")
	})

	t.Run("status filter", func(t *testing.T) {
		rec := env.do(env.request(http.MethodGet, "/prestataires?status=Actif", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Equal(t, 3, cardCount(body))
		assert.NotContains(t, body, "Toitures du Rhône")
	})

	t.Run("no match", func(t *testing.T) {
		rec := env.do(env.request(http.MethodGet, "/prestataires?q=zzz&specialty=Plomberie", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Equal(t, 0, cardCount(body))
		assert.Contains(t, body, `data-empty="results"`)
		assert.Contains(t, body, `value="zzz"`)
	})

	t.Run("htmx grid swap", func(t *testing.T) {
		req := env.request(http.MethodGet, "/prestataires?specialty=%C3%89lectricit%C3%A9", nil)
		req.Header.Set("Hx-Request", "true")
		req.Header.Set("Hx-Target", gridTarget)
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.NotContains(t, body, "<html")
		assert.NotContains(t, body, `id="filters"`)
		assert.Contains(t, body, `id="prestataire-grid"`)
		assert.Equal(t, 2, cardCount(body))
		assert.Equal(t, "/prestataires?specialty=%C3%89lectricit%C3%A9", rec.Header().Get("Hx-Push-Url"))
	})

	t.Run("history restore gets the full page", func(t *testing.T) {
		req := env.request(http.MethodGet, "/prestataires", nil)
		req.Header.Set("Hx-Request", "true")
		req.Header.Set("Hx-History-Restore-Request", "true")
		req.Header.Set("Hx-Target", gridTarget)
		rec := env.do(req)
		assert.Contains(t, rec.Body.String(), "<html")
	})
}

func TestDetail(t *testing.T) {
	env := newGuestEnv(t, defaultEnvOptions())

	t.Run("dialog fragment for htmx", func(t *testing.T) {
		req := env.request(http.MethodGet, "/prestataires/p-001", nil)
		req.Header.Set("Hx-Request", "true")
		req.Header.Set("Hx-Target", "dialog-root")
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.NotContains(t, body, "<html")
		assert.Contains(t, body, `<dialog id="prestataire-dialog"`)
		assert.Contains(t, body, "Résidence Les Tilleuls")
		assert.Contains(t, body, "Contrat cadre 2024")
		assert.NotContains(t, body, `id="empty-chantiers"`)
	})

	t.Run("full page", func(t *testing.T) {
		rec := env.do(env.request(http.MethodGet, "/prestataires/p-003", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<html")
		assert.Contains(t, body, "Maçonnerie Bernard")
		assert.Contains(t, body, `id="empty-documents"`)
		// Most recent relance first.
		assert.Less(t, strings.Index(body, "09/01/2024"), strings.Index(body, "18/12/2023"))
	})

	t.Run("record without related data", func(t *testing.T) {
		rec := env.do(env.request(http.MethodGet, "/prestataires/p-004", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `id="empty-chantiers"`)
		assert.Contains(t, body, `id="empty-relances"`)
		assert.Contains(t, body, `id="empty-documents"`)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := env.do(env.request(http.MethodGet, "/prestataires/p-999", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDocument(t *testing.T) {
	t.Run("storage disabled", func(t *testing.T) {
		env := newGuestEnv(t, defaultEnvOptions())
		rec := env.do(env.request(http.MethodGet, "/prestataires/p-001/documents/d-1001", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		detail := env.do(env.request(http.MethodGet, "/prestataires/p-001", nil))
		assert.NotContains(t, detail.Body.String(), "/prestataires/p-001/documents/d-1001")
	})

	t.Run("redirects to signed link", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		linker := mocks.NewMockDocumentLinker(ctrl)
		linker.EXPECT().
			Link(gomock.Any(), "p-001/contrat-cadre-2024.pdf", "Contrat cadre 2024").
			Return("https://storage.example/signed?sig=abc", nil)

		opts := defaultEnvOptions()
		opts.documents = linker
		env := newGuestEnv(t, opts)

		rec := env.do(env.request(http.MethodGet, "/prestataires/p-001/documents/d-1001", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "https://storage.example/signed?sig=abc", rec.Header().Get("Location"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("document without file", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		opts := defaultEnvOptions()
		opts.documents = mocks.NewMockDocumentLinker(ctrl)
		env := newGuestEnv(t, opts)

		rec := env.do(env.request(http.MethodGet, "/prestataires/p-002/documents/d-2002", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		detail := env.do(env.request(http.MethodGet, "/prestataires/p-001", nil))
		assert.Contains(t, detail.Body.String(), "/prestataires/p-001/documents/d-1001")
	})
}

func TestPrestataireAPI(t *testing.T) {
	env := newGuestEnv(t, defaultEnvOptions())

	t.Run("list", func(t *testing.T) {
		rec := env.do(env.api(http.MethodGet, "/api/prestataires?status=%C3%80%20relancer", ""))
		require.Equal(t, http.StatusOK, rec.Code)
		var body prestataireListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 6, body.Total)
		require.Len(t, body.Items, 2)
		for _, p := range body.Items {
			assert.Equal(t, prestataire.StatusARelancer, p.Status)
		}
		assert.Contains(t, body.Specialties, "Plomberie")
	})

	t.Run("get", func(t *testing.T) {
		rec := env.do(env.api(http.MethodGet, "/api/prestataires/p-005", ""))
		require.Equal(t, http.StatusOK, rec.Code)
		var p prestataire.Prestataire
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "ElecPro Services", p.Company)
		assert.NotContains(t, rec.Body.String(), "storage_key")
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := env.do(env.api(http.MethodGet, "/api/prestataires/p-999", ""))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRootAndNotFound(t *testing.T) {
	env := newTestEnv(t, defaultEnvOptions())

	rec := env.do(env.request(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, PathPrestataires, rec.Header().Get("Location"))

	rec = env.do(env.request(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "La page demandée n")

	rec = env.do(env.api(http.MethodGet, "/api/nope", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, defaultEnvOptions())
	env.mirror(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.InDelta(t, 1, body["mirrors"], 0)
}
