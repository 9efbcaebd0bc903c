package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWantsPartial(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/prestataires", nil)
	assert.False(t, WantsPartial(req))

	req.Header.Set("Hx-Request", "TRUE")
	assert.True(t, WantsPartial(req))

	req.Header.Set("Hx-History-Restore-Request", "true")
	assert.False(t, WantsPartial(req))
	assert.True(t, IsHTMX(req))
}

func TestHXCurrentURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Hx-Current-Url", "http://example.com/prestataires")
	assert.Empty(t, HXCurrentURL(req), "ignored without Hx-Request")

	req.Header.Set("Hx-Request", "true")
	assert.Equal(t, "http://example.com/prestataires", HXCurrentURL(req))
}

func TestRedirectBrowser(t *testing.T) {
	t.Run("plain request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		redirectBrowser(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil), "/prestataires", http.StatusNoContent)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/prestataires", rec.Header().Get("Location"))
	})

	t.Run("htmx request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("Hx-Request", "true")
		rec := httptest.NewRecorder()
		redirectBrowser(rec, req, "/prestataires", http.StatusNoContent)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "/prestataires", rec.Header().Get("Hx-Redirect"))
		assert.Empty(t, rec.Header().Get("Location"))
	})
}
