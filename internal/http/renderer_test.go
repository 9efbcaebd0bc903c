package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/prestataires-ui/internal/errors"
)

func TestFormatDateFR(t *testing.T) {
	d := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "01/03/2024", FormatDateFR(d))
	assert.Equal(t, "1 mars 2024", FormatDateLongFR(d))
	assert.Equal(t, "15 août 2023", FormatDateLongFR(time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "—", FormatDateFR(time.Time{}))
	assert.Equal(t, "—", FormatDateLongFR(time.Time{}))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JD", Initials("Jean Duval"))
	assert.Equal(t, "ÉM", Initials("élise martin fils"))
	assert.Equal(t, "M", Initials("marie"))
	assert.Empty(t, Initials("   "))
}

func TestContentTemplateFor(t *testing.T) {
	assert.Equal(t, "login-content", ContentTemplateFor(PageLogin))
	assert.Equal(t, "not-found-content", ContentTemplateFor("unknown"))
}

func TestTemplateRenderer_RenderPage(t *testing.T) {
	tr := newTestRenderer(t)
	data := map[string]any{"CurrentPage": PageLogin, "Title": "Connexion", "CSRFToken": "tok", "GuestEnabled": false}

	t.Run("full layout for plain requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, tr.RenderPage(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil), data))
		assert.Contains(t, rec.Body.String(), "<html")
		assert.Contains(t, rec.Body.String(), `action="/auth/login"`)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("content only for htmx", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.Header.Set("Hx-Request", "true")
		rec := httptest.NewRecorder()
		require.NoError(t, tr.RenderPage(rec, req, data))
		assert.NotContains(t, rec.Body.String(), "<html")
		assert.Contains(t, rec.Body.String(), `action="/auth/login"`)
	})

	t.Run("unknown template leaves the response untouched", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.Error(t, tr.RenderNamed(rec, "missing-template", data))
		assert.Empty(t, rec.Body.String())
	})
}

func TestDict(t *testing.T) {
	m, err := dict("a", 1, "b", "two")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)

	_, err = dict("odd")
	require.Error(t, err)
	_, err = dict(1, 2)
	require.Error(t, err)
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NotFound("missing"), http.StatusNotFound},
		{apperrors.Unavailable("down"), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteAppError(rec, tt.err)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}
