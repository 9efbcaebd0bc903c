package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// NotFound returns a 404 handler: an HTML error page for browsers, JSON otherwise.
func NotFound(t *TemplateRenderer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !IsBrowserRequest(r) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("not found")})
			return
		}
		renderErrorPage(w, r, errorPage{
			T:       t,
			Logger:  logger,
			Status:  http.StatusNotFound,
			Message: "La page demandée n'existe pas.",
		})
	}
}

type errorPage struct {
	T       *TemplateRenderer
	Logger  *slog.Logger
	Status  int
	Message string
}

// renderErrorPage renders the standalone error page, falling back to plain text.
func renderErrorPage(w http.ResponseWriter, r *http.Request, p errorPage) {
	if p.T == nil {
		http.Error(w, p.Message, p.Status)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: http.StatusText(p.Status), CurrentPage: PageNotFound}).
		With("Code", p.Status).
		With("Message", p.Message).
		Build()
	if err := p.T.RenderError(w, p.Status, data); err != nil {
		if p.Logger != nil {
			p.Logger.ErrorContext(r.Context(), "render error page failed", "status", p.Status, "error", err)
		}
		http.Error(w, p.Message, p.Status)
	}
}
