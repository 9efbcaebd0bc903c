package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/target/prestataires-ui/internal/domain/prestataire"
	apperrors "github.com/target/prestataires-ui/internal/errors"
	"github.com/target/prestataires-ui/internal/service"
)

// CatalogReader is what the record browser needs from the catalog.
type CatalogReader interface {
	Browse(ctx context.Context, f prestataire.Filter) (service.BrowseResult, error)
	Get(ctx context.Context, id string) (*prestataire.Prestataire, error)
	DocumentLink(ctx context.Context, prestataireID, documentID string) (string, error)
	DocumentsEnabled() bool
}

var _ CatalogReader = (*service.CatalogService)(nil)

// gridTarget is the element id htmx swaps when only the filters change.
const gridTarget = "prestataire-grid"

// PrestataireHandlers serves the record browser pages and JSON API.
type PrestataireHandlers struct {
	Catalog CatalogReader
	T       *TemplateRenderer
	Logger  *slog.Logger
}

func (h *PrestataireHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func filterFromQuery(q url.Values) prestataire.Filter {
	return prestataire.Filter{
		Search:    q.Get("q"),
		Status:    q.Get("status"),
		Specialty: q.Get("specialty"),
	}.Normalize()
}

// Browse renders the filterable card grid. An htmx request targeting the grid
// gets just the grid back.
// GET /prestataires?q=&status=&specialty=.
func (h *PrestataireHandlers) Browse(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.Browse(r.Context(), filterFromQuery(r.URL.Query()))
	if err != nil {
		h.serverError(w, r, err, "browse catalog")
		return
	}

	data := NewTemplateData(r, PageMeta{Title: "Prestataires", CurrentPage: PagePrestataires}).
		With("Result", res).
		With("Filter", res.Filter).
		With("FilterAll", prestataire.FilterAll).
		With("Notice", noticeMessage(r.URL.Query().Get("notice"))).
		Build()

	if WantsPartial(r) && HXTarget(r) == gridTarget {
		SetHXPushURL(w, r.URL.RequestURI())
		if err := h.T.RenderNamed(w, "prestataire-grid", data); err != nil {
			h.logger().ErrorContext(r.Context(), "render grid failed", "error", err)
		}
		return
	}
	if err := h.T.RenderPage(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render prestataires page failed", "error", err)
	}
}

// Detail renders one record: a dialog fragment for htmx, a full page otherwise.
// GET /prestataires/{id}.
func (h *PrestataireHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			NotFound(h.T, h.logger())(w, r)
			return
		}
		h.serverError(w, r, err, "load prestataire")
		return
	}

	data := NewTemplateData(r, PageMeta{Title: p.Company, CurrentPage: PagePrestataire}).
		With("P", p).
		With("Relances", prestataire.SortedRelances(p.Relances)).
		With("DocumentsEnabled", h.Catalog.DocumentsEnabled()).
		Build()

	if WantsPartial(r) {
		if err := h.T.RenderNamed(w, "prestataire-dialog", data); err != nil {
			h.logger().ErrorContext(r.Context(), "render detail dialog failed", "error", err)
		}
		return
	}
	if err := h.T.RenderFull(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render detail page failed", "error", err)
	}
}

// Document redirects to a short-lived download link for an attached file.
// GET /prestataires/{id}/documents/{docID}.
func (h *PrestataireHandlers) Document(w http.ResponseWriter, r *http.Request) {
	link, err := h.Catalog.DocumentLink(r.Context(), r.PathValue("id"), r.PathValue("docID"))
	if err != nil {
		if apperrors.IsNotFound(err) || apperrors.IsUnavailable(err) {
			NotFound(h.T, h.logger())(w, r)
			return
		}
		h.serverError(w, r, err, "presign document")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, link, http.StatusSeeOther)
}

type prestataireListResponse struct {
	Items       []prestataire.Prestataire `json:"items"`
	Total       int                       `json:"total"`
	Specialties []string                  `json:"specialties"`
	Statuses    []prestataire.Status      `json:"statuses"`
}

// APIList returns the filtered records as JSON.
// GET /api/prestataires?q=&status=&specialty=.
func (h *PrestataireHandlers) APIList(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.Browse(r.Context(), filterFromQuery(r.URL.Query()))
	if err != nil {
		h.logger().ErrorContext(r.Context(), "browse catalog failed", "error", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, prestataireListResponse{
		Items:       res.Items,
		Total:       res.Total,
		Specialties: res.Specialties,
		Statuses:    res.Statuses,
	})
}

// APIGet returns one record as JSON.
// GET /api/prestataires/{id}.
func (h *PrestataireHandlers) APIGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.logger().ErrorContext(r.Context(), "load prestataire failed", "error", err)
		}
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *PrestataireHandlers) serverError(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.logger().ErrorContext(r.Context(), op+" failed", "error", err)
	if !IsBrowserRequest(r) {
		WriteAppError(w, err)
		return
	}
	msg := "Une erreur est survenue. Réessayez plus tard."
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "Le chargement a pris trop de temps. Réessayez."
	}
	renderErrorPage(w, r, errorPage{T: h.T, Logger: h.logger(), Status: http.StatusInternalServerError, Message: msg})
}
