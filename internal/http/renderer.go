package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/prestataires-ui/internal/domain/prestataire"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var t *template.Template
	var err error
	t, err = template.New("root").Funcs(templateFuncs(&t)).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	return &TemplateRenderer{t: t, logger: logger}, nil
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.render(w, http.StatusOK, "layout", data)
}

// RenderPartial renders only the main content area.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.render(w, http.StatusOK, "content", data)
}

// RenderPage renders the full layout, or just the content for htmx requests.
func (r *TemplateRenderer) RenderPage(w http.ResponseWriter, req *http.Request, data any) error {
	if WantsPartial(req) {
		return r.RenderPartial(w, req, data)
	}
	return r.RenderFull(w, req, data)
}

// RenderNamed renders a single named template, typically a fragment.
func (r *TemplateRenderer) RenderNamed(w http.ResponseWriter, name string, data any) error {
	return r.render(w, http.StatusOK, name, data)
}

// RenderError renders the standalone error page with the given status.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, status int, data any) error {
	return r.render(w, status, "error-layout", data)
}

func (r *TemplateRenderer) render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", slog.String("template", name), slog.Any("error", err))
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template", slog.String("template", name), slog.Any("error", err))
		return err
	}
	return nil
}

func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		"sectionTmpl": ContentTemplateFor,
		"renderSection": func(page string, data any) (template.HTML, error) {
			if t == nil || *t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, ContentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - rendered by our own html/template set; values were escaped during ExecuteTemplate.
			return template.HTML(buf.String()), nil
		},
		"toJSON": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		"dict":           dict,
		"statusBadge":    prestataire.StatusBadge,
		"chantierBadge":  prestataire.ChantierStatusBadge,
		"outcomeBadge":   prestataire.OutcomeBadge,
		"channelIcon":    prestataire.ChannelIcon,
		"categoryIcon":   prestataire.CategoryIcon,
		"sortedRelances": prestataire.SortedRelances,
		"frDate":         FormatDateFR,
		"frDateLong":     FormatDateLongFR,
		"initials":       Initials,
	}
}

// dict builds a map from alternating key/value arguments for sub-template calls.
func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, errors.New("dict requires an even number of arguments")
	}
	out := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d is not a string", i)
		}
		out[key] = values[i+1]
	}
	return out, nil
}

//nolint:gochecknoglobals // static read-only lookup
var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatDateFR formats t as dd/mm/yyyy. The zero time renders as "—".
func FormatDateFR(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006")
}

// FormatDateLongFR formats t as "1 mars 2024".
func FormatDateLongFR(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}

// Initials returns up to two upper-case initials for an avatar.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		out = append(out, []rune(strings.ToUpper(word))[0])
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
