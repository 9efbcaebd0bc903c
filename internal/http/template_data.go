package httpx

import (
	"net/http"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
)

const defaultPageTitle = "Prestataires"

// PageMeta names the page being rendered. PageTitle falls back to Title,
// which falls back to defaultPageTitle.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

func (m PageMeta) titles() (title, pageTitle string) {
	title = m.Title
	if title == "" {
		title = defaultPageTitle
	}
	pageTitle = m.PageTitle
	if pageTitle == "" {
		pageTitle = title
	}
	return title, pageTitle
}

// TemplateData is the map handed to the layout. Its With* methods mutate in
// place and return the receiver for chaining.
type TemplateData map[string]any

// NewTemplateData seeds the layout fields: titles, current page, CSRF token
// and, for an admitted session, the user.
func NewTemplateData(r *http.Request, meta PageMeta) TemplateData {
	title, pageTitle := meta.titles()
	d := TemplateData{
		"Title":           title,
		"PageTitle":       pageTitle,
		"CurrentPage":     meta.CurrentPage,
		"CSRFToken":       GetCSRFToken(r),
		"IsAuthenticated": false,
		"IsDemo":          false,
	}
	st, ok := AuthStateFromContext(r.Context())
	if ok && domainauth.Decide(st) == domainauth.DecisionAllow {
		d["IsAuthenticated"] = true
		d["IsDemo"] = st.IsDemo
		d["User"] = st.User
	}
	return d
}

func (d TemplateData) With(key string, value any) TemplateData {
	d[key] = value
	return d
}

// WithError sets the page-level alert. An empty message is ignored.
func (d TemplateData) WithError(msg string) TemplateData {
	if msg == "" {
		return d
	}
	d["Error"] = true
	d["ErrorMessage"] = msg
	return d
}

func (d TemplateData) WithFieldErrors(errs map[string]string) TemplateData {
	if len(errs) > 0 {
		d["Errors"] = errs
	}
	return d
}

// Build returns the data as a plain map.
func (d TemplateData) Build() map[string]any { return d }
