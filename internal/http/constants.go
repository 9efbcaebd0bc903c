package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageLogin        = "login"
	PageRegister     = "register"
	PageLoading      = "loading"
	PagePrestataires = "prestataires"
	PagePrestataire  = "prestataire" // full-page detail view
	PageNotFound     = "not-found"
)

// Route paths referenced from handlers and redirects.
const (
	PathHome         = "/"
	PathLogin        = "/auth/login"
	PathRegister     = "/auth/register"
	PathGuest        = "/auth/guest"
	PathLogout       = "/auth/logout"
	PathPrestataires = "/prestataires"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageLogin:        "login-content",
	PageRegister:     "register-content",
	PageLoading:      "loading-content",
	PagePrestataires: "prestataires-content",
	PagePrestataire:  "prestataire-content",
	PageNotFound:     "not-found-content",
}

// ContentTemplateFor returns the template name for a page, falling back to not-found.
func ContentTemplateFor(page string) string {
	if t, ok := contentTemplates[page]; ok {
		return t
	}
	return "not-found-content"
}
