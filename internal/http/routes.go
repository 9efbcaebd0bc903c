package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Mirrors   MirrorSource      // Required: per-client session mirrors
	Catalog   CatalogReader     // Required: prestataire catalog
	Templates *TemplateRenderer // Required: parsed templates
	StaticFS  fs.FS             // Optional: served under /static/

	GuestEnabled bool
	CookieDomain string
	// LoadingWait lets a protected request wait briefly for the initial session fetch.
	LoadingWait time.Duration
	// HeartbeatInterval overrides the auth event stream keep-alive period.
	HeartbeatInterval time.Duration
	// ReadinessChecks back GET /readyz. Empty means always ready.
	ReadinessChecks map[string]HealthCheck

	Logger *slog.Logger // Optional
}

// NewRouter creates and configures the HTTP router with browser middleware.
// Every route except health, readiness and static assets runs behind ClientIdentity and
// CSRF protection; dashboard routes additionally run behind the session guard.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		T:                 services.Templates,
		GuestEnabled:      services.GuestEnabled,
		HeartbeatInterval: services.HeartbeatInterval,
		Logger:            logger,
	}
	prestataireHandlers := &PrestataireHandlers{
		Catalog: services.Catalog,
		T:       services.Templates,
		Logger:  logger,
	}
	guard := &SessionGuard{Renderer: services.Templates, LoadingWait: services.LoadingWait, Logger: logger}

	identity := ClientIdentity(ClientIdentityConfig{
		Mirrors:      services.Mirrors,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})
	session := func(h http.HandlerFunc) http.Handler { return identity(csrf(h)) }
	protected := func(h http.HandlerFunc) http.Handler { return identity(csrf(guard.Require(h))) }

	var counter MirrorCounter
	if c, ok := services.Mirrors.(MirrorCounter); ok {
		counter = c
	}
	mux.Handle("GET /healthz", healthHandler(counter))
	mux.Handle("HEAD /healthz", healthHandler(counter))
	mux.Handle("GET /readyz", readyHandler(services.ReadinessChecks))

	if services.StaticFS != nil {
		mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServerFS(services.StaticFS))))
	}

	registerAuthRoutes(mux, authHandlers, session)

	mux.Handle("GET /{$}", http.RedirectHandler(PathPrestataires, http.StatusSeeOther))
	mux.Handle("GET /prestataires", protected(prestataireHandlers.Browse))
	mux.Handle("GET /prestataires/{id}", protected(prestataireHandlers.Detail))
	mux.Handle("GET /prestataires/{id}/documents/{docID}", protected(prestataireHandlers.Document))
	mux.Handle("GET /api/prestataires", protected(prestataireHandlers.APIList))
	mux.Handle("GET /api/prestataires/{id}", protected(prestataireHandlers.APIGet))

	mux.Handle("/", session(NotFound(services.Templates, logger)))

	return BrowserDetection()(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, session func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /auth/login", session(h.LoginPage))
	mux.Handle("POST /auth/login", session(h.Login))
	mux.Handle("GET /auth/register", session(h.RegisterPage))
	mux.Handle("POST /auth/register", session(h.Register))
	mux.Handle("POST /auth/guest", session(h.Guest))
	mux.Handle("POST /auth/logout", session(h.Logout))
	mux.Handle("GET /auth/status", session(h.Status))
	mux.Handle("GET /auth/events", session(h.Events))

	mux.Handle("POST /api/auth/login", session(h.APILogin))
	mux.Handle("POST /api/auth/register", session(h.APIRegister))
	mux.Handle("POST /api/auth/guest", session(h.APIGuest))
	mux.Handle("POST /api/auth/logout", session(h.APILogout))
}

//nolint:gochecknoglobals // compiled once
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
