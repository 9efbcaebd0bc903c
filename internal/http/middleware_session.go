package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/service"
)

// ClientCookieName identifies the browser client that owns a session mirror.
const ClientCookieName = "client_id"

const clientCookieTTL = 365 * 24 * time.Hour

// MirrorSource hands out the session mirror owned by a browser client.
type MirrorSource interface {
	Get(ctx context.Context, clientID string) (*service.SessionMirror, error)
}

var _ MirrorSource = (*service.MirrorRegistry)(nil)

type ClientIdentityConfig struct {
	Mirrors      MirrorSource
	CookieDomain string
	Logger       *slog.Logger
}

// ClientIdentity gives every visitor a uuid client_id cookie and puts that
// client's session mirror in the request context.
func ClientIdentity(cfg ClientIdentityConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, issued := resolveClientID(r)
			if issued {
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookieName,
					Value:    clientID,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: true,
					Secure:   isSecureRequest(r),
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(clientCookieTTL.Seconds()),
				})
			}

			mirror, err := cfg.Mirrors.Get(r.Context(), clientID)
			if err != nil {
				logger.ErrorContext(r.Context(), "session mirror unavailable", "client_id", clientID, "error", err)
				status := http.StatusInternalServerError
				if errors.Is(err, service.ErrRegistryClosed) {
					status = http.StatusServiceUnavailable
				}
				WriteError(w, ErrorParams{Code: status, ErrCode: "session_unavailable", Err: errors.New("session unavailable")})
				return
			}

			ctx := SetMirrorInContext(SetClientIDInContext(r.Context(), clientID), mirror)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveClientID keeps a well-formed cookie value and otherwise mints a new
// id, reporting true when it did.
func resolveClientID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(ClientCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), false
		}
	}
	return uuid.NewString(), true
}

// SessionGuard gates protected routes on the client's session mirror.
type SessionGuard struct {
	Renderer *TemplateRenderer
	// LoadingWait is how long a request may block on the initial session
	// fetch. Zero serves the loading placeholder at once.
	LoadingWait time.Duration
	Logger      *slog.Logger
}

// Require serves next only when the current snapshot is admitted. Every
// request is decided afresh.
func (g *SessionGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mirror, ok := MirrorFromContext(r.Context())
		if !ok {
			panic("httpx: SessionGuard mounted outside ClientIdentity middleware")
		}

		st := g.settle(r.Context(), mirror)
		switch domainauth.Decide(st) {
		case domainauth.DecisionAllow:
			next.ServeHTTP(w, r.WithContext(SetAuthStateInContext(r.Context(), st)))
		case domainauth.DecisionRedirect:
			redirectToLogin(w, r)
		default:
			g.serveLoading(w, r)
		}
	})
}

// settle returns the mirror snapshot, first giving a loading mirror up to
// LoadingWait to resolve.
func (g *SessionGuard) settle(ctx context.Context, mirror *service.SessionMirror) domainauth.State {
	st := mirror.Snapshot()
	if !st.Loading || g.LoadingWait <= 0 {
		return st
	}
	waitCtx, cancel := context.WithTimeout(ctx, g.LoadingWait)
	defer cancel()
	if mirror.WaitReady(waitCtx) != nil {
		return st
	}
	return mirror.Snapshot()
}

func (g *SessionGuard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// serveLoading renders a self-refreshing placeholder for browsers and a 503
// with Retry-After for API clients.
func (g *SessionGuard) serveLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if !IsBrowserRequest(r) || g.Renderer == nil {
		w.Header().Set("Retry-After", "1")
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "session_loading",
			Err:     errors.New("session is loading, retry shortly"),
		})
		return
	}

	data := NewTemplateData(r, PageMeta{Title: "Chargement", CurrentPage: PageLoading}).
		With("RetryURL", r.URL.RequestURI())
	var err error
	if WantsPartial(r) {
		err = g.Renderer.RenderNamed(w, "loading-fragment", data.Build())
	} else {
		err = g.Renderer.RenderFull(w, r, data.Build())
	}
	if err != nil {
		g.logger().ErrorContext(r.Context(), "render loading placeholder failed", "error", err)
	}
}
