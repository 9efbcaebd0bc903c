package httpx

import (
	"cmp"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"
)

const (
	DefaultCSRFCookieName  = "csrf_token"
	DefaultCSRFHeaderName  = "X-Csrf-Token"
	DefaultCSRFTokenLength = 32

	csrfCookieTTL = 12 * time.Hour
)

var errCSRFMismatch = errors.New("CSRF token validation failed")

// CSRFConfig configures CSRFProtection. Zero values take the Default* constants;
// the form field shares the cookie name unless set.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
	TokenLength   int
}

type csrfGuard struct {
	CSRFConfig
}

func newCSRFGuard(cfg CSRFConfig) csrfGuard {
	cfg.CookieName = cmp.Or(cfg.CookieName, DefaultCSRFCookieName)
	cfg.HeaderName = cmp.Or(cfg.HeaderName, DefaultCSRFHeaderName)
	cfg.FormFieldName = cmp.Or(cfg.FormFieldName, cfg.CookieName)
	if cfg.TokenLength <= 0 {
		cfg.TokenLength = DefaultCSRFTokenLength
	}
	return csrfGuard{cfg}
}

// CSRFProtection implements the double-submit cookie pattern. Every request gets
// a token cookie (readable by scripts so htmx can echo it); unsafe methods must
// send it back in the header or, for form posts, in the form field.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	g := newCSRFGuard(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := g.ensureToken(w, r)
			if err != nil {
				http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

			if !isSafeMethod(r.Method) && !g.matches(r, token) {
				g.reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ensureToken returns the cookie token, minting and setting one when absent.
func (g csrfGuard) ensureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(g.CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	buf := make([]byte, g.TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     g.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   g.CookieDomain,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfCookieTTL.Seconds()),
	})
	return token, nil
}

// matches compares the submitted token with the cookie in constant time.
func (g csrfGuard) matches(r *http.Request, token string) bool {
	submitted := r.Header.Get(g.HeaderName)
	if submitted == "" && isFormPost(r) {
		if err := r.ParseForm(); err != nil {
			return false
		}
		submitted = r.PostFormValue(g.FormFieldName)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) == 1
}

func (g csrfGuard) reject(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		http.Error(w, errCSRFMismatch.Error(), http.StatusForbidden)
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_failed", Err: errCSRFMismatch})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

type csrfTokenKey struct{}

// GetCSRFToken returns the request's CSRF token for templates.
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
