package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// LoginURL is the login page that sends the visitor back to redirectPath.
func LoginURL(redirectPath string) string {
	q := url.Values{"redirect_uri": {safeRedirectPath(redirectPath)}}
	return PathLogin + "?" + q.Encode()
}

// redirectToLogin sends browsers to LoginURL for where they were; API clients
// get a 401.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthorized",
			Err:     errors.New("authentication required"),
		})
		return
	}
	redirectBrowser(w, r, LoginURL(returnPath(r)), http.StatusOK)
}

// returnPath prefers the page htmx reports the user is on over the fragment
// URL that was requested.
func returnPath(r *http.Request) string {
	if current := HXCurrentURL(r); current != "" {
		if u, err := url.Parse(current); err == nil && (u.IsAbs() || u.Host == "") {
			return safeRedirectPath(u.RequestURI())
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

// safeRedirectPath returns candidate when it is a same-origin absolute path,
// and "/" otherwise. Scheme-relative and backslash forms are refused.
func safeRedirectPath(candidate string) string {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.ContainsRune(candidate, '\\') {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// isSecureRequest is true over TLS or behind a proxy that forwarded https.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
