package httpx

import (
	"net/http"
	"strings"
)

// htmx request and response headers.
const (
	hxRequest        = "Hx-Request"
	hxHistoryRestore = "Hx-History-Restore-Request"
	hxTarget         = "Hx-Target"
	hxCurrentURL     = "Hx-Current-Url"
	hxRedirect       = "Hx-Redirect"
	hxPushURL        = "Hx-Push-Url"
)

func headerIsTrue(r *http.Request, name string) bool {
	return strings.EqualFold(r.Header.Get(name), "true")
}

// IsHTMX reports whether htmx issued the request.
func IsHTMX(r *http.Request) bool { return headerIsTrue(r, hxRequest) }

// WantsPartial reports whether only the swapped fragment should be rendered.
// History restores swap the whole body and get the full page.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !headerIsTrue(r, hxHistoryRestore)
}

// HXTarget returns the id of the element htmx will swap.
func HXTarget(r *http.Request) string { return r.Header.Get(hxTarget) }

// HXCurrentURL returns the page URL the htmx request was made from, if any.
func HXCurrentURL(r *http.Request) string {
	if !IsHTMX(r) {
		return ""
	}
	return r.Header.Get(hxCurrentURL)
}

// SetHXPushURL records url in browser history for the swapped content.
func SetHXPushURL(w http.ResponseWriter, url string) { w.Header().Set(hxPushURL, url) }

// redirectBrowser navigates to target: a full-page Hx-Redirect for htmx
// requests (answered with hxStatus), a 303 otherwise.
func redirectBrowser(w http.ResponseWriter, r *http.Request, target string, hxStatus int) {
	if IsHTMX(r) {
		w.Header().Set(hxRedirect, target)
		w.WriteHeader(hxStatus)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
