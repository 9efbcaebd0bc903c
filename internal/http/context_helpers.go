package httpx

import (
	"context"

	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/service"
)

// Unexported context key types to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same keys.
type (
	clientIDKey  struct{}
	mirrorKey    struct{}
	authStateKey struct{}
)

// SetClientIDInContext returns a child context carrying the browser client id.
func SetClientIDInContext(ctx context.Context, clientID string) context.Context {
	if clientID == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext returns the browser client id, or "" when absent.
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}

// SetMirrorInContext returns a child context that carries the client's session mirror.
// If m is nil, the original ctx is returned unchanged.
func SetMirrorInContext(ctx context.Context, m *service.SessionMirror) context.Context {
	if m == nil {
		return ctx
	}
	return context.WithValue(ctx, mirrorKey{}, m)
}

// MirrorFromContext returns the session mirror and a boolean indicating presence.
func MirrorFromContext(ctx context.Context) (*service.SessionMirror, bool) {
	m, ok := ctx.Value(mirrorKey{}).(*service.SessionMirror)
	return m, ok && m != nil
}

// SetAuthStateInContext stores the snapshot the route guard admitted the request with.
func SetAuthStateInContext(ctx context.Context, st domainauth.State) context.Context {
	return context.WithValue(ctx, authStateKey{}, st)
}

// AuthStateFromContext returns the auth snapshot and a boolean indicating presence.
// Outside the guard the snapshot is read from the mirror, if there is one.
func AuthStateFromContext(ctx context.Context) (domainauth.State, bool) {
	if st, ok := ctx.Value(authStateKey{}).(domainauth.State); ok {
		return st, true
	}
	if m, ok := MirrorFromContext(ctx); ok {
		return m.Snapshot(), true
	}
	return domainauth.State{}, false
}

// MustAuthState returns the auth snapshot and panics when the request never
// went through ClientIdentity. Handlers mounted outside it are a wiring bug.
func MustAuthState(ctx context.Context) domainauth.State {
	st, ok := AuthStateFromContext(ctx)
	if !ok {
		panic("httpx: auth state requested outside ClientIdentity middleware")
	}
	return st
}

// CurrentUser returns the signed-in principal, if any.
func CurrentUser(ctx context.Context) *domainauth.User {
	st, ok := AuthStateFromContext(ctx)
	if !ok || !st.Authenticated() {
		return nil
	}
	return st.User
}
