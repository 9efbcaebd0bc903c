package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/target/prestataires-ui/internal/adapters/identity"
	domainauth "github.com/target/prestataires-ui/internal/domain/auth"
	"github.com/target/prestataires-ui/internal/service"
)

const (
	minPasswordLength        = 6
	defaultHeartbeatInterval = 25 * time.Second
	msgRequired              = "Champ requis"
)

// AuthHandlers provides HTTP handlers for sign-in, registration, guest mode and sign-out.
type AuthHandlers struct {
	T            *TemplateRenderer
	GuestEnabled bool
	// HeartbeatInterval is the keep-alive period of the auth event stream.
	HeartbeatInterval time.Duration
	Logger            *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func mustMirror(r *http.Request) *service.SessionMirror {
	m, ok := MirrorFromContext(r.Context())
	if !ok {
		panic("httpx: session mirror requested outside ClientIdentity middleware")
	}
	return m
}

// redirectTarget reads redirect_uri from the form or query and keeps it same-origin.
func redirectTarget(r *http.Request) string {
	target := r.PostFormValue("redirect_uri")
	if target == "" {
		target = r.URL.Query().Get("redirect_uri")
	}
	if target == "" {
		return PathPrestataires
	}
	return safeRedirectPath(target)
}

// finishAuthRedirect sends the browser on after a successful auth action.
func finishAuthRedirect(w http.ResponseWriter, r *http.Request, target string) {
	redirectBrowser(w, r, target, http.StatusNoContent)
}

// LoginPage renders the sign-in form. A visitor who is already signed in is sent on.
// GET /auth/login?redirect_uri=<path>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	target := redirectTarget(r)
	if domainauth.Decide(mustMirror(r).Snapshot()) == domainauth.DecisionAllow {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, loginView{RedirectURI: target, Notice: noticeMessage(r.URL.Query().Get("notice"))})
}

// Login signs in with email and password.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	view := loginView{
		RedirectURI: redirectTarget(r),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
	}
	password := r.PostFormValue("password")

	fieldErrs := map[string]string{}
	if view.Email == "" {
		fieldErrs["email"] = msgRequired
	}
	if password == "" {
		fieldErrs["password"] = msgRequired
	}
	if len(fieldErrs) > 0 {
		view.FieldErrors = fieldErrs
		h.renderLogin(w, r, view)
		return
	}

	if err := mustMirror(r).Login(r.Context(), view.Email, password); err != nil {
		h.logger().InfoContext(r.Context(), "login failed", "client_id", ClientIDFromContext(r.Context()), "error", err)
		view.Error = authErrorMessage(err)
		h.renderLogin(w, r, view)
		return
	}
	finishAuthRedirect(w, r, view.RedirectURI)
}

// RegisterPage renders the registration form.
// GET /auth/register.
func (h *AuthHandlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if domainauth.Decide(mustMirror(r).Snapshot()) == domainauth.DecisionAllow {
		http.Redirect(w, r, PathPrestataires, http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, registerView{})
}

// Register creates an account. When the provider issues a session right away
// the visitor lands on the dashboard; otherwise they are asked to confirm their email.
// POST /auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	view := registerView{
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		DisplayName: strings.TrimSpace(r.PostFormValue("display_name")),
	}
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("password_confirm")

	if errs := validateRegistration(view.Email, password, confirm); len(errs) > 0 {
		view.FieldErrors = errs
		h.renderRegister(w, r, view)
		return
	}

	sess, err := mustMirror(r).Register(r.Context(), view.Email, password, view.DisplayName)
	if err != nil {
		h.logger().InfoContext(r.Context(), "registration failed", "client_id", ClientIDFromContext(r.Context()), "error", err)
		view.Error = authErrorMessage(err)
		h.renderRegister(w, r, view)
		return
	}
	if sess == nil {
		finishAuthRedirect(w, r, PathLogin+"?notice=confirm_email")
		return
	}
	finishAuthRedirect(w, r, PathPrestataires)
}

// Guest enters guest mode without contacting the identity provider.
// POST /auth/guest.
func (h *AuthHandlers) Guest(w http.ResponseWriter, r *http.Request) {
	if !h.GuestEnabled {
		NotFound(h.T, h.logger())(w, r)
		return
	}
	mustMirror(r).EnterGuestMode()
	finishAuthRedirect(w, r, redirectTarget(r))
}

// Logout signs out. A provider failure keeps a real session in place, so the
// visitor is sent back to the dashboard with a notice.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	m := mustMirror(r)
	if err := m.Logout(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "client_id", ClientIDFromContext(r.Context()), "error", err)
		if domainauth.Decide(m.Snapshot()) == domainauth.DecisionAllow {
			finishAuthRedirect(w, r, PathPrestataires+"?notice=logout_failed")
			return
		}
	}
	finishAuthRedirect(w, r, PathLogin+"?notice=signed_out")
}

// Status returns the current authentication state.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, newAuthStatus(mustMirror(r).Snapshot()))
}

// Events streams the client's auth state as server-sent events. One "auth"
// event is sent on connect and another after every change, so pages can
// re-evaluate the route guard without polling.
// GET /auth/events.
func (h *AuthHandlers) Events(w http.ResponseWriter, r *http.Request) {
	m := mustMirror(r)
	rc := http.NewResponseController(w)

	changes, stop := m.Watch()
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	_ = rc.SetWriteDeadline(time.Time{})
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, "retry: 2000\n\n"); err != nil {
		return
	}
	if err := writeAuthEvent(w, m.Snapshot()); err != nil || rc.Flush() != nil {
		return
	}

	interval := h.HeartbeatInterval
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := writeAuthEvent(w, m.Snapshot()); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeAuthEvent(w http.ResponseWriter, st domainauth.State) error {
	b, err := json.Marshal(newAuthStatus(st))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: auth\ndata: %s\n\n", b)
	return err
}

// authStatus is the JSON view of a mirror snapshot. Tokens are never exposed.
type authStatus struct {
	Authenticated bool                   `json:"authenticated"`
	Loading       bool                   `json:"loading"`
	IsDemo        bool                   `json:"is_demo"`
	Decision      string                 `json:"decision"`
	User          *domainauth.User       `json:"user,omitempty"`
	SessionKind   domainauth.SessionKind `json:"session_kind,omitempty"`
	ExpiresAt     *time.Time             `json:"expires_at,omitempty"`
}

func newAuthStatus(st domainauth.State) authStatus {
	out := authStatus{
		Authenticated: st.Authenticated(),
		Loading:       st.Loading,
		IsDemo:        st.IsDemo,
		Decision:      domainauth.Decide(st).String(),
	}
	if out.Authenticated {
		out.User = st.User
		out.SessionKind = st.Session.Kind()
		if exp := st.Session.Expiry(); !exp.IsZero() {
			out.ExpiresAt = &exp
		}
	}
	return out
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// APILogin signs in from a JSON body.
// POST /api/auth/login.
func (h *AuthHandlers) APILogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errors.New("email and password are required")})
		return
	}
	m := mustMirror(r)
	if err := m.Login(r.Context(), req.Email, req.Password); err != nil {
		writeAuthError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newAuthStatus(m.Snapshot()))
}

// APIRegister creates an account from a JSON body.
// POST /api/auth/register.
func (h *AuthHandlers) APIRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if errs := validateRegistration(req.Email, req.Password, req.Password); len(errs) > 0 {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "fields": errs})
		return
	}
	m := mustMirror(r)
	sess, err := m.Register(r.Context(), req.Email, req.Password, strings.TrimSpace(req.DisplayName))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"session_issued": sess != nil,
		"state":          newAuthStatus(m.Snapshot()),
	})
}

// APIGuest enters guest mode.
// POST /api/auth/guest.
func (h *AuthHandlers) APIGuest(w http.ResponseWriter, r *http.Request) {
	if !h.GuestEnabled {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("guest mode is disabled")})
		return
	}
	m := mustMirror(r)
	m.EnterGuestMode()
	WriteJSON(w, http.StatusOK, newAuthStatus(m.Snapshot()))
}

// APILogout signs out.
// POST /api/auth/logout.
func (h *AuthHandlers) APILogout(w http.ResponseWriter, r *http.Request) {
	m := mustMirror(r)
	if err := m.Logout(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "client_id", ClientIDFromContext(r.Context()), "error", err)
		writeAuthError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newAuthStatus(m.Snapshot()))
}

// validateRegistration returns field errors keyed by form field name.
func validateRegistration(email, password, confirm string) map[string]string {
	errs := map[string]string{}
	if email == "" {
		errs["email"] = msgRequired
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "Adresse e-mail invalide"
	}
	switch {
	case password == "":
		errs["password"] = msgRequired
	case len([]rune(password)) < minPasswordLength:
		errs["password"] = fmt.Sprintf("%d caractères minimum", minPasswordLength)
	case password != confirm:
		errs["password_confirm"] = "Les mots de passe ne correspondent pas"
	}
	return errs
}

// authErrorMessage turns a provider error into a message for the login and registration forms.
func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "Email ou mot de passe incorrect."
	case errors.Is(err, identity.ErrUserExists):
		return "Un compte existe déjà pour cette adresse e-mail."
	case errors.Is(err, identity.ErrRateLimited):
		return "Trop de tentatives. Réessayez dans quelques instants."
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		return "Veuillez confirmer votre adresse e-mail avant de vous connecter."
	case errors.Is(err, identity.ErrWeakPassword):
		return "Le mot de passe est trop faible."
	case errors.Is(err, identity.ErrInvalidEmail):
		return "Adresse e-mail invalide."
	case errors.Is(err, context.DeadlineExceeded):
		return "Le service d'authentification ne répond pas. Réessayez plus tard."
	default:
		return "Le service d'authentification est indisponible. Réessayez plus tard."
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	code, errCode := http.StatusBadGateway, "provider_error"
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		code, errCode = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, identity.ErrUserExists):
		code, errCode = http.StatusConflict, "user_exists"
	case errors.Is(err, identity.ErrRateLimited):
		code, errCode = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		code, errCode = http.StatusForbidden, "email_not_confirmed"
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, identity.ErrInvalidEmail):
		code, errCode = http.StatusUnprocessableEntity, "validation"
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: errors.New(authErrorMessage(err))})
}

// noticeMessage maps the notice query parameter to a banner message.
func noticeMessage(code string) string {
	switch code {
	case "confirm_email":
		return "Compte créé. Confirmez votre adresse e-mail puis connectez-vous."
	case "signed_out":
		return "Vous êtes déconnecté."
	case "logout_failed":
		return "La déconnexion a échoué. Réessayez."
	default:
		return ""
	}
}

type loginView struct {
	RedirectURI string
	Email       string
	Error       string
	Notice      string
	FieldErrors map[string]string
}

type registerView struct {
	Email       string
	DisplayName string
	Error       string
	FieldErrors map[string]string
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	b := NewTemplateData(r, PageMeta{Title: "Connexion", CurrentPage: PageLogin}).
		With("RedirectURI", v.RedirectURI).
		With("Email", v.Email).
		With("Notice", v.Notice).
		With("GuestEnabled", h.GuestEnabled).
		WithFieldErrors(v.FieldErrors).
		WithError(v.Error)
	if err := h.T.RenderPage(w, r, b.Build()); err != nil {
		h.logger().ErrorContext(r.Context(), "render login page failed", "error", err)
	}
}

func (h *AuthHandlers) renderRegister(w http.ResponseWriter, r *http.Request, v registerView) {
	b := NewTemplateData(r, PageMeta{Title: "Créer un compte", CurrentPage: PageRegister}).
		With("Email", v.Email).
		With("DisplayName", v.DisplayName).
		WithFieldErrors(v.FieldErrors).
		WithError(v.Error)
	if err := h.T.RenderPage(w, r, b.Build()); err != nil {
		h.logger().ErrorContext(r.Context(), "render register page failed", "error", err)
	}
}
