package auth

import "time"

// Guest identity constants. They are stable so the demo principal looks the
// same across restarts and clients.
const (
	GuestUserID       = "demo-user"
	GuestEmail        = "demo@prestataires.local"
	GuestDisplayName  = "Utilisateur démo"
	GuestTokenTTL     = time.Hour
	guestAccessToken  = "demo-access-token"
	guestRefreshToken = "demo-refresh-token"
)

// GuestUser returns the placeholder principal used in guest mode.
func GuestUser() User {
	return User{
		ID:          GuestUserID,
		Email:       GuestEmail,
		DisplayName: GuestDisplayName,
		Role:        RoleGuest,
	}
}

// NewGuestSession fabricates a guest session valid for one hour from now.
func NewGuestSession(now time.Time) *GuestSession {
	user := GuestUser()
	user.CreatedAt = now
	return &GuestSession{
		AccessToken:  guestAccessToken,
		RefreshToken: guestRefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    now.Add(GuestTokenTTL),
		User:         user,
	}
}
