package auth

import (
	"testing"
	"time"
)

func TestNewGuestSession_ExpiresOneHourLater(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	s := NewGuestSession(now)

	if s.Kind() != SessionKindGuest {
		t.Fatalf("expected guest kind, got %s", s.Kind())
	}
	if !s.Expiry().Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry %s, got %s", now.Add(time.Hour), s.Expiry())
	}
	if s.User.ID != GuestUserID || s.User.Role != RoleGuest {
		t.Fatalf("unexpected guest principal: %+v", s.User)
	}
	if other := NewGuestSession(now.Add(time.Minute)); other.User.ID != s.User.ID {
		t.Fatalf("guest identity must be stable, got %q and %q", s.User.ID, other.User.ID)
	}
}

func TestFromProvider_NilStaysNil(t *testing.T) {
	if FromProvider(nil) != nil {
		t.Fatalf("expected nil interface for nil provider session")
	}
	ps := &ProviderSession{AccessToken: "a"}
	if FromProvider(ps) == nil {
		t.Fatalf("expected non-nil session")
	}
}

func TestProviderSession_Expired(t *testing.T) {
	now := time.Now()
	s := &ProviderSession{ExpiresAt: now.Add(30 * time.Second)}

	if s.Expired(now, 0) {
		t.Fatalf("did not expect expiry without margin")
	}
	if !s.Expired(now, time.Minute) {
		t.Fatalf("expected expiry inside refresh margin")
	}
	if (&ProviderSession{}).Expired(now, time.Hour) {
		t.Fatalf("sessions without expiry never expire")
	}
}

func TestProviderSession_Bearer(t *testing.T) {
	s := &ProviderSession{AccessToken: "tok"}
	if got := s.Bearer(); got != "bearer tok" {
		t.Fatalf("unexpected bearer %q", got)
	}
}

func TestUser_Name(t *testing.T) {
	if got := (User{Email: "a@b.c"}).Name(); got != "a@b.c" {
		t.Fatalf("expected email fallback, got %q", got)
	}
	if got := (User{Email: "a@b.c", DisplayName: "Ana"}).Name(); got != "Ana" {
		t.Fatalf("expected display name, got %q", got)
	}
}
