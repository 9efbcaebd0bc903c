package auth

import (
	"testing"
	"time"
)

func TestDecide(t *testing.T) {
	user := &User{ID: "u1"}
	session := FromProvider(&ProviderSession{AccessToken: "tok", User: *user})

	tests := []struct {
		name  string
		state State
		want  Decision
	}{
		{name: "loading without state", state: State{Loading: true}, want: DecisionLoading},
		{name: "loading with user only", state: State{Loading: true, User: user}, want: DecisionLoading},
		{name: "loading with session only", state: State{Loading: true, Session: session}, want: DecisionLoading},
		{name: "loading with full state", state: State{Loading: true, User: user, Session: session}, want: DecisionLoading},
		{name: "anonymous", state: State{}, want: DecisionRedirect},
		{name: "user without session", state: State{User: user}, want: DecisionRedirect},
		{name: "session without user", state: State{Session: session}, want: DecisionRedirect},
		{name: "authenticated", state: State{User: user, Session: session}, want: DecisionAllow},
		{
			name:  "guest",
			state: State{User: &User{ID: GuestUserID}, Session: NewGuestSession(time.Now()), IsDemo: true},
			want:  DecisionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.state); got != tt.want {
				t.Fatalf("Decide() = %s, want %s", got, tt.want)
			}
			if tt.want != DecisionAllow && tt.state.Authenticated() {
				t.Fatalf("state must not be authenticated when the guard does not allow")
			}
		})
	}
}

func TestState_ProviderSession(t *testing.T) {
	guest := State{Session: NewGuestSession(time.Now())}
	if _, ok := guest.ProviderSession(); ok {
		t.Fatalf("guest session must not be exposed as a provider session")
	}

	ps := &ProviderSession{AccessToken: "tok"}
	provider := State{Session: ps}
	got, ok := provider.ProviderSession()
	if !ok || got != ps {
		t.Fatalf("expected provider session, got %v %v", got, ok)
	}
}
