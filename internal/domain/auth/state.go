package auth

// State is an immutable snapshot of a session mirror.
type State struct {
	User    *User   `json:"user"`
	Session Session `json:"-"`
	Loading bool    `json:"loading"`
	IsDemo  bool    `json:"is_demo"`
}

// Authenticated reports whether the snapshot carries both a principal and a session.
// Partial state is never authenticated.
func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil && s.Session != nil
}

// ProviderSession returns the provider-issued session, if that is what the snapshot holds.
func (s State) ProviderSession() (*ProviderSession, bool) {
	ps, ok := s.Session.(*ProviderSession)
	return ps, ok && ps != nil
}

// Decision is the outcome of evaluating the route guard.
type Decision int

const (
	// DecisionLoading means the initial session fetch has not resolved yet.
	DecisionLoading Decision = iota
	// DecisionRedirect means the visitor must sign in first.
	DecisionRedirect
	// DecisionAllow means the protected page can be served.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decide evaluates the route guard for a snapshot. Loading always wins, so a
// snapshot that is still loading never yields a redirect.
func Decide(s State) Decision {
	switch {
	case s.Loading:
		return DecisionLoading
	case s.User == nil || s.Session == nil:
		return DecisionRedirect
	default:
		return DecisionAllow
	}
}
