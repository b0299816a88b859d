package session

import "errors"

// ErrIllegalTransition is returned when a state change would violate the
// lifecycle invariants. The state is left unchanged.
var ErrIllegalTransition = errors.New("illegal session state transition")

// Phase is the session lifecycle phase.
//
// A session starts at PhaseBooting on construction, transitions exactly
// once per bootstrap attempt to authenticated or unauthenticated, may
// fall back to unauthenticated at any later time (logout, expiry), and
// never returns to booting within one process lifetime.
type Phase int

const (
	// PhaseBooting means the initial identity probe has not concluded.
	PhaseBooting Phase = iota
	// PhaseAuthenticated means an identity probe succeeded.
	PhaseAuthenticated
	// PhaseUnauthenticated means there is no valid session.
	PhaseUnauthenticated
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseBooting:
		return "booting"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is the session lifecycle value. It is immutable: transitions
// return a new State, so illegal updates cannot partially apply.
type State struct {
	Phase Phase
	User  *User
	Token string
}

// Booting returns the initial state of a fresh page load.
func Booting() State {
	return State{Phase: PhaseBooting}
}

// WithToken returns s carrying tok. Used during bootstrap to adopt the
// stored token before the probe so the first request carries credentials.
func (s State) WithToken(tok string) State {
	s.Token = tok
	return s
}

// Authenticated transitions to PhaseAuthenticated with the resolved user.
// Legal from every phase: booting resolves, unauthenticated logs in, and
// authenticated refreshes the identity record. A nil user is illegal --
// authenticated-without-identity must be unrepresentable.
func (s State) Authenticated(user *User, token string) (State, error) {
	if user == nil {
		return s, ErrIllegalTransition
	}
	return State{Phase: PhaseAuthenticated, User: user, Token: token}, nil
}

// Unauthenticated transitions to PhaseUnauthenticated, dropping user and
// token. Legal from every phase and idempotent.
func (s State) Unauthenticated() State {
	return State{Phase: PhaseUnauthenticated}
}

// IsSettled reports whether the bootstrap has concluded.
func (s State) IsSettled() bool {
	return s.Phase != PhaseBooting
}
