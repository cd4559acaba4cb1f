package domain

// State is the authentication state of a Session.
type State int

const (
	// StateUnknown is the state before the persisted token has been checked.
	StateUnknown State = iota
	// StateAnonymous means no verified user.
	StateAnonymous
	// StateAuthenticated means the persisted token was verified as User.
	StateAuthenticated
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the in-memory view of the current authentication status.
//
// IsAuthenticated is always equal to (User != nil). Sessions are values:
// observers receive copies and cannot mutate the owner's state.
type Session struct {
	User            *User `json:"user" yaml:"user"`
	IsLoading       bool  `json:"isLoading" yaml:"is_loading"`
	IsAuthenticated bool  `json:"isAuthenticated" yaml:"is_authenticated"`
	State           State `json:"-" yaml:"-"`
}

// InitialSession returns the Session every process starts with.
func InitialSession() Session {
	return Session{IsLoading: true, State: StateUnknown}
}

// Authenticated returns a settled Session for the given user.
func Authenticated(u User) Session {
	return Session{User: &u, IsAuthenticated: true, State: StateAuthenticated}
}

// Anonymous returns a settled Session without a user.
func Anonymous() Session {
	return Session{State: StateAnonymous}
}

// Clone returns a deep copy so the User pointer is never shared.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
