// Package session owns the authentication state of a running client.
//
// A Store moves between three states:
//
//	Unknown ──Bootstrap──▶ Anonymous ◀──Logout── Authenticated
//	                           │                      ▲
//	                           └───Login / Register───┘
//
// The persisted token is the source of truth across restarts; the Store
// is the in-memory record of "token verified as this user". Observers
// register with Subscribe and receive a copy of every new Session.
//
// At most one credential-changing operation (Bootstrap, Login, Register,
// Refresh) runs at a time. Overlapping calls fail with
// ErrOperationInProgress and leave the state alone.
package session
