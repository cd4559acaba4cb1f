package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/yndnr/payauth-go/internal/core/domain"
	"github.com/yndnr/payauth-go/internal/telemetry/logger"
	"github.com/yndnr/payauth-go/internal/telemetry/metric"
)

// Errors returned by the Store itself. Service failures are returned
// unchanged.
var (
	ErrOperationInProgress = errors.New("another sign-in operation is in progress")
	ErrNotAuthenticated    = errors.New("not logged in")
	ErrLoggedOut           = errors.New("logged out while the request was in flight")
)

// Authenticator is the backend side of the session. service.AuthService
// implements it.
type Authenticator interface {
	Login(ctx context.Context, data domain.LoginData) (*domain.AuthResponse, error)
	Register(ctx context.Context, data domain.RegisterData) (*domain.AuthResponse, error)
	Refresh(ctx context.Context) (*domain.AuthResponse, error)
	ProfileWithToken(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) (*domain.ForgotPasswordResponse, error)
}

// TokenStore persists the bearer token. storage.TokenStore implements it.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type listener struct {
	id uint64
	fn func(domain.Session)
}

// Store holds the current Session.
type Store struct {
	auth    Authenticator
	tokens  TokenStore
	logger  logger.Logger
	metrics *metric.Registry

	mu        sync.Mutex
	session   domain.Session
	listeners []listener
	nextID    uint64

	// notifyMu keeps listener calls in transition order.
	notifyMu sync.Mutex

	// persistMu serializes token writes with Logout. generation counts
	// logouts; a request that started in an older generation must not
	// persist its token or install its result.
	persistMu  sync.Mutex
	generation uint64

	busy atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMetrics counts state transitions.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a Store in the Unknown state. Call Bootstrap to settle it.
func New(auth Authenticator, tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		auth:    auth,
		tokens:  tokens,
		logger:  logger.Default(),
		session: domain.InitialSession(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current Session.
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Token returns the persisted token, or "" if none.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.tokens.Load(ctx)
}

// Subscribe registers fn to be called after every transition with a copy
// of the new Session. fn runs synchronously and must not start another
// transition on the same Store. The returned func removes fn.
func (s *Store) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Bootstrap settles the Unknown state: a persisted token that verifies
// yields Authenticated, anything else yields Anonymous. A token that fails
// verification or cannot be read is erased. Without a persisted token no
// request is made.
func (s *Store) Bootstrap(ctx context.Context) error {
	if !s.acquire() {
		return ErrOperationInProgress
	}
	defer s.release()

	gen := s.currentGeneration()
	s.setLoading()

	token, err := s.tokens.Load(ctx)
	if err != nil {
		// An unreadable token (wrong key, corrupt value) would fail every
		// later request, so it is erased like a rejected one.
		s.logger.Warn("cannot read persisted token, erasing it", "error", err)
		s.settle(ctx, gen, nil, true)
		return nil
	}

	if token == "" {
		s.settle(ctx, gen, nil, false)
		return nil
	}

	user := s.Verify(ctx, token)
	s.settle(ctx, gen, user, user == nil)
	return nil
}

// settle ends Bootstrap: Authenticated(user) when user is set, otherwise
// Anonymous, erasing the token first if erase is set. A Logout that ran
// meanwhile already settled the session and wins.
func (s *Store) settle(ctx context.Context, gen uint64, user *domain.User, erase bool) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.generation != gen {
		s.dropLoading()
		return
	}
	if erase {
		if err := s.tokens.Clear(ctx); err != nil {
			s.logger.Warn("cannot erase persisted token", "error", err)
		}
	}
	if user != nil {
		s.transition(domain.Authenticated(*user))
		return
	}
	s.transition(domain.Anonymous())
}

// Login authenticates with credentials. On success the token is persisted
// before the Session becomes Authenticated. On failure the previous user
// is kept and the error is returned as is.
func (s *Store) Login(ctx context.Context, data domain.LoginData) (*domain.User, error) {
	return s.signIn(ctx, func(ctx context.Context) (*domain.AuthResponse, error) {
		return s.auth.Login(ctx, data)
	})
}

// Register creates an account and signs in with it. Same semantics as Login.
func (s *Store) Register(ctx context.Context, data domain.RegisterData) (*domain.User, error) {
	return s.signIn(ctx, func(ctx context.Context) (*domain.AuthResponse, error) {
		return s.auth.Register(ctx, data)
	})
}

func (s *Store) signIn(ctx context.Context, call func(context.Context) (*domain.AuthResponse, error)) (*domain.User, error) {
	if !s.acquire() {
		return nil, ErrOperationInProgress
	}
	defer s.release()

	gen := s.currentGeneration()
	prior := s.setLoading()

	resp, err := call(ctx)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.generation != gen {
		// Logout already installed Anonymous; neither the prior user nor
		// the new token may come back.
		s.dropLoading()
		if err != nil {
			return nil, err
		}
		return nil, ErrLoggedOut
	}
	if err != nil {
		s.restore(prior)
		return nil, err
	}

	if err := s.tokens.Save(ctx, resp.AccessToken); err != nil {
		s.restore(prior)
		return nil, fmt.Errorf("persist token: %w", err)
	}

	s.transition(domain.Authenticated(resp.User))
	user := resp.User
	return &user, nil
}

// Logout erases the token and enters Anonymous. It never fails; an erase
// error is logged. Logging out when already Anonymous changes nothing.
func (s *Store) Logout(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("cannot erase persisted token", "error", err)
	}

	s.mu.Lock()
	s.generation++
	settled := s.session.State == domain.StateAnonymous && !s.session.IsLoading
	s.mu.Unlock()
	if settled {
		return
	}
	s.transition(domain.Anonymous())
}

// Verify returns the user token belongs to, or nil if the token is empty,
// rejected or cannot be checked. The persisted token is not touched.
func (s *Store) Verify(ctx context.Context, token string) *domain.User {
	if token == "" {
		return nil
	}
	user, err := s.auth.ProfileWithToken(ctx, token)
	if err != nil {
		s.logger.Debug("token verification failed", "error", err, "code", domain.Code(err))
		return nil
	}
	return user
}

// Refresh exchanges the current token for a new one and replaces the
// session user with the one returned. A failure leaves everything as it was.
func (s *Store) Refresh(ctx context.Context) (*domain.User, error) {
	if !s.acquire() {
		return nil, ErrOperationInProgress
	}
	defer s.release()

	gen := s.currentGeneration()
	if !s.authenticated() {
		return nil, ErrNotAuthenticated
	}

	resp, err := s.auth.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.generation != gen || !s.authenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := s.tokens.Save(ctx, resp.AccessToken); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	s.transition(domain.Authenticated(resp.User))
	user := resp.User
	return &user, nil
}

// UpdateProfile changes the current user's profile and replaces the
// session user with the backend's answer.
func (s *Store) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	gen := s.currentGeneration()
	if !s.authenticated() {
		return nil, ErrNotAuthenticated
	}

	user, err := s.auth.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.generation != gen || !s.authenticated() {
		return nil, ErrNotAuthenticated
	}
	s.transition(domain.Authenticated(*user))
	return user, nil
}

// ForgotPassword asks the backend to send a reset email. The session is
// not affected.
func (s *Store) ForgotPassword(ctx context.Context, email string) (*domain.ForgotPasswordResponse, error) {
	return s.auth.ForgotPassword(ctx, email)
}

func (s *Store) acquire() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *Store) release() {
	s.busy.Store(false)
}

func (s *Store) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Store) authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State == domain.StateAuthenticated
}

// setLoading marks the session as loading and returns the state before.
func (s *Store) setLoading() domain.Session {
	prior := s.Snapshot()
	if prior.IsLoading {
		return prior
	}
	next := prior.Clone()
	next.IsLoading = true
	s.transition(next)
	return prior
}

// dropLoading clears IsLoading if a Logout raced ahead of setLoading.
func (s *Store) dropLoading() {
	if cur := s.Snapshot(); cur.IsLoading {
		s.restore(cur)
	}
}

// restore returns to prior with IsLoading cleared.
func (s *Store) restore(prior domain.Session) {
	next := prior.Clone()
	next.IsLoading = false
	s.transition(next)
}

// transition installs next and notifies listeners outside the state lock.
func (s *Store) transition(next domain.Session) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	from := s.session.State
	s.session = next.Clone()
	listeners := make([]listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	label := next.State.String()
	if next.IsLoading {
		label = "loading"
	}
	if s.metrics != nil {
		s.metrics.SessionTransitions.WithLabelValues(label).Inc()
	}
	s.logger.Debug("session transition", "from", from.String(), "to", label)

	for _, l := range listeners {
		l.fn(next.Clone())
	}
}
