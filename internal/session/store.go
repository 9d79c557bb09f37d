// Package session owns the authenticated-user session: current user,
// bearer credential, and the persistence/restoration lifecycle across
// process restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lms-client/internal/domain"
	"lms-client/internal/kvstore"
)

// Persisted state lives under two fixed keys, matching what earlier client
// builds wrote, so an upgrade does not log everybody out.
const (
	userKey  = "lms_user"
	tokenKey = "lms_token"
)

// State is the session lifecycle:
// Anonymous → Restoring → Authenticated, back to Anonymous on logout or
// when restoration fails remote validation.
type State int

const (
	Anonymous State = iota
	Restoring
	Authenticated
)

func (s State) String() string {
	switch s {
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// API is the slice of the auth service the store depends on.
type API interface {
	Login(ctx context.Context, email, password string) (token string, err error)
	Register(ctx context.Context, name, email, password string, role domain.Role) error
	ResolveSession(ctx context.Context, token string) (domain.User, error)
}

// Store holds the session. It is constructed once per process and passed
// by reference to whatever consumes it; there is no package-level instance.
//
// Every mutating completion checks the generation captured when the
// operation was issued: a logout (or a second restore) advances the
// generation, turning late completions into safe no-ops.
type Store struct {
	api    API
	kv     kvstore.Store
	logger *slog.Logger

	mu      sync.Mutex
	user    *domain.User
	token   string
	state   State
	loading bool
	gen     uint64

	onChange func(*domain.User)
}

func New(api API, kv kvstore.Store, logger *slog.Logger) *Store {
	return &Store{
		api:    api,
		kv:     kv,
		logger: logger.With(slog.String("component", "session")),
		state:  Anonymous,
	}
}

// OnChange registers the callback invoked whenever the current user
// identity changes (login, restore resolution, logout). It is called
// without internal locks held, with a copy of the user (nil on logout).
// Register before issuing operations; there is exactly one subscriber,
// the enrollment synchronizer.
func (s *Store) OnChange(fn func(*domain.User)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// User returns a copy of the current user, or nil when anonymous.
func (s *Store) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.user)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether a restore is in flight. Consumers must not
// render access-gated views while it is true.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Restore rebuilds the session from persisted state. With no persisted
// credential it settles on Anonymous without any network call. With one,
// it installs the persisted snapshot optimistically, then validates the
// credential remotely; a rejected or malformed response clears everything.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	s.state = Restoring
	s.loading = true
	gen := s.gen
	s.mu.Unlock()

	token, ok, err := s.kv.Get(ctx, tokenKey)
	if err != nil || !ok {
		s.mu.Lock()
		if s.gen == gen {
			s.state = Anonymous
			s.loading = false
		}
		s.mu.Unlock()
		if err != nil {
			return &domain.AuthError{Message: "Could not read persisted session", Err: err}
		}
		return nil
	}

	// Optimistic snapshot while the remote validation runs.
	if snap, ok, _ := s.kv.Get(ctx, userKey); ok {
		var u domain.User
		if json.Unmarshal([]byte(snap), &u) == nil && u.ID != "" {
			s.mu.Lock()
			if s.gen == gen {
				s.user = &u
				s.token = token
				s.state = Authenticated
			}
			s.mu.Unlock()
		}
	}

	fresh, err := s.api.ResolveSession(ctx, token)
	if err != nil {
		s.clearPersisted(ctx)
		var notify func(*domain.User)
		s.mu.Lock()
		if s.gen == gen {
			s.gen++
			s.user = nil
			s.token = ""
			s.state = Anonymous
			s.loading = false
			notify = s.onChange
		}
		s.mu.Unlock()
		if notify != nil {
			notify(nil)
		}
		s.logger.Warn("session restore rejected", slog.String("error", err.Error()))
		return &domain.AuthError{Message: "Session expired", Err: err}
	}

	var notify func(*domain.User)
	var snapshot *domain.User
	s.mu.Lock()
	if s.gen == gen {
		s.user = &fresh
		s.token = token
		s.state = Authenticated
		s.loading = false
		notify = s.onChange
		snapshot = cloneUser(s.user)
	}
	s.mu.Unlock()

	if snapshot != nil {
		s.persist(ctx, fresh, token)
		s.logger.Info("session restored", slog.String("user_id", fresh.ID))
	}
	if notify != nil {
		notify(snapshot)
	}
	return nil
}

// Login exchanges credentials and resolves the full profile. Partial
// success (credential accepted, profile resolution failed) is treated as
// total failure: nothing is persisted, the session stays as it was.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	user, err := s.api.ResolveSession(ctx, token)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			return err
		}
		return &domain.AuthError{Message: "Could not load user profile", Err: err}
	}

	var notify func(*domain.User)
	var snapshot *domain.User
	s.mu.Lock()
	if s.gen != gen {
		// Session was reset while the exchange was in flight.
		s.mu.Unlock()
		return &domain.AuthError{Message: "Session changed during login"}
	}
	s.user = &user
	s.token = token
	s.state = Authenticated
	notify = s.onChange
	snapshot = cloneUser(s.user)
	s.mu.Unlock()

	s.persist(ctx, user, token)
	s.logger.Info("login succeeded", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	if notify != nil {
		notify(snapshot)
	}
	return nil
}

// Signup registers an account. It never authenticates and never persists
// session state.
func (s *Store) Signup(ctx context.Context, name, email, password string, role domain.Role) error {
	return s.api.Register(ctx, name, email, password, role)
}

// Logout unconditionally clears persisted and in-memory session state.
func (s *Store) Logout(ctx context.Context) {
	s.clearPersisted(ctx)

	var notify func(*domain.User)
	s.mu.Lock()
	s.gen++
	wasAuthed := s.user != nil
	s.user = nil
	s.token = ""
	s.state = Anonymous
	s.loading = false
	notify = s.onChange
	s.mu.Unlock()

	if wasAuthed {
		s.logger.Info("logged out")
	}
	if notify != nil {
		notify(nil)
	}
}

// AddEnrolledCourse appends courseID to the current user's enrolled set
// and re-persists the snapshot. Idempotent; a no-op when anonymous.
func (s *Store) AddEnrolledCourse(ctx context.Context, courseID string) error {
	s.mu.Lock()
	if s.user == nil || s.user.HasEnrolled(courseID) {
		s.mu.Unlock()
		return nil
	}
	s.user.EnrolledCourseIDs = append(s.user.EnrolledCourseIDs, courseID)
	user := *cloneUser(s.user)
	token := s.token
	s.mu.Unlock()

	s.persist(ctx, user, token)
	return nil
}

// TokenExpiry decodes the credential's exp claim without verifying the
// signature (verification is the server's job; this is a staleness hint
// for the UI). Returns zero time when the credential is absent or carries
// no expiry.
func (s *Store) TokenExpiry() time.Time {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (s *Store) persist(ctx context.Context, user domain.User, token string) {
	if b, err := json.Marshal(user); err == nil {
		if err := s.kv.Set(ctx, userKey, string(b)); err != nil {
			s.logger.Warn("persist user snapshot failed", slog.String("error", err.Error()))
		}
	}
	if token != "" {
		if err := s.kv.Set(ctx, tokenKey, token); err != nil {
			s.logger.Warn("persist token failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Store) clearPersisted(ctx context.Context) {
	if err := s.kv.Delete(ctx, userKey); err != nil {
		s.logger.Warn("clear user snapshot failed", slog.String("error", err.Error()))
	}
	if err := s.kv.Delete(ctx, tokenKey); err != nil {
		s.logger.Warn("clear token failed", slog.String("error", err.Error()))
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.EnrolledCourseIDs = append([]string(nil), u.EnrolledCourseIDs...)
	return &cp
}
