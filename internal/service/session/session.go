// Package session holds the authenticated principal and its bearer token.
//
// A Store starts in StateLoading. Restore resolves it to Authenticated or
// Anonymous from durable storage; afterwards the only transitions are
// Anonymous -> Authenticated through Login and Authenticated -> Anonymous
// through Logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nikhil/teamglow/internal/api"
	"github.com/nikhil/teamglow/internal/credentials"
	"github.com/nikhil/teamglow/internal/logger"
	usermodels "github.com/nikhil/teamglow/internal/models/users"
)

type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Authenticator exchanges credentials for a token and principal.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
}

// Listener is notified after every state transition, outside the store's lock.
type Listener func(state State, user *usermodels.User)

type Store struct {
	auth  Authenticator
	creds credentials.Store
	Log   *logger.Logger

	mu        sync.RWMutex
	state     State
	user      *usermodels.User
	token     string
	listeners []Listener

	now func() time.Time
}

// NewStore wires a session store. auth and creds are required.
func NewStore(auth Authenticator, creds credentials.Store, log *logger.Logger) *Store {
	if auth == nil || creds == nil {
		panic("session: NewStore requires an authenticator and a credential store")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		auth:  auth,
		creds: creds,
		Log:   log,
		state: StateLoading,
		now:   time.Now,
	}
}

// OnChange registers fn to be called after each transition.
func (s *Store) OnChange(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the current principal, or nil when not authenticated.
func (s *Store) User() *usermodels.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login authenticates against the API. It reports failure as false and never
// returns an error; the cause is logged.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.Log.Warn("Login failed", "email", email, "error", err)
		return false
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		s.Log.Error("Login response missing token or user", "email", email)
		return false
	}

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		s.Log.Error("Failed to encode user", "error", err)
		return false
	}
	prev, err := s.snapshot(ctx)
	if err != nil {
		s.Log.Error("Failed to read stored session", "error", err)
		return false
	}
	if err := s.creds.Set(ctx, credentials.TokenKey, resp.AccessToken); err != nil {
		s.Log.Error("Failed to persist token", "error", err)
		s.rollback(ctx, prev)
		return false
	}
	if err := s.creds.Set(ctx, credentials.UserKey, string(userJSON)); err != nil {
		s.Log.Error("Failed to persist user", "error", err)
		s.rollback(ctx, prev)
		return false
	}

	user := resp.User
	s.transition(StateAuthenticated, &user, resp.AccessToken)
	s.Log.WithUser(user.ID).Audit("Session started", "role", user.Role)
	return true
}

// Logout clears durable and in-memory credentials. Safe to call repeatedly.
func (s *Store) Logout(ctx context.Context) {
	for _, key := range []string{credentials.TokenKey, credentials.UserKey} {
		if err := s.creds.Delete(ctx, key); err != nil {
			s.Log.Error("Failed to clear credential", "key", key, "error", err)
		}
	}

	s.mu.RLock()
	prev, user := s.state, s.user
	s.mu.RUnlock()

	s.transition(StateAnonymous, nil, "")
	if prev == StateAuthenticated && user != nil {
		s.Log.WithUser(user.ID).Audit("Session ended")
	}
}

// Restore rebuilds the session from durable storage. It only acts while the
// store is still loading and returns the resulting state.
func (s *Store) Restore(ctx context.Context) State {
	if st := s.State(); st != StateLoading {
		return st
	}

	user, token, err := s.readStored(ctx)
	if err != nil {
		s.Log.Warn("Discarding stored session", "error", err)
		for _, key := range []string{credentials.TokenKey, credentials.UserKey} {
			if derr := s.creds.Delete(ctx, key); derr != nil {
				s.Log.Error("Failed to clear credential", "key", key, "error", derr)
			}
		}
		s.transition(StateAnonymous, nil, "")
		return StateAnonymous
	}
	if user == nil {
		s.transition(StateAnonymous, nil, "")
		return StateAnonymous
	}

	s.transition(StateAuthenticated, user, token)
	s.Log.WithUser(user.ID).Debug("Session restored")
	return StateAuthenticated
}

type storedValue struct {
	value   string
	present bool
}

// snapshot reads the stored credential pair so a failed Login can put it back.
func (s *Store) snapshot(ctx context.Context) (map[string]storedValue, error) {
	out := make(map[string]storedValue, 2)
	for _, key := range []string{credentials.TokenKey, credentials.UserKey} {
		v, ok, err := s.creds.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = storedValue{value: v, present: ok}
	}
	return out, nil
}

func (s *Store) rollback(ctx context.Context, prev map[string]storedValue) {
	for key, v := range prev {
		var err error
		if v.present {
			err = s.creds.Set(ctx, key, v.value)
		} else {
			err = s.creds.Delete(ctx, key)
		}
		if err != nil {
			s.Log.Error("Failed to restore credential", "key", key, "error", err)
		}
	}
}

var (
	errIncompleteSession = errors.New("stored session is incomplete")
	errTokenExpired      = errors.New("stored token has expired")
)

// readStored returns (nil, "", nil) when nothing is stored at all.
func (s *Store) readStored(ctx context.Context) (*usermodels.User, string, error) {
	token, hasToken, err := s.creds.Get(ctx, credentials.TokenKey)
	if err != nil {
		return nil, "", err
	}
	userJSON, hasUser, err := s.creds.Get(ctx, credentials.UserKey)
	if err != nil {
		return nil, "", err
	}
	if !hasToken && !hasUser {
		return nil, "", nil
	}
	if !hasToken || !hasUser || token == "" {
		return nil, "", errIncompleteSession
	}

	var user usermodels.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, "", err
	}
	if user.ID == "" {
		return nil, "", errIncompleteSession
	}
	if tokenExpired(token, s.now()) {
		return nil, "", errTokenExpired
	}
	return &user, token, nil
}

// tokenExpired inspects the exp claim without verifying the signature; the
// server remains the authority. Tokens that are not JWTs are never treated
// as expired.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

func (s *Store) transition(state State, user *usermodels.User, token string) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.token = token
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	var snapshot *usermodels.User
	if user != nil {
		u := *user
		snapshot = &u
	}
	for _, fn := range listeners {
		fn(state, snapshot)
	}
}
