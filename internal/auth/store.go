package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Event describes a session transition published to listeners.
type Event string

const (
	EventLogin   Event = "login"
	EventLogout  Event = "logout"
	EventExpired Event = "expired" // server-declared invalidation, not user-initiated
)

// Session is the client's current authentication state.
type Session struct {
	Token string
	Phone string
	Valid bool
}

// Store owns the session token and its validity. It is the only component
// allowed to mutate session state; everything else goes through its methods.
type Store struct {
	mu        sync.Mutex
	session   Session
	persist   CredentialStore
	listeners []func(Event)
}

// NewStore creates a store backed by the given credential persistence.
func NewStore(persist CredentialStore) *Store {
	return &Store{persist: persist}
}

// OnEvent registers a listener for session transitions. Listeners are
// invoked synchronously after the transition has been applied.
func (s *Store) OnEvent(fn func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Login stores the token, marks the session valid and persists it.
func (s *Store) Login(token, phone string) error {
	s.mu.Lock()
	s.session = Session{Token: token, Phone: phone, Valid: true}
	err := s.persist.Save(Credentials{Token: token, Phone: phone})
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.emit(EventLogin)
	return nil
}

// Logout clears the token and the persisted value.
func (s *Store) Logout() error {
	if err := s.invalidate(); err != nil {
		return err
	}
	s.emit(EventLogout)
	return nil
}

// MarkExpired is the auth-expiry signal: same transition as Logout but
// published as a distinct event so callers can route to re-authentication
// instead of a generic idle screen. Invoking it on an already-invalid
// session is a no-op.
func (s *Store) MarkExpired() {
	s.mu.Lock()
	if !s.session.Valid {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := s.invalidate(); err != nil {
		// The in-memory session is already invalid; a failed file removal
		// must not suppress the expiry event.
		_ = err
	}
	s.emit(EventExpired)
}

// Restore reconstructs the session from persisted storage. A token whose
// exp claim already passed restores as an invalid session.
func (s *Store) Restore() (Session, error) {
	cred, err := s.persist.Load()
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cred.Token == "" || tokenExpired(cred.Token, time.Now()) {
		s.session = Session{Phone: cred.Phone}
		return s.session, nil
	}

	s.session = Session{Token: cred.Token, Phone: cred.Phone, Valid: true}
	return s.session, nil
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Token returns the current token and whether the session is valid.
// This is the lookup the request client performs before every
// authenticated call.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token, s.session.Valid
}

func (s *Store) invalidate() error {
	s.mu.Lock()
	phone := s.session.Phone
	s.session = Session{Phone: phone}
	err := s.persist.Clear()
	s.mu.Unlock()
	return err
}

func (s *Store) emit(ev Event) {
	s.mu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// tokenExpired peeks at the exp claim without verifying the signature;
// the client holds no signing secret. A token that cannot be decoded at
// all is treated as expired.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		// No exp claim: leave validity to the server.
		return false
	}
	return exp.Before(now)
}
