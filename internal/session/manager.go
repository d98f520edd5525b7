package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"schoolpay/internal/rbac"
)

// Manager is the single source of truth for who is signed in and with what rights.
// It is constructed once by the application root and injected wherever the session is needed.
//
// Invariants:
// - the state is only changed through the methods below
// - every change is mirrored to the Store in the order it happened; memory stays
//   authoritative when a save fails
type Manager struct {
	store       Store
	log         *slog.Logger
	saveTimeout time.Duration

	mu    sync.RWMutex
	state State
	seq   uint64

	saveMu   sync.Mutex
	savedSeq uint64
}

type Option func(*Manager)

func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithSaveTimeout bounds each persistence write.
func WithSaveTimeout(d time.Duration) Option {
	return func(m *Manager) { m.saveTimeout = d }
}

// NewManager returns a signed-out manager. Without WithStore the snapshot lives in memory only.
func NewManager(opts ...Option) *Manager {
	m := &Manager{saveTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Restore rehydrates the session from the store.
// A missing snapshot leaves the manager signed out and is not an error.
// A snapshot that fails validation is replaced by the signed-out snapshot and
// an error wrapping ErrInvalidSnapshot is returned; the manager is usable either way.
func (m *Manager) Restore(ctx context.Context) error {
	raw, err := m.store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: load snapshot: %w", err)
	}

	st, err := decodeSnapshot(raw)
	if err != nil {
		m.log.Warn("session snapshot rejected, starting signed out", "err", err)
		m.Clear()
		return err
	}

	m.mu.Lock()
	m.state = st
	m.mu.Unlock()

	m.log.Debug("session restored", "authenticated", st.IsAuthenticated(), "must_change_password", st.MustChangePassword)
	return nil
}

// SetUser replaces the current user. The shape of u is not validated here.
func (m *Manager) SetUser(u User) {
	u = u.clone()
	m.mutate("set_user", func(s *State) {
		s.User = &u
	})
}

// SetCredentials replaces both credentials. Without a user the session stays unauthenticated.
func (m *Manager) SetCredentials(access, refresh string) {
	m.mutate("set_credentials", func(s *State) {
		s.AccessToken = access
		s.RefreshToken = refresh
	})
}

// RotateCredentials replaces both credentials only while the refresh credential is
// still prev. It reports whether the swap happened; a session that was signed out or
// replaced in the meantime is left untouched.
func (m *Manager) RotateCredentials(prev, access, refresh string) bool {
	return m.mutateIf("rotate_credentials", func(s *State) bool {
		if prev == "" || s.RefreshToken != prev {
			return false
		}
		s.AccessToken = access
		s.RefreshToken = refresh
		return true
	})
}

func (m *Manager) SetMustChangePassword(flag bool) {
	m.mutate("set_must_change_password", func(s *State) {
		s.MustChangePassword = flag
	})
}

// Establish applies a login result in one step so that no reader observes
// credentials without an identity.
func (m *Manager) Establish(u User, access, refresh string, mustChangePassword bool) {
	u = u.clone()
	m.mutate("establish", func(s *State) {
		*s = State{
			User:               &u,
			AccessToken:        access,
			RefreshToken:       refresh,
			MustChangePassword: mustChangePassword,
		}
	})
}

// Logout is the user-initiated sign-out.
func (m *Manager) Logout() {
	m.mutate("logout", func(s *State) { *s = State{} })
}

// Clear has the same effect as Logout; it is called from failure paths.
func (m *Manager) Clear() {
	m.mutate("clear", func(s *State) { *s = State{} })
}

// State returns a deep copy of the current session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// User returns a copy of the current user.
func (m *Manager) User() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.User == nil {
		return User{}, false
	}
	return m.state.User.clone(), true
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsAuthenticated()
}

func (m *Manager) MustChangePassword() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.MustChangePassword
}

func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.AccessToken
}

func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.RefreshToken
}

// Credentials returns both credentials from the same state, so a concurrent
// rotation is never observed half-applied.
func (m *Manager) Credentials() (access, refresh string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.AccessToken, m.state.RefreshToken
}

func (m *Manager) HasPermission(p rbac.Permission) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.HasPermission(p)
}

func (m *Manager) HasAnyPermission(ps ...rbac.Permission) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.HasAnyPermission(ps...)
}

func (m *Manager) HasAllPermissions(ps ...rbac.Permission) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.HasAllPermissions(ps...)
}

func (m *Manager) IsSuperAdmin() bool  { return m.State().IsSuperAdmin() }
func (m *Manager) IsSchoolAdmin() bool { return m.State().IsSchoolAdmin() }
func (m *Manager) IsTeacher() bool     { return m.State().IsTeacher() }
func (m *Manager) IsHousemaster() bool { return m.State().IsHousemaster() }

func (m *Manager) mutate(op string, fn func(*State)) {
	m.mutateIf(op, func(s *State) bool {
		fn(s)
		return true
	})
}

// mutateIf applies fn and persists the result only when fn reports a change.
func (m *Manager) mutateIf(op string, fn func(*State) bool) bool {
	m.mu.Lock()
	if !fn(&m.state) {
		m.mu.Unlock()
		return false
	}
	m.seq++
	seq := m.seq
	payload, err := encodeSnapshot(m.state)
	m.mu.Unlock()

	if err != nil {
		m.log.Error("session snapshot encode failed", "op", op, "err", err)
		return true
	}
	m.persist(op, seq, payload)
	return true
}

// persist writes snapshots in mutation order; a snapshot older than the last
// one written is dropped.
func (m *Manager) persist(op string, seq uint64, payload []byte) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	if seq <= m.savedSeq {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.saveTimeout)
	defer cancel()

	if err := m.store.Save(ctx, payload); err != nil {
		m.log.Warn("session persist failed", "op", op, "err", err)
		return
	}
	m.savedSeq = seq
}
