package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"torresegura/internal/menu"
	"torresegura/internal/models"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// Authenticator is the part of the backend client the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.Session, error)
	RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error)
}

type LoginResult struct {
	Session models.Session
	Landing string
}

// Manager owns the current session. It is the only writer of the
// persisted session and the token source for authenticated calls.
type Manager struct {
	store  *Store
	auth   Authenticator
	logger *slog.Logger

	mu      sync.RWMutex
	current models.Session
}

func NewManager(store *Store, auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{store: store, auth: auth, logger: logger}
}

// Bootstrap restores the persisted session, if any. The token is not
// checked against the backend here; the first authenticated call that
// fails is what reveals an expired one.
func (m *Manager) Bootstrap(ctx context.Context) (models.Session, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return models.Session{}, err
	}
	m.set(sess)
	if sess.Empty() {
		m.logger.Debug("no stored session")
	} else {
		m.logger.Debug("session restored", "username", sess.User.Username, "role", sess.User.RoleName())
	}
	return sess, nil
}

// Login exchanges credentials for a session and persists it. On any
// failure the current session is left untouched and the backend's
// message is returned as-is.
func (m *Manager) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	sess, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return LoginResult{}, err
	}
	m.set(sess)
	m.logger.Info("logged in", "username", sess.User.Username, "role", sess.User.RoleName())

	return LoginResult{Session: sess, Landing: menu.Landing(sess.User.RoleName())}, nil
}

// Refresh swaps the access token using the stored refresh token.
func (m *Manager) Refresh(ctx context.Context) (models.Session, error) {
	sess := m.Current()
	if sess.Empty() {
		return models.Session{}, ErrNotLoggedIn
	}
	if sess.RefreshToken == "" {
		return models.Session{}, fmt.Errorf("refresh: %w", ErrNotLoggedIn)
	}
	pair, err := m.auth.RefreshToken(ctx, sess.RefreshToken)
	if err != nil {
		return models.Session{}, err
	}
	sess.Token = pair.Access
	sess.RefreshToken = pair.Refresh
	if err := m.store.Save(ctx, sess); err != nil {
		return models.Session{}, err
	}
	m.set(sess)
	return sess, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.set(models.Session{})
	m.logger.Info("logged out")
	return nil
}

// Expire drops a session the backend no longer accepts.
func (m *Manager) Expire(ctx context.Context) error {
	m.logger.Warn("session expired", "username", m.Current().User.Username)
	return m.Logout(ctx)
}

func (m *Manager) Current() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Token implements apiclient.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

func (m *Manager) set(sess models.Session) {
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
}
