package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"torresegura/internal/models"
	"torresegura/internal/store"
)

// storedUser is the JSON kept under the "user" key. The token travels
// with the profile so a single read restores both.
type storedUser struct {
	models.User
	Token string `json:"token,omitempty"`
}

var sessionKeys = []string{store.KeyUser, store.KeyToken, store.KeyAccessToken, store.KeyRefreshToken}

// Store persists the session on the device.
type Store struct {
	kv     store.KV
	logger *slog.Logger
}

func NewStore(kv store.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger}
}

// Load restores the persisted session. A missing or half-written
// session yields an empty one; leftovers of a half-written session are
// removed so user and token are either both present or both absent.
func (s *Store) Load(ctx context.Context) (models.Session, error) {
	var (
		sess    models.Session
		hasUser bool
	)

	raw, err := s.kv.Get(ctx, store.KeyUser)
	switch {
	case err == nil:
		var su storedUser
		if jsonErr := json.Unmarshal(raw, &su); jsonErr != nil || su.Username == "" {
			s.logger.Warn("discarding unreadable stored user", "error", jsonErr)
		} else {
			sess.User = su.User
			sess.Token = su.Token
			hasUser = true
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return models.Session{}, fmt.Errorf("load user: %w", err)
	}

	if sess.Token == "" {
		if sess.Token, err = s.readString(ctx, store.KeyAccessToken); err != nil {
			return models.Session{}, err
		}
	}
	if sess.Token == "" {
		if sess.Token, err = s.readString(ctx, store.KeyToken); err != nil {
			return models.Session{}, err
		}
	}
	if sess.RefreshToken, err = s.readString(ctx, store.KeyRefreshToken); err != nil {
		return models.Session{}, err
	}

	if !hasUser || sess.Token == "" {
		if hasUser || sess.Token != "" || sess.RefreshToken != "" {
			s.logger.Warn("clearing partial session", "has_user", hasUser, "has_token", sess.Token != "")
			if err := s.Clear(ctx); err != nil {
				return models.Session{}, err
			}
		}
		return models.Session{}, nil
	}
	return sess, nil
}

func (s *Store) readString(ctx context.Context, key string) (string, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	value := strings.TrimSpace(string(raw))
	// Values written as JSON strings are accepted as well as raw ones.
	var decoded string
	if json.Unmarshal([]byte(value), &decoded) == nil {
		value = decoded
	}
	return value, nil
}

// Save writes user and tokens in one transaction.
func (s *Store) Save(ctx context.Context, sess models.Session) error {
	if sess.Empty() {
		return errors.New("save session: user and token are required")
	}
	userJSON, err := json.Marshal(storedUser{User: sess.User, Token: sess.Token})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	values := map[string][]byte{
		store.KeyUser:        userJSON,
		store.KeyAccessToken: []byte(sess.Token),
	}
	if sess.RefreshToken != "" {
		values[store.KeyRefreshToken] = []byte(sess.RefreshToken)
	}
	if err := s.kv.SetMany(ctx, values); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	stale := []string{store.KeyToken}
	if sess.RefreshToken == "" {
		stale = append(stale, store.KeyRefreshToken)
	}
	if err := s.kv.Delete(ctx, stale...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes every session key.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
