package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"torresegura/internal/models"
	"torresegura/internal/store"
)

// Log is the device-local notification history. Entries are never
// deduplicated or pruned and nothing is sent to the backend.
type Log struct {
	kv  store.KV
	now func() time.Time

	mu sync.Mutex
}

type Option func(*Log)

func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

func New(kv store.KV, opts ...Option) *Log {
	l := &Log{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Log) Append(ctx context.Context, message string) (models.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.Notification{}, errors.New("notification message is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.list(ctx)
	if err != nil {
		return models.Notification{}, err
	}
	n := models.Notification{Message: message, Date: l.now().UTC()}
	items = append(items, n)
	if err := store.SetJSON(ctx, l.kv, store.KeyNotifications, items); err != nil {
		return models.Notification{}, fmt.Errorf("append notification: %w", err)
	}
	return n, nil
}

// List returns notifications oldest first.
func (l *Log) List(ctx context.Context) ([]models.Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list(ctx)
}

func (l *Log) list(ctx context.Context) ([]models.Notification, error) {
	var items []models.Notification
	err := store.GetJSON(ctx, l.kv, store.KeyNotifications, &items)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	return items, nil
}

func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.kv.Delete(ctx, store.KeyNotifications)
}
