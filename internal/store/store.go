package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Keys used on the device. Values are JSON documents with no schema
// version.
const (
	KeyUser          = "user"
	KeyToken         = "token"
	KeyAccessToken   = "accessToken"
	KeyRefreshToken  = "refreshToken"
	KeyNotifications = "notifications"
)

var ErrNotFound = errors.New("key not found")

// KV is the device key-value storage. Writes are last-write-wins.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes every pair atomically.
	SetMany(ctx context.Context, values map[string][]byte) error
	// Delete removes the keys atomically. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value stored under key into dst.
func GetJSON(ctx context.Context, kv KV, key string, dst any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, raw)
}
