package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"torresegura/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "device.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "user"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Set(ctx, "token", []byte(`"a"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "token", []byte(`"b"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "token")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `"b"` {
		t.Fatalf("Get=%s, want last write", got)
	}
}

func TestSetManyAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.SetMany(ctx, map[string][]byte{
		store.KeyUser:        []byte(`{"username":"ana"}`),
		store.KeyAccessToken: []byte(`"tok"`),
	})
	if err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != store.KeyAccessToken || keys[1] != store.KeyUser {
		t.Fatalf("Keys=%v", keys)
	}

	if err := s.Delete(ctx, store.KeyUser, store.KeyAccessToken, "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	keys, err = s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty store, got %v", keys)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.SetJSON(ctx, first, store.KeyNotifications, []string{"hola"}); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	var got []string
	if err := store.GetJSON(ctx, second, store.KeyNotifications, &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(got) != 1 || got[0] != "hola" {
		t.Fatalf("got %v", got)
	}
}
