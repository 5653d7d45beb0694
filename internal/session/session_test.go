package session

import (
	"context"
	"errors"
	"testing"

	"torresegura/internal/menu"
	"torresegura/internal/models"
	"torresegura/internal/store"
	"torresegura/internal/store/memory"
)

type fakeAuth struct {
	loginFn   func(ctx context.Context, username, password string) (models.Session, error)
	refreshFn func(ctx context.Context, refresh string) (models.TokenPair, error)
}

func (f fakeAuth) Login(ctx context.Context, username, password string) (models.Session, error) {
	if f.loginFn == nil {
		return models.Session{}, errors.New("unexpected login")
	}
	return f.loginFn(ctx, username, password)
}

func (f fakeAuth) RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error) {
	if f.refreshFn == nil {
		return models.TokenPair{}, errors.New("unexpected refresh")
	}
	return f.refreshFn(ctx, refresh)
}

func TestBootstrapWithoutStoredSession(t *testing.T) {
	m := NewManager(NewStore(memory.New(), nil), fakeAuth{}, nil)
	sess, err := m.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !sess.Empty() || m.Token() != "" {
		t.Fatalf("expected empty session, got %+v", sess)
	}
}

func TestBootstrapDropsUserWithoutToken(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	_ = kv.Set(ctx, store.KeyUser, []byte(`{"username":"ana","role":"Residente"}`))

	m := NewManager(NewStore(kv, nil), fakeAuth{}, nil)
	sess, err := m.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !sess.Empty() {
		t.Fatalf("expected empty session, got %+v", sess)
	}
	if _, err := kv.Get(ctx, store.KeyUser); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("partial user should be cleared, got %v", err)
	}
}

func TestBootstrapDropsTokenWithoutUser(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	_ = kv.Set(ctx, store.KeyAccessToken, []byte("orphan"))

	sess, err := NewStore(kv, nil).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !sess.Empty() {
		t.Fatalf("expected empty session, got %+v", sess)
	}
	if _, err := kv.Get(ctx, store.KeyAccessToken); !errors.Is(err, store.ErrNotFound) {
		t.Fatal("orphan token should be cleared")
	}
}

func TestBootstrapReadsLegacyTokenKey(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	_ = kv.Set(ctx, store.KeyUser, []byte(`{"username":"ana","rol":{"nombre":"Residente"}}`))
	_ = kv.Set(ctx, store.KeyToken, []byte(`"legacy-token"`))

	sess, err := NewStore(kv, nil).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.Token != "legacy-token" || sess.User.RoleName() != "Residente" {
		t.Fatalf("session=%+v", sess)
	}
}

func TestLoginPersistsAndRoutesByRole(t *testing.T) {
	kv := memory.New()
	var gotUsername string
	auth := fakeAuth{loginFn: func(ctx context.Context, username, password string) (models.Session, error) {
		gotUsername = username
		return models.Session{
			User:         models.User{Username: username, Rol: &models.RoleInfo{Nombre: "Vigilante"}},
			Token:        "acc",
			RefreshToken: "ref",
		}, nil
	}}
	m := NewManager(NewStore(kv, nil), auth, nil)

	result, err := m.Login(context.Background(), "  Guardia1 ", " pw ")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotUsername != "guardia1" {
		t.Fatalf("username not normalized: %q", gotUsername)
	}
	if result.Landing != menu.LandingVisitors {
		t.Fatalf("landing=%q", result.Landing)
	}

	restored, err := NewManager(NewStore(kv, nil), fakeAuth{}, nil).Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if restored.Token != "acc" || restored.RefreshToken != "ref" || restored.User.Username != "guardia1" {
		t.Fatalf("restored=%+v", restored)
	}
}

func TestLoginFailureLeavesSessionUnchanged(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	st := NewStore(kv, nil)
	_ = st.Save(ctx, models.Session{User: models.User{Username: "ana", Role: "Residente"}, Token: "old"})

	backendErr := errors.New("Credenciales inválidas")
	m := NewManager(st, fakeAuth{loginFn: func(ctx context.Context, username, password string) (models.Session, error) {
		return models.Session{}, backendErr
	}}, nil)
	if _, err := m.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	_, err := m.Login(ctx, "otro", "pw")
	if !errors.Is(err, backendErr) || err.Error() != "Credenciales inválidas" {
		t.Fatalf("expected verbatim backend error, got %v", err)
	}
	if m.Token() != "old" {
		t.Fatalf("session changed on failure: %q", m.Token())
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	m := NewManager(NewStore(memory.New(), nil), fakeAuth{}, nil)
	if _, err := m.Login(context.Background(), " ", "pw"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := m.Login(context.Background(), "ana", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	st := NewStore(kv, nil)
	_ = st.Save(ctx, models.Session{User: models.User{Username: "ana"}, Token: "t", RefreshToken: "r"})
	m := NewManager(st, fakeAuth{}, nil)
	_, _ = m.Bootstrap(ctx)

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if m.Token() != "" {
		t.Fatal("token still set after logout")
	}
	for _, key := range []string{store.KeyUser, store.KeyAccessToken, store.KeyRefreshToken} {
		if _, err := kv.Get(ctx, key); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("%s still stored", key)
		}
	}
}

func TestRefreshRotatesAccessToken(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	st := NewStore(kv, nil)
	_ = st.Save(ctx, models.Session{User: models.User{Username: "ana"}, Token: "old", RefreshToken: "r1"})
	m := NewManager(st, fakeAuth{refreshFn: func(ctx context.Context, refresh string) (models.TokenPair, error) {
		if refresh != "r1" {
			t.Fatalf("refresh=%q", refresh)
		}
		return models.TokenPair{Access: "new", Refresh: "r1"}, nil
	}}, nil)
	_, _ = m.Bootstrap(ctx)

	sess, err := m.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if sess.Token != "new" || m.Token() != "new" {
		t.Fatalf("token not rotated: %+v", sess)
	}
	stored, _ := st.Load(ctx)
	if stored.Token != "new" {
		t.Fatalf("stored token=%q", stored.Token)
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	m := NewManager(NewStore(memory.New(), nil), fakeAuth{}, nil)
	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}
