package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"torresegura/internal/apiclient"
	"torresegura/internal/cli"
	"torresegura/internal/community"
	"torresegura/internal/config"
	"torresegura/internal/menu"
	"torresegura/internal/notifications"
	"torresegura/internal/session"
	"torresegura/internal/store"
	"torresegura/internal/store/sqlite"
)

// app holds what every command needs. Storage and the backend client
// are opened on first use so that help output works without either.
type app struct {
	ctx       context.Context
	cfg       config.Config
	out       io.Writer
	prompt    *cli.Prompter
	logger    *slog.Logger
	transport http.RoundTripper
	openKV    func(path string) (store.KV, io.Closer, error)

	kv      store.KV
	closer  io.Closer
	manager *session.Manager
	client  *apiclient.Client
	notes   *notifications.Log
}

func openSQLite(path string) (store.KV, io.Closer, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

func (a *app) init() error {
	if a.manager != nil {
		return nil
	}
	kv, closer, err := a.openKV(a.cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open device storage: %w", err)
	}
	a.kv, a.closer = kv, closer

	anon := apiclient.New(apiclient.Options{
		BaseURL:   a.cfg.APIBase,
		Timeout:   a.cfg.RequestTimeout,
		Transport: a.transport,
		Logger:    a.logger,
	})
	a.manager = session.NewManager(session.NewStore(kv, a.logger), anon, a.logger)
	if _, err := a.manager.Bootstrap(a.ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	a.client = anon.WithTokens(a.manager)
	a.notes = notifications.New(kv)
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *app) community() *community.Service {
	return community.NewService(a.client, a.notes, a.logger)
}

func (a *app) qrDir() string {
	return filepath.Join(filepath.Dir(a.cfg.StoragePath), "qr")
}

// requireFeature opens the app and checks that a user is logged in and
// that their role's menu offers feature.
func (a *app) requireFeature(feature string) error {
	if err := a.init(); err != nil {
		return err
	}
	sess := a.manager.Current()
	if sess.Empty() {
		return fmt.Errorf("%w; run 'torre-segura login'", session.ErrNotLoggedIn)
	}
	if feature != "" && !menu.Allows(sess.User.RoleName(), feature) {
		return fmt.Errorf("role %q has no access to %s", sess.User.RoleName(), feature)
	}
	return nil
}

// check clears the session when the backend refused the token.
func (a *app) check(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apiclient.ErrTokenInvalid) || errors.Is(err, apiclient.ErrNoSession) {
		if expireErr := a.manager.Expire(a.ctx); expireErr != nil {
			a.logger.Warn("could not clear expired session", "error", expireErr)
		}
		return fmt.Errorf("sesión expirada, inicie sesión nuevamente: %w", err)
	}
	return err
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *app) print(s string) {
	fmt.Fprint(a.out, s)
}
