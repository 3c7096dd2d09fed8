// Package app wires configuration, storage, the edit manager and the HTTP
// server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhpenta/mifoto"
	"github.com/mhpenta/mifoto/credential"
	"github.com/mhpenta/mifoto/internal/config"
	"github.com/mhpenta/mifoto/internal/httpapi"
	"github.com/mhpenta/mifoto/kvstore"
	"github.com/mhpenta/mifoto/provider/gemini"
	"github.com/mhpenta/mifoto/quota"
	"github.com/mhpenta/mifoto/session"
)

// App is the configured mifoto server.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	// store holds durable per-browser values; sessionStore holds keys when
	// credentials are session scoped
	store        kvstore.Store
	sessionStore kvstore.Store

	manager  *mifoto.Manager
	sessions *session.Registry
	server   *http.Server
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	editor mifoto.ImageEditor
	store  kvstore.Store
}

// WithEditor replaces the Gemini editor, e.g. with a fake in tests.
func WithEditor(editor mifoto.ImageEditor) Option {
	return func(o *appOptions) {
		o.editor = editor
	}
}

// WithStore replaces the configured durable store.
func WithStore(store kvstore.Store) Option {
	return func(o *appOptions) {
		o.store = store
	}
}

// New wires an App from cfg. The editor and store can be replaced with options.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.editor == nil {
		var editorOpts []gemini.Option
		if cfg.GeminiBaseURL != "" {
			editorOpts = append(editorOpts, gemini.WithBaseURL(cfg.GeminiBaseURL))
		}
		o.editor = gemini.New(editorOpts...)
	}

	managerOpts := []mifoto.ManagerOption{
		mifoto.WithLogger(logger),
		mifoto.WithRequestsPerMinute(cfg.RequestsPerMinute),
	}
	if cfg.Model != "" {
		managerOpts = append(managerOpts, mifoto.WithDefaultModel(mifoto.Model(cfg.Model)))
	}
	manager := mifoto.NewManager(o.editor, managerOpts...)
	if _, ok := manager.GetModelInfo(manager.DefaultModel()); !ok {
		return nil, fmt.Errorf("%w: %s", mifoto.ErrModelNotRegistered, manager.DefaultModel())
	}

	store := o.store
	if store == nil {
		var err error
		store, err = OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	a := &App{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		sessionStore: kvstore.NewMemory(cfg.SessionTTL),
		manager:      manager,
	}
	a.sessions = session.NewRegistry(cfg.SessionTTL, func(browserID string) *session.Session {
		return a.NewSession(browserID)
	})
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(a.sessions, logger, cfg.MaxUploadBytes),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Edits are not cancelled and may take a while
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// OpenStore opens the durable store named by the config.
func OpenStore(ctx context.Context, cfg config.Config) (kvstore.Store, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		return kvstore.NewSQLite(cfg.DBPath)
	case config.StorageRedis:
		return kvstore.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.StorageMemory:
		return kvstore.NewMemory(0), nil
	default:
		return nil, fmt.Errorf("%w: storage %q", config.ErrInvalidConfig, cfg.Storage)
	}
}

// NewSession builds the workflow for one browser over its own slice of the
// stores.
func (a *App) NewSession(browserID string, opts ...session.Option) *session.Session {
	logger := a.logger.With("browser_id", browserID)
	scoped := kvstore.Scoped(a.store, browserID)

	credStore := scoped
	if a.cfg.CredentialScope == config.ScopeSession {
		credStore = kvstore.Scoped(a.sessionStore, browserID)
	}

	resolverOpts := []credential.Option{
		credential.WithProvisionedKey(a.cfg.GeminiAPIKey),
		credential.WithLogger(logger),
	}
	if a.cfg.HostKey {
		resolverOpts = append(resolverOpts, credential.WithHostSelector(credential.NewEnvHostSelector()))
	}

	return session.New(a.manager,
		credential.NewResolver(credStore, resolverOpts...),
		quota.NewTracker(scoped, quota.WithLimit(a.cfg.DailyTokenLimit), quota.WithLogger(logger)),
		append([]session.Option{session.WithLogger(logger)}, opts...)...,
	)
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Manager returns the edit manager.
func (a *App) Manager() *mifoto.Manager {
	return a.manager
}

// Run serves HTTP until ctx is done or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.logger.Info("mifoto listening",
		"addr", a.server.Addr,
		"storage", a.cfg.Storage,
		"default_model", string(a.manager.DefaultModel()),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// Close releases the stores and the editor.
func (a *App) Close() error {
	return errors.Join(
		a.manager.Close(),
		a.sessionStore.Close(),
		a.store.Close(),
	)
}

// NewLogger builds the process logger from the config.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
