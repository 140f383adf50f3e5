// Package server wires the gatekeeper components together and runs the HTTP
// API until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/credentials"
	"github.com/dmitrijs2005/gatekeeper/internal/server/hasher"
	"github.com/dmitrijs2005/gatekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/dmitrijs2005/gatekeeper/internal/server/sessions"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.HTTPServer
}

// NewApp opens and migrates the credential store and builds the HTTP server
// around the configured auth strategy.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewJSONLogger(os.Stdout, c.LogLevel)
	}

	store, db, err := OpenStore(ctx, c)
	if err != nil {
		return nil, err
	}

	h, err := hasher.New(c.HashAlgorithm, c.BcryptCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := sessions.NewRegistry()

	strategy, err := newStrategy(c, store, h, registry, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	srv := httpapi.NewHTTPServer(httpapi.Options{
		Address:       c.HTTPAddr,
		Strategy:      strategy,
		Identities:    services.NewIdentityService(store, h, logger),
		ExcludedPaths: c.ExcludedPaths,
		CookieName:    c.SessionCookieName,
		Logger:        logger,
	})

	return &App{config: c, logger: logger, db: db, httpServer: srv}, nil
}

// OpenStore opens and migrates the configured database and returns the
// credential store over it. The caller closes db.
func OpenStore(ctx context.Context, c *config.Config) (*credentials.Store, *sql.DB, error) {
	m, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := repomanager.Open(ctx, m, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return credentials.NewStore(db, m), db, nil
}

// newStrategy returns nil when AuthType is empty, which leaves every route open.
func newStrategy(c *config.Config, store *credentials.Store, h hasher.Hasher, registry *sessions.Registry, logger logging.Logger) (auth.Strategy, error) {
	if c.AuthType == "" {
		return nil, nil
	}
	kind, err := auth.ParseKind(c.AuthType)
	if err != nil {
		return nil, err
	}
	return auth.New(auth.Settings{
		Kind:            kind,
		CookieName:      c.SessionCookieName,
		SessionDuration: c.SessionDuration,
	}, store, h, registry, logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "auth_type", app.config.AuthType, "address", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
