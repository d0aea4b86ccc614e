package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/http"
	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/service"
	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/store"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/cryptox"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/jwtx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/slogx"
)

const (
	BuildVersion = "v0.1.0"
)

// Application is the mock portfolio backend with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store *store.Store

	authService         *service.AuthService
	recordService       *service.RecordService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application with the seed account (and, optionally,
// sample records) already in place.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "folio-mock",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		store: store.New(httpapi.CollectionNames()...),
	}

	if err := app.initServices(); err != nil {
		return nil, err
	}
	if err := app.seed(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed handler, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("mock backend starting", "addr", app.cfg.Addr, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down mock backend...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	app.logger.Info("mock backend stopped")
	return nil
}

func (app *Application) initServices() error {
	secret := []byte(app.cfg.JWTSecret)
	if len(secret) == 0 {
		tok, err := cryptox.GenerateToken(jwtx.MinSecretSize)
		if err != nil {
			return fmt.Errorf("failed to generate signing secret: %w", err)
		}
		secret = []byte(tok)
		app.logger.Warn("MOCK_JWT_SECRET not set, tokens will not survive a restart")
	}

	tokens, err := jwtx.NewHS256(secret, app.cfg.Issuer, time.Now)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	app.authService = &service.AuthService{
		Store:      app.store,
		Tokens:     tokens,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.recordService = &service.RecordService{Store: app.store}
	app.housekeepingService = service.NewHousekeepingService(
		app.store,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) seed() error {
	if _, err := app.authService.Register(app.cfg.Email, app.cfg.Password); err != nil {
		return fmt.Errorf("failed to seed account: %w", err)
	}
	app.logger.Info("seed account ready", "email", app.cfg.Email)

	if !app.cfg.Seed {
		return nil
	}
	for collection, records := range sampleRecords {
		for _, rec := range records {
			if _, err := app.recordService.Create(collection, rec); err != nil {
				return fmt.Errorf("failed to seed %s: %w", collection, err)
			}
		}
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.authService, app.recordService, BuildVersion, app.logger)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
