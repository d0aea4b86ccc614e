package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/eventx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/folioapi"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/slogx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/tokenstore"
	redisstore "github.com/0tycat/Joelle-E-Portfolio/pkg/tokenstore/drivers/redis"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/tokenstore/drivers/sqlite"
)

const (
	BuildVersion = "v0.1.0"
)

// Application wires the session, resource modules and token store for one
// CLI invocation.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Clock drives the shell's inactivity monitor.
	Clock clockwork.Clock

	out         io.Writer
	interactive bool

	bus      *eventx.Bus
	store    tokenstore.Store
	session  *folioapi.Session
	api      *folioapi.API
	registry *prometheus.Registry
}

// New creates an Application. Storage failures are not fatal: the
// application falls back to an in-memory token store.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:      cfg,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Clock:    clockwork.NewRealClock(),
		bus:      eventx.New(),
		registry: prometheus.NewRegistry(),
	}
	app.logger = slogx.New(slogx.Config{
		Service: "folio",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	app.store = app.openStore(ctx)
	app.initClients()

	return app, nil
}

// Close releases the token store.
func (app *Application) Close() error {
	return app.store.Close()
}

func (app *Application) openStore(ctx context.Context) tokenstore.Store {
	cfg := app.cfg.Store

	switch cfg.Driver {
	case StoreMemory:
		return tokenstore.NewMemory()

	case StoreRedis:
		st, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			app.logger.Warn("token store unavailable, using memory", "driver", cfg.Driver, "err", err)
			return tokenstore.NewMemory()
		}
		return st

	default:
		path, err := sqlitePath(cfg.Path)
		if err == nil {
			var st *sqlite.Store
			if st, err = sqlite.Open(path); err == nil {
				return st
			}
		}
		app.logger.Warn("token store unavailable, using memory", "driver", cfg.Driver, "err", err)
		return tokenstore.NewMemory()
	}
}

func sqlitePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	dir = filepath.Join(dir, "folio")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "tokens.db"), nil
}

func (app *Application) initClients() {
	metrics := folioapi.NewMetrics(app.registry)
	httpClient := &http.Client{
		Transport: metrics.InstrumentTransport(&slogx.Transport{Logger: app.logger}),
	}

	auth := folioapi.NewClient(app.cfg.AuthURL, nil)
	auth.HTTPClient = httpClient

	app.session = folioapi.NewSession(auth, app.store, app.bus, app.logger)
	app.api = folioapi.NewAPI(app.cfg.ResourceTopology(), app.session, httpClient)
}

// lockedWriter serializes writes from the command loop and from event
// handlers running on timer goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
