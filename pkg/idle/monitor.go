// Package idle logs the user out after a period without activity.
//
// A Monitor arms two timers while the session is authenticated: a warning
// at Timeout-WarningLead and an expiry at Timeout. Any tracked activity
// re-arms both from zero. When the session is not authenticated no timers
// are armed.
package idle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/eventx"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultTimeout     = 30 * time.Minute
	DefaultWarningLead = 5 * time.Minute
)

// Authenticator is the part of the session the monitor needs.
type Authenticator interface {
	Authed() bool
	Logout(ctx context.Context)
}

// Config tunes a Monitor. Zero fields take the defaults.
type Config struct {
	Timeout     time.Duration
	WarningLead time.Duration
	Clock       clockwork.Clock
	Logger      *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.WarningLead <= 0 {
		c.WarningLead = DefaultWarningLead
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Monitor owns one warning/expiry timer pair.
type Monitor struct {
	cfg  Config
	auth Authenticator
	bus  *eventx.Bus

	mu      sync.Mutex
	running bool
	gen     uint64 // bumped on every re-arm or disarm; stale firings compare against it
	warn    clockwork.Timer
	expire  clockwork.Timer
	stops   []func()
}

// New creates a stopped monitor. bus carries auth:changed in and
// session:warning / session:expired out.
func New(auth Authenticator, bus *eventx.Bus, cfg Config) *Monitor {
	cfg = cfg.withDefaults()
	cfg.Logger = cfg.Logger.With(slog.String("component", "idle"))
	return &Monitor{cfg: cfg, auth: auth, bus: bus}
}

// Start listens to every source and to auth changes, and arms the timers
// if the session is already authenticated. Starting twice is a no-op.
func (m *Monitor) Start(sources ...Source) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true

	for _, src := range sources {
		m.stops = append(m.stops, src.Listen(m.Track))
	}
	m.stops = append(m.stops, m.bus.Subscribe(eventx.TopicAuthChanged, m.onAuthChanged))

	if m.auth.Authed() {
		m.armLocked()
	}
	m.cfg.Logger.Debug("idle monitor started",
		slog.Duration("timeout", m.cfg.Timeout),
		slog.Duration("warning_lead", m.cfg.WarningLead))
}

// Stop removes every listener registered by Start and cancels both timers.
// It is safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stops := m.stops
	m.stops = nil
	m.running = false
	m.disarmLocked()
	m.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// Track records user activity. While authenticated it restarts both timers.
func (m *Monitor) Track(Activity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if !m.auth.Authed() {
		m.disarmLocked()
		return
	}
	m.armLocked()
}

// Armed reports whether the expiry timer is pending.
func (m *Monitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expire != nil
}

func (m *Monitor) onAuthChanged(e eventx.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if e.Authed {
		m.armLocked()
		return
	}
	m.disarmLocked()
}

func (m *Monitor) armLocked() {
	m.disarmLocked()
	gen := m.gen

	if lead := m.cfg.Timeout - m.cfg.WarningLead; lead > 0 {
		m.warn = m.cfg.Clock.AfterFunc(lead, func() { m.fireWarning(gen) })
	}
	m.expire = m.cfg.Clock.AfterFunc(m.cfg.Timeout, func() { m.fireExpiry(gen) })
}

func (m *Monitor) disarmLocked() {
	m.gen++
	if m.warn != nil {
		m.warn.Stop()
		m.warn = nil
	}
	if m.expire != nil {
		m.expire.Stop()
		m.expire = nil
	}
}

func (m *Monitor) fireWarning(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.warn = nil
	m.mu.Unlock()

	if !m.auth.Authed() {
		return
	}

	m.cfg.Logger.Info("session about to expire", slog.Duration("in", m.cfg.WarningLead))
	m.bus.Publish(eventx.Event{
		Topic:   eventx.TopicSessionWarning,
		Authed:  true,
		Message: fmt.Sprintf("Your session will expire in %s due to inactivity.", humanize(m.cfg.WarningLead)),
	})
}

// fireExpiry releases mu before logging out: Logout publishes auth:changed,
// which re-enters onAuthChanged.
func (m *Monitor) fireExpiry(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.disarmLocked()
	m.mu.Unlock()

	if !m.auth.Authed() {
		return
	}

	m.cfg.Logger.Info("session expired after inactivity", slog.Duration("timeout", m.cfg.Timeout))
	m.auth.Logout(context.Background())
	m.bus.Publish(eventx.Event{
		Topic:   eventx.TopicSessionExpired,
		Authed:  false,
		Message: "Your session has expired. Please log in again.",
	})
}

// humanize renders whole minutes as "5 minutes" and anything else as a
// time.Duration string.
func humanize(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
