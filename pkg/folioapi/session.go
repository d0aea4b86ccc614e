package folioapi

import (
	"context"
	"log/slog"
	"sync"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/eventx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/tokenstore"
	"github.com/go-playground/validator/v10"
)

// Session owns the client's login state.
//
// The in-memory token pair is the source of truth for Authed and
// AccessToken; every change is written through to the Store. Store failures
// are logged and otherwise ignored. Transitions (Login, Logout, Refresh,
// Initialize) are serialised, and each one publishes exactly one
// eventx.TopicAuthChanged event after its locks are released. Events are
// queued while opMu is held, so subscribers see them in transition order.
type Session struct {
	auth     *Client
	store    tokenstore.Store
	bus      *eventx.Bus
	logger   *slog.Logger
	validate *validator.Validate

	// opMu serialises transitions, including their network round trips.
	opMu sync.Mutex

	mu   sync.RWMutex
	pair tokenstore.TokenPair

	// pending holds auth events in commit order until flush delivers them.
	queueMu  sync.Mutex
	pending  []bool
	draining bool
}

// NewSession creates an unauthenticated session. auth must point at the
// auth service; bus and logger may be nil.
func NewSession(auth *Client, store tokenstore.Store, bus *eventx.Bus, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = tokenstore.NewMemory()
	}
	return &Session{
		auth:     auth,
		store:    store,
		bus:      bus,
		logger:   logger.With(slog.String("component", "session")),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Authed reports whether an access token is held.
func (s *Session) Authed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.HasAccess()
}

// AccessToken returns the current access token, or "" when unauthenticated.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.Access
}

// Tokens returns a copy of the current pair.
func (s *Session) Tokens() tokenstore.TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

// Load restores the stored pair without contacting the server and without
// publishing. Use Initialize to also verify it.
func (s *Session) Load(ctx context.Context) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	pair := s.readStore(ctx)

	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()

	return pair.HasAccess()
}

// Login exchanges credentials for a token pair. On success the new pair
// replaces the old one entirely. On any failure it returns false and the
// session is left as it was.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	creds := Credentials{Email: email, Password: password}
	if err := s.validate.Struct(creds); err != nil {
		s.logger.WarnContext(ctx, "login rejected locally", slog.Any("err", err))
		return false
	}

	s.opMu.Lock()
	resp, err := s.auth.LoginRequest(ctx, creds)
	if err != nil {
		s.opMu.Unlock()
		s.logger.WarnContext(ctx, "login failed", slog.Any("err", err))
		return false
	}
	if resp.AccessToken == "" {
		s.opMu.Unlock()
		s.logger.WarnContext(ctx, "login response has no access token")
		return false
	}

	s.commit(ctx, tokenstore.TokenPair{Access: resp.AccessToken, Refresh: resp.RefreshToken})
	s.enqueue(true)
	s.opMu.Unlock()

	s.logger.InfoContext(ctx, "logged in")
	s.flush()
	return true
}

// Logout notifies the server when a token is held, then clears the pair
// regardless of the outcome. It is idempotent.
func (s *Session) Logout(ctx context.Context) {
	s.opMu.Lock()
	if token := s.AccessToken(); token != "" {
		if err := s.auth.LogoutRequest(ctx, token); err != nil {
			s.logger.WarnContext(ctx, "server logout failed", slog.Any("err", err))
		}
	}
	s.commit(ctx, tokenstore.TokenPair{})
	s.enqueue(false)
	s.opMu.Unlock()

	s.flush()
}

// ValidateToken reports whether the server accepts token. Network failures
// and empty tokens count as invalid.
func (s *Session) ValidateToken(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	if err := s.auth.ValidateRequest(ctx, token); err != nil {
		s.logger.DebugContext(ctx, "token rejected", slog.Any("err", err))
		return false
	}
	return true
}

// Refresh exchanges the stored refresh token for a new access token. It
// fails without a request when no refresh token is held, and leaves the
// session untouched on any failure.
func (s *Session) Refresh(ctx context.Context) bool {
	s.opMu.Lock()
	ok := s.refreshLocked(ctx)
	if ok {
		s.enqueue(true)
	}
	s.opMu.Unlock()

	s.flush()
	return ok
}

// Initialize restores the stored pair and settles it against the server:
// validate the access token, else refresh, else clear. It returns the final
// authenticated state and publishes it once.
func (s *Session) Initialize(ctx context.Context) bool {
	s.opMu.Lock()

	pair := s.readStore(ctx)
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()

	authed := false
	switch {
	case s.ValidateToken(ctx, pair.Access):
		authed = true
	case s.refreshLocked(ctx):
		authed = true
	default:
		s.commit(ctx, tokenstore.TokenPair{})
	}
	s.enqueue(authed)
	s.opMu.Unlock()

	s.logger.DebugContext(ctx, "session initialised", slog.Bool("authed", authed))
	s.flush()
	return authed
}

// CurrentUser returns the account behind the current access token.
func (s *Session) CurrentUser(ctx context.Context) (*User, error) {
	token := s.AccessToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return s.auth.UserRequest(ctx, token)
}

// refreshLocked must be called with opMu held.
func (s *Session) refreshLocked(ctx context.Context) bool {
	current := s.Tokens()
	if current.Refresh == "" {
		return false
	}

	resp, err := s.auth.RefreshRequest(ctx, current.Refresh)
	if err != nil {
		s.logger.WarnContext(ctx, "token refresh failed", slog.Any("err", err))
		return false
	}
	if resp.AccessToken == "" {
		s.logger.WarnContext(ctx, "refresh response has no access token")
		return false
	}

	next := tokenstore.TokenPair{Access: resp.AccessToken, Refresh: current.Refresh}
	if resp.RefreshToken != "" {
		next.Refresh = resp.RefreshToken
	}
	s.commit(ctx, next)
	return true
}

// commit replaces the in-memory pair and writes it through to the store
// while holding mu, so store writes are sequential.
func (s *Session) commit(ctx context.Context, pair tokenstore.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = pair

	if !pair.HasAccess() && pair.Refresh == "" {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.WarnContext(ctx, "token store clear failed", slog.Any("err", err))
		}
		return
	}
	if err := s.store.SetAccess(ctx, pair.Access); err != nil {
		s.logger.WarnContext(ctx, "token store write failed", slog.String("key", tokenstore.KeyAccess), slog.Any("err", err))
	}
	if err := s.store.SetRefresh(ctx, pair.Refresh); err != nil {
		s.logger.WarnContext(ctx, "token store write failed", slog.String("key", tokenstore.KeyRefresh), slog.Any("err", err))
	}
}

func (s *Session) readStore(ctx context.Context) tokenstore.TokenPair {
	pair, err := s.store.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "token store read failed", slog.Any("err", err))
		return tokenstore.TokenPair{}
	}
	return pair
}

// enqueue must be called with opMu held.
func (s *Session) enqueue(authed bool) {
	s.queueMu.Lock()
	s.pending = append(s.pending, authed)
	s.queueMu.Unlock()
}

// flush delivers queued events in order. Only one goroutine drains at a
// time; a flush that finds another drainer, including a handler that
// publishes re-entrantly, leaves its event to that drainer.
func (s *Session) flush() {
	s.queueMu.Lock()
	if s.draining {
		s.queueMu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		authed := s.pending[0]
		s.pending = s.pending[1:]
		s.queueMu.Unlock()

		s.publish(authed)

		s.queueMu.Lock()
	}
	s.draining = false
	s.queueMu.Unlock()
}

func (s *Session) publish(authed bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventx.Event{Topic: eventx.TopicAuthChanged, Authed: authed})
}
