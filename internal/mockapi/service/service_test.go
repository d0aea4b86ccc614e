package service_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/service"
	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/store"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newAuthService(t *testing.T) (*service.AuthService, *clock) {
	t.Helper()

	clk := &clock{now: time.Now()}
	tokens, err := jwtx.NewHS256([]byte(strings.Repeat("k", jwtx.MinSecretSize)), "folio-mock", clk.Now)
	require.NoError(t, err)

	svc := &service.AuthService{
		Store:      store.New(),
		Tokens:     tokens,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Now:        clk.Now,
	}
	_, err = svc.Register("admin@example.com", "changeme")
	require.NoError(t, err)
	return svc, clk
}

func TestAuthServiceLogin(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	ctx := context.Background()

	pair, acct, err := svc.Login(ctx, "admin@example.com", "changeme")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "admin@example.com", acct.Email)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, acct.ID.String(), claims.Subject)

	_, _, err = svc.Login(ctx, "admin@example.com", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "changeme")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Register("ADMIN@example.com", "x")
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	t.Parallel()

	svc, clk := newAuthService(t)
	ctx := context.Background()

	first, _, err := svc.Login(ctx, "admin@example.com", "changeme")
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = svc.Validate(first.AccessToken)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Validate(second.AccessToken)
	require.NoError(t, err)

	// The consumed token is gone.
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)

	clk.Advance(2 * time.Hour)
	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestAuthServiceLogoutRevokesRefresh(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, "admin@example.com", "changeme")
	require.NoError(t, err)

	require.Equal(t, 1, svc.Logout(ctx, pair.AccessToken))
	require.Zero(t, svc.Logout(ctx, "garbage"))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestRecordServiceAttachments(t *testing.T) {
	t.Parallel()

	svc := &service.RecordService{Store: store.New("e_portfolio", "education")}

	rec, err := svc.Create("e_portfolio", store.Record{"title": "Capstone"})
	require.NoError(t, err)
	id := rec["id"].(int64)

	rec, err = svc.AttachFiles("e_portfolio", id, []string{"a.pdf", "../b.pdf"})
	require.NoError(t, err)
	require.Equal(t, []string{"/uploads/e_portfolio/1/a.pdf", "/uploads/e_portfolio/1/b.pdf"}, rec[service.FieldFiles])

	rec, err = svc.ClearFiles("e_portfolio", id)
	require.NoError(t, err)
	require.NotContains(t, rec, service.FieldFiles)

	edu, err := svc.Create("education", store.Record{"institute_name": "Uni"})
	require.NoError(t, err)
	edu, err = svc.SetLogo("education", edu["id"].(int64), "uni.png")
	require.NoError(t, err)
	require.Equal(t, "/uploads/education/1/logo-uni.png", edu[service.FieldLogo])

	_, err = svc.AttachFiles("e_portfolio", 99, []string{"x"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()

	st := store.New()
	now := time.Now()
	st.PutRefreshToken(store.RefreshToken{Fingerprint: "old", ExpiresAt: now.Add(-time.Minute)})
	st.PutRefreshToken(store.RefreshToken{Fingerprint: "new", ExpiresAt: now.Add(time.Minute)})

	hk := service.NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, time.Hour, hk.Interval)
	hk.Now = func() time.Time { return now }

	require.Equal(t, 1, hk.Cleanup())
	require.Equal(t, 1, st.RefreshTokenCount())

	hk.Start()
	hk.Stop()
	require.Equal(t, 1, st.RefreshTokenCount())
}
