package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("s", jwtx.MinSecretSize))

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "folio-mock",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("folio-mock"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
	})
}

func TestValidateExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewAccessClaims("u1", "a@example.com", "folio-mock", time.Minute, now)

	require.NoError(t, c.ValidateExpiry(now))
	require.ErrorIs(t, c.ValidateExpiry(now.Add(time.Minute)), jwtx.ErrExpired)
	require.ErrorIs(t, c.ValidateExpiry(now.Add(-time.Second)), jwtx.ErrNotYetValid)
}

func TestHS256(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }

	h, err := jwtx.NewHS256(testSecret, "folio-mock", clock)
	require.NoError(t, err)
	require.Equal(t, "HS256", h.Alg())

	tok, claims, err := h.Mint("u1", "a@example.com", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	t.Run("round trip", func(t *testing.T) {
		got, err := h.Verify(tok)
		require.NoError(t, err)
		require.Equal(t, "u1", got.Subject)
		require.Equal(t, "a@example.com", got.Email)

		sub, err := h.Subject(tok)
		require.NoError(t, err)
		require.Equal(t, "u1", sub)
	})

	t.Run("expired", func(t *testing.T) {
		later, err := jwtx.NewHS256(testSecret, "folio-mock", func() time.Time { return now.Add(2 * time.Minute) })
		require.NoError(t, err)

		_, err = later.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte(strings.Repeat("x", jwtx.MinSecretSize)), "folio-mock", clock)
		require.NoError(t, err)

		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := jwtx.NewHS256(testSecret, "someone-else", clock)
		require.NoError(t, err)

		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := h.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestNewHS256RejectsWeakSecret(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewHS256([]byte("short"), "", nil)
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}
