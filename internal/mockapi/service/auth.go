package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/store"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/cryptox"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/jwtx"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService issues HS256 access tokens and rotating opaque refresh tokens.
type AuthService struct {
	Store      *store.Store
	Tokens     *jwtx.HS256
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an account with an argon2id password hash.
func (s *AuthService) Register(email, password string) (store.Account, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return store.Account{}, fmt.Errorf("hash password: %w", err)
	}

	acct := store.Account{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
	}
	if err := s.Store.CreateAccount(acct); err != nil {
		return store.Account{}, fmt.Errorf("create account %q: %w", email, err)
	}
	return acct, nil
}

// Login verifies credentials and issues a fresh pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, store.Account, error) {
	acct, err := s.Store.AccountByEmail(strings.TrimSpace(email))
	if err != nil {
		return TokenPair{}, store.Account{}, ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		return TokenPair{}, store.Account{}, ErrInvalidCredentials
	}

	pair, err := s.issue(acct)
	if err != nil {
		return TokenPair{}, store.Account{}, err
	}
	return pair, acct, nil
}

// Refresh consumes refreshToken and issues a new pair. A token can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	rt, err := s.Store.TakeRefreshToken(cryptox.FingerprintToken(refreshToken))
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if !s.now().Before(rt.ExpiresAt) {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	acct, err := s.Store.AccountByID(rt.UserID)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	return s.issue(acct)
}

// Validate checks an access token and returns its claims.
func (s *AuthService) Validate(accessToken string) (jwtx.Claims, error) {
	claims, err := s.Tokens.Verify(accessToken)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Logout revokes every refresh token held by the owner of accessToken.
// An invalid access token is not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken string) int {
	claims, err := s.Tokens.Verify(accessToken)
	if err != nil {
		return 0
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return 0
	}
	return s.Store.DeleteRefreshTokensForUser(id)
}

// User returns the account behind subject.
func (s *AuthService) User(subject string) (store.Account, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return store.Account{}, ErrInvalidToken
	}
	return s.Store.AccountByID(id)
}

func (s *AuthService) issue(acct store.Account) (TokenPair, error) {
	access, _, err := s.Tokens.Mint(acct.ID.String(), acct.Email, s.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("mint access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	s.Store.PutRefreshToken(store.RefreshToken{
		Fingerprint: cryptox.FingerprintToken(refresh),
		UserID:      acct.ID,
		ExpiresAt:   s.now().Add(s.RefreshTTL),
	})

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
