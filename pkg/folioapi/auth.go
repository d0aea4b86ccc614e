package folioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Auth endpoint paths, relative to the auth service base URL.
const (
	PathLogin    = "/auth/login"
	PathLogout   = "/auth/logout"
	PathValidate = "/auth/validate"
	PathRefresh  = "/auth/refresh"
	PathUser     = "/auth/user"
)

// LoginRequest exchanges credentials for a token pair.
func (c *Client) LoginRequest(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.postAuthJSON(ctx, PathLogin, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshRequest exchanges a refresh token for a new access token and,
// optionally, a rotated refresh token.
func (c *Client) RefreshRequest(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.postAuthJSON(ctx, PathRefresh, refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateRequest returns nil when the server accepts token.
func (c *Client) ValidateRequest(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, PathValidate, nil, nil, token)
	if err != nil {
		return err
	}
	return discardBody(resp)
}

// LogoutRequest notifies the server that token is being discarded.
func (c *Client) LogoutRequest(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, PathLogout, nil, nil, token)
	if err != nil {
		return err
	}
	return discardBody(resp)
}

// UserRequest returns the account that owns token.
func (c *Client) UserRequest(ctx context.Context, token string) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathUser, nil, nil, token)
	if err != nil {
		return nil, err
	}

	var out userResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) postAuthJSON(ctx context.Context, path string, body any, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	}, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, target)
}
