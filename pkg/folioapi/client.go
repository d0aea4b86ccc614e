package folioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TokenSource yields the access token to attach to outgoing requests.
// An empty string means no Authorization header is sent.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

func (t StaticToken) AccessToken() string { return string(t) }

// Client is a REST client bound to a single base URL.
//
// There is no client-side timeout and no retry; cancellation comes from the
// caller's context.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
}

// NewClient creates a client for baseURL. tokens may be nil for endpoints
// that never need a bearer header.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{},
		Tokens:     tokens,
	}
}

// Get fetches path and returns the decoded body.
func (c *Client) Get(ctx context.Context, path string) (Record, error) {
	return c.send(ctx, http.MethodGet, path, nil, c.token())
}

// Post sends body as JSON to path.
func (c *Client) Post(ctx context.Context, path string, body any) (Record, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body)
}

// Put sends body as JSON to path.
func (c *Client) Put(ctx context.Context, path string, body any) (Record, error) {
	return c.sendJSON(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) (Record, error) {
	return c.send(ctx, http.MethodDelete, path, nil, c.token())
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) (Record, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	resp, err := c.doRequest(ctx, method, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	}, c.token())
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

func (c *Client) send(ctx context.Context, method, path string, headers map[string]string, token string) (Record, error) {
	resp, err := c.doRequest(ctx, method, path, nil, headers, token)
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

func (c *Client) token() string {
	if c.Tokens == nil {
		return ""
	}
	return c.Tokens.AccessToken()
}
