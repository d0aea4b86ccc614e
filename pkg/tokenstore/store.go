// Package tokenstore persists the client's access/refresh token pair.
//
// Drivers live under drivers/ (sqlite for a durable single-host file, redis
// for sharing between processes); NewMemory is process-local. A missing value
// is never an error: Get returns empty fields instead.
package tokenstore

import (
	"context"
	"errors"
)

// Keys the pair is stored under, shared by every driver.
const (
	KeyAccess  = "access_token"
	KeyRefresh = "refresh_token"
)

// ErrUnavailable wraps driver failures caused by the backing storage being
// unreachable or closed. Callers are expected to degrade, not abort.
var ErrUnavailable = errors.New("tokenstore: storage unavailable")

// TokenPair is the opaque credential pair. Empty strings mean absent.
type TokenPair struct {
	Access  string
	Refresh string
}

// HasAccess reports whether an access token is present.
func (p TokenPair) HasAccess() bool { return p.Access != "" }

// Store is implemented by every driver. Setting an empty token removes it.
type Store interface {
	Get(ctx context.Context) (TokenPair, error)
	SetAccess(ctx context.Context, token string) error
	SetRefresh(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Close() error
}
