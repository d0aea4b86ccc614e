// Package redis is the tokenstore driver for setups where several processes
// on a host share one login (for example a CLI and a long-running shell).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/tokenstore"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	DefaultPrefix  = "folio:"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Timeout  time.Duration
}

type Store struct {
	client *redis.Client
	prefix string
}

var _ tokenstore.Store = (*Store)(nil)

// Connect dials Redis and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", tokenstore.ErrUnavailable, err)
	}

	return New(client, cfg.Prefix), nil
}

// New wraps an existing client. An empty prefix falls back to DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(name string) string { return s.prefix + name }

func (s *Store) Get(ctx context.Context) (tokenstore.TokenPair, error) {
	vals, err := s.client.MGet(ctx, s.key(tokenstore.KeyAccess), s.key(tokenstore.KeyRefresh)).Result()
	if err != nil {
		return tokenstore.TokenPair{}, wrap(err)
	}

	var pair tokenstore.TokenPair
	if v, ok := vals[0].(string); ok {
		pair.Access = v
	}
	if v, ok := vals[1].(string); ok {
		pair.Refresh = v
	}
	return pair, nil
}

func (s *Store) SetAccess(ctx context.Context, token string) error {
	return s.put(ctx, tokenstore.KeyAccess, token)
}

func (s *Store) SetRefresh(ctx context.Context, token string) error {
	return s.put(ctx, tokenstore.KeyRefresh, token)
}

func (s *Store) Clear(ctx context.Context) error {
	return wrap(s.client.Del(ctx, s.key(tokenstore.KeyAccess), s.key(tokenstore.KeyRefresh)).Err())
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) put(ctx context.Context, name, value string) error {
	if value == "" {
		return wrap(s.client.Del(ctx, s.key(name)).Err())
	}
	return wrap(s.client.Set(ctx, s.key(name), value, 0).Err())
}

func wrap(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}
	return fmt.Errorf("%w: %v", tokenstore.ErrUnavailable, err)
}
