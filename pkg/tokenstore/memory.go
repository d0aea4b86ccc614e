package tokenstore

import (
	"context"
	"sync"
)

// Memory is a process-local Store.
type Memory struct {
	mu     sync.RWMutex
	pair   TokenPair
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(_ context.Context) (TokenPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return TokenPair{}, ErrUnavailable
	}
	return m.pair, nil
}

func (m *Memory) SetAccess(_ context.Context, token string) error {
	return m.update(func(p *TokenPair) { p.Access = token })
}

func (m *Memory) SetRefresh(_ context.Context, token string) error {
	return m.update(func(p *TokenPair) { p.Refresh = token })
}

func (m *Memory) Clear(_ context.Context) error {
	return m.update(func(p *TokenPair) { *p = TokenPair{} })
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) update(fn func(*TokenPair)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrUnavailable
	}
	fn(&m.pair)
	return nil
}
