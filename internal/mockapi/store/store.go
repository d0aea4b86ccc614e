// Package store is the in-memory persistence behind the mock backend:
// resource collections, seeded accounts and refresh-token fingerprints.
package store

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("store: not found")
	ErrUnknownCollection = errors.New("store: unknown collection")
	ErrDuplicate         = errors.New("store: duplicate")
)

// Record is one resource row. "id" is always server-assigned.
type Record map[string]any

// Account is a user that can log in.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

// RefreshToken is an issued refresh token, keyed by its fingerprint. The raw
// token is never stored.
type RefreshToken struct {
	Fingerprint string
	UserID      uuid.UUID
	ExpiresAt   time.Time
}

type collection struct {
	nextID  int64
	records map[int64]Record
}

// Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	accounts    map[string]Account // by lower-cased email
	refresh     map[string]RefreshToken
}

// New creates a store with the given (empty) collections.
func New(collections ...string) *Store {
	s := &Store{
		collections: make(map[string]*collection, len(collections)),
		accounts:    make(map[string]Account),
		refresh:     make(map[string]RefreshToken),
	}
	for _, name := range collections {
		s.collections[name] = &collection{nextID: 1, records: make(map[int64]Record)}
	}
	return s
}

// Collections returns the collection names in sorted order.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.collections))
}

// ============================================================================
// Records
// ============================================================================

func (s *Store) List(name string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, ErrUnknownCollection
	}

	ids := slices.Sorted(maps.Keys(c.records))

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, maps.Clone(c.records[id]))
	}
	return out, nil
}

func (s *Store) Get(name string, id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, ErrUnknownCollection
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(rec), nil
}

// Create stores fields under a fresh id. A client-supplied id is ignored.
func (s *Store) Create(name string, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, ErrUnknownCollection
	}

	rec := maps.Clone(fields)
	if rec == nil {
		rec = Record{}
	}
	id := c.nextID
	c.nextID++
	rec["id"] = id
	c.records[id] = rec

	return maps.Clone(rec), nil
}

// Update merges fields into record id. A nil value removes the field; the
// id itself cannot be changed.
func (s *Store) Update(name string, id int64, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, ErrUnknownCollection
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	for k, v := range fields {
		if k == "id" {
			continue
		}
		if v == nil {
			delete(rec, k)
			continue
		}
		rec[k] = v
	}
	return maps.Clone(rec), nil
}

func (s *Store) Delete(name string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return ErrUnknownCollection
	}
	if _, ok := c.records[id]; !ok {
		return ErrNotFound
	}
	delete(c.records, id)
	return nil
}

// ============================================================================
// Accounts
// ============================================================================

// CreateAccount adds a; the email must be unused.
func (s *Store) CreateAccount(a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(a.Email)
	if _, ok := s.accounts[key]; ok {
		return ErrDuplicate
	}
	s.accounts[key] = a
	return nil
}

func (s *Store) AccountByEmail(email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *Store) AccountByID(id uuid.UUID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

// ============================================================================
// Refresh tokens
// ============================================================================

func (s *Store) PutRefreshToken(rt RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[rt.Fingerprint] = rt
}

// TakeRefreshToken removes and returns the token with fingerprint fp, so
// each refresh token can be used once.
func (s *Store) TakeRefreshToken(fp string) (RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.refresh[fp]
	if !ok {
		return RefreshToken{}, ErrNotFound
	}
	delete(s.refresh, fp)
	return rt, nil
}

// DeleteRefreshTokensForUser revokes every refresh token of userID and
// reports how many were removed.
func (s *Store) DeleteRefreshTokensForUser(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for fp, rt := range s.refresh {
		if rt.UserID == userID {
			delete(s.refresh, fp)
			n++
		}
	}
	return n
}

// DeleteExpiredRefreshTokens drops tokens that expired at or before now.
func (s *Store) DeleteExpiredRefreshTokens(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for fp, rt := range s.refresh {
		if !now.Before(rt.ExpiresAt) {
			delete(s.refresh, fp)
			n++
		}
	}
	return n
}

// RefreshTokenCount reports how many refresh tokens are live.
func (s *Store) RefreshTokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refresh)
}
