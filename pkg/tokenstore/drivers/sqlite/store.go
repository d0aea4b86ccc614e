// Package sqlite is the durable, single-host tokenstore driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/tokenstore"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

var _ tokenstore.Store = (*Store)(nil)

// DSN builds a modernc sqlite DSN for a database file with a busy timeout and WAL.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", tokenstore.ErrUnavailable, err)
	}

	return &Store{db: db, dsn: dsn}, nil
}

// Open opens (creating if needed) the database file at path and applies migrations.
func Open(path string) (*Store, error) {
	s, err := NewStore(DSN(path))
	if err != nil {
		return nil, err
	}

	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to apply token store migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context) (tokenstore.TokenPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM tokens WHERE name IN (?, ?)`,
		tokenstore.KeyAccess, tokenstore.KeyRefresh,
	)
	if err != nil {
		return tokenstore.TokenPair{}, fmt.Errorf("%w: %v", tokenstore.ErrUnavailable, err)
	}
	defer rows.Close()

	var pair tokenstore.TokenPair
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return tokenstore.TokenPair{}, err
		}
		switch name {
		case tokenstore.KeyAccess:
			pair.Access = value
		case tokenstore.KeyRefresh:
			pair.Refresh = value
		}
	}

	return pair, rows.Err()
}

func (s *Store) SetAccess(ctx context.Context, token string) error {
	return s.put(ctx, tokenstore.KeyAccess, token)
}

func (s *Store) SetRefresh(ctx context.Context, token string) error {
	return s.put(ctx, tokenstore.KeyRefresh, token)
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens`); err != nil {
		return fmt.Errorf("%w: %v", tokenstore.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, name, value string) error {
	var err error
	if value == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM tokens WHERE name = ?`, name)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO tokens (name, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			name, value, time.Now().UTC(),
		)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", tokenstore.ErrUnavailable, err)
	}
	return nil
}
