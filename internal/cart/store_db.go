package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// DBTX is the subset of *pgxpool.Pool the snapshot store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type PostgresStore struct {
	db DBTX
}

func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS cart_snapshots (
				key        TEXT PRIMARY KEY,
				payload    JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.Ping(ctx)
	})
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRow(ctx, `
			SELECT payload
			FROM cart_snapshots
			WHERE key = $1
		`, key).Scan(&payload)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, data []byte) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, `
			INSERT INTO cart_snapshots (key, payload, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE
			SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
		`, key, data)
		return err
	})
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, `DELETE FROM cart_snapshots WHERE key = $1`, key)
		return err
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
