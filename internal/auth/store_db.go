package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

// PostgresStore keeps users in the users table. The email column carries
// the unique constraint that backs ErrEmailExists.
type PostgresStore struct {
	db   *sql.DB
	cost int
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, cost: bcrypt.DefaultCost}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS users (
				id         TEXT PRIMARY KEY,
				email      TEXT NOT NULL UNIQUE,
				pass_hash  BYTEA NOT NULL,
				role       TEXT NOT NULL CHECK (role IN ('customer', 'admin')),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, s.db.PingContext)
}

func (s *PostgresStore) Create(ctx context.Context, email, password, role, id string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(password)), s.cost)
	if err != nil {
		return err
	}

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, email, pass_hash, role) VALUES ($1, $2, $3, $4)`,
			id, normalizeEmail(email), hash, role,
		)
		return err
	})
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

func (s *PostgresStore) Verify(ctx context.Context, email, password string) (User, error) {
	var u User
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, email, pass_hash, role FROM users WHERE email = $1`,
			normalizeEmail(email),
		).Scan(&u.ID, &u.Email, &u.Hash, &u.Role)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return User{}, ErrInvalidCredentials
	case err != nil:
		return User{}, err
	}

	if bcrypt.CompareHashAndPassword(u.Hash, []byte(normalizePassword(password))) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
