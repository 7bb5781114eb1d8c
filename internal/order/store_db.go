package order

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 5 * time.Second
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS orders (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				total      NUMERIC(14,2) NOT NULL,
				status     TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC);
			CREATE TABLE IF NOT EXISTS order_items (
				order_id   TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
				product_id TEXT NOT NULL,
				name       TEXT NOT NULL DEFAULT '',
				qty        INTEGER NOT NULL CHECK (qty > 0),
				unit_price NUMERIC(12,2) NOT NULL,
				PRIMARY KEY (order_id, product_id)
			)
		`)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (id, user_id, total, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, o.ID, o.UserID, o.Total, o.Status, o.CreatedAt)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, qty, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, it := range o.Items {
			if _, err := stmt.ExecContext(ctx, o.ID, it.ProductID, it.Name, it.Qty, it.UnitPrice); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Order, bool, error) {
	var o Order
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		err := s.db.QueryRowContext(ctx, `
			SELECT id, user_id, total, status, created_at
			FROM orders
			WHERE id = $1
		`, id).Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt)
		if err != nil {
			return err
		}

		o.Items, err = s.items(ctx, id)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	out := make([]Order, 0)
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, user_id, total, status, created_at
			FROM orders
			WHERE user_id = $1
			ORDER BY created_at DESC, id ASC
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var o Order
			if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt); err != nil {
				return err
			}
			out = append(out, o)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range out {
			if out[i].Items, err = s.items(ctx, out[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) items(ctx context.Context, orderID string) ([]Line, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, qty, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Line, 0, 8)
	for rows.Next() {
		var it Line
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Qty, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
