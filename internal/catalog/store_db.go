package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the products table and loads the seed catalog into
// it when it is empty.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS products (
				id             TEXT PRIMARY KEY,
				name           TEXT NOT NULL,
				price          NUMERIC(12,2) NOT NULL CHECK (price >= 0),
				discount_price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (discount_price >= 0 AND discount_price <= price),
				image          TEXT NOT NULL DEFAULT '',
				category       TEXT NOT NULL
			)
		`); err != nil {
			return err
		}

		for _, p := range seedProducts() {
			if _, err := s.db.ExecContext(ctx, `
				INSERT INTO products (id, name, price, discount_price, image, category)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO NOTHING
			`, p.ID, p.Name, p.Price, p.DiscountPrice, p.Image, p.Category); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

var orderClauses = map[string]string{
	"":              "id ASC",
	SortByID:        "id ASC",
	SortByName:      "name ASC, id ASC",
	SortByPriceAsc:  "price ASC, id ASC",
	SortByPriceDesc: "price DESC, id ASC",
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]Product, error) {
	orderBy, ok := orderClauses[f.Sort]
	if !ok {
		orderBy = orderClauses[SortByID]
	}

	var out []Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, price, discount_price, image, category
			FROM products
			WHERE ($1 = '' OR category = $1)
			ORDER BY `+orderBy, f.Category)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DiscountPrice, &p.Image, &p.Category); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, price, discount_price, image, category
			FROM products
			WHERE id = $1
		`, id).Scan(&p.ID, &p.Name, &p.Price, &p.DiscountPrice, &p.Image, &p.Category)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	var out []string

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT DISTINCT category
			FROM products
			ORDER BY category ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]string, 0, 8)
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
