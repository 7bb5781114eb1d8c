package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const StatusNew = "NEW"

// Line is one accepted order line. UnitPrice is the catalog price minus the
// per-unit discount at the time the order was placed.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Items     []Line          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type Store interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, bool, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}
