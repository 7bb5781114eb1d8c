package catalog

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Product is an apparel catalog record. DiscountPrice is the per-unit amount
// taken off Price, not the discounted price itself.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Image         string          `json:"image,omitempty"`
	Category      string          `json:"category"`
}

// EffectivePrice is the per-unit amount an order is charged.
func (p Product) EffectivePrice() decimal.Decimal {
	return p.Price.Sub(p.DiscountPrice)
}

const (
	SortByID        = "id"
	SortByName      = "name"
	SortByPriceAsc  = "price_asc"
	SortByPriceDesc = "price_desc"
)

func validSort(s string) bool {
	switch s {
	case "", SortByID, SortByName, SortByPriceAsc, SortByPriceDesc:
		return true
	}
	return false
}

type ListFilter struct {
	Category string
	Sort     string
}

type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, f ListFilter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
	Categories(ctx context.Context) ([]string, error)
}

func NewStore() Store {
	return NewMemStore()
}

func sortProducts(ps []Product, by string) {
	less := func(i, j int) bool { return ps[i].ID < ps[j].ID }

	switch by {
	case SortByName:
		less = func(i, j int) bool {
			if ps[i].Name != ps[j].Name {
				return ps[i].Name < ps[j].Name
			}
			return ps[i].ID < ps[j].ID
		}
	case SortByPriceAsc, SortByPriceDesc:
		desc := by == SortByPriceDesc
		less = func(i, j int) bool {
			if c := ps[i].Price.Cmp(ps[j].Price); c != 0 {
				return (c < 0) != desc
			}
			return ps[i].ID < ps[j].ID
		}
	}

	sort.Slice(ps, less)
}
