package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewMemStore() *MemStore {
	s := &MemStore{m: map[string]Product{}}
	for _, p := range seedProducts() {
		s.m[p.ID] = p
	}
	return s
}

func seedProducts() []Product {
	d := decimal.RequireFromString
	return []Product{
		{ID: "tee-001", Name: "Essential Tee", Price: d("19.90"), DiscountPrice: d("0"), Image: "/img/tee-001.jpg", Category: "tops"},
		{ID: "tee-002", Name: "Heavyweight Pocket Tee", Price: d("29.90"), DiscountPrice: d("5.00"), Image: "/img/tee-002.jpg", Category: "tops"},
		{ID: "jkt-001", Name: "Waxed Field Jacket", Price: d("189.00"), DiscountPrice: d("30.00"), Image: "/img/jkt-001.jpg", Category: "outerwear"},
		{ID: "pnt-001", Name: "Selvedge Denim Jeans", Price: d("98.00"), DiscountPrice: d("0"), Image: "/img/pnt-001.jpg", Category: "bottoms"},
		{ID: "acc-001", Name: "Wool Beanie", Price: d("24.50"), DiscountPrice: d("4.50"), Image: "/img/acc-001.jpg", Category: "accessories"},
	}
}

// Put inserts or replaces a product.
func (s *MemStore) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context, f ListFilter) ([]Product, error) {
	s.mu.RLock()
	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}
	s.mu.RUnlock()

	sortProducts(out, f.Sort)
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	seen := map[string]struct{}{}
	for _, p := range s.m {
		seen[p.Category] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
