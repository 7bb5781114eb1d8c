package order

import (
	"context"
	"slices"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Order
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]Order{}}
}

func NewStore() Store {
	return NewMemStore()
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, o Order) error {
	o.Items = slices.Clone(o.Items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[o.ID] = o
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.m[id]
	o.Items = slices.Clone(o.Items)
	return o, ok, nil
}

func (s *MemStore) ListByUser(_ context.Context, userID string) ([]Order, error) {
	s.mu.RLock()
	out := make([]Order, 0)
	for _, o := range s.m {
		if o.UserID == userID {
			o.Items = slices.Clone(o.Items)
			out = append(out, o)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, newestFirst)
	return out, nil
}

func newestFirst(a, b Order) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
