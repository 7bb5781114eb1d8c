package cart

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Ledger is the ordered collection of cart lines for one shopper. Every
// mutation writes the full snapshot to the store before returning; if the
// write fails the in-memory lines are left as they were.
type Ledger struct {
	mu    sync.Mutex
	store Store
	key   string
	lines []Line
}

// New returns an empty ledger that has not been hydrated from the store.
func New(store Store, key string) *Ledger {
	return &Ledger{store: store, key: key}
}

// Open reads the snapshot stored under key once and hydrates a ledger from
// it. A missing or empty snapshot yields an empty ledger. A malformed one is
// reported as ErrMalformedSnapshot; callers choose whether to reset.
func Open(ctx context.Context, store Store, key string) (*Ledger, error) {
	l := New(store, key)

	data, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	if !ok {
		return l, nil
	}

	lines, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	l.lines = lines
	return l, nil
}

func (l *Ledger) Key() string { return l.key }

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

func (l *Ledger) Empty() bool { return l.Len() == 0 }

// Summary recomputes the monetary figures from the current lines.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return summarize(l.lines)
}

// AddItem merges p into the ledger: an existing line for p.ID gains one unit,
// otherwise a new line with quantity 1 is appended.
func (l *Ledger) AddItem(ctx context.Context, p Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	p.ID = strings.TrimSpace(p.ID)

	l.mu.Lock()
	defer l.mu.Unlock()

	next := slices.Clone(l.lines)
	if i := indexOf(next, p.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, newLine(p))
	}
	return l.commit(ctx, next)
}

// UpdateQuantity sets the line's quantity to max(1, n). Unknown ids are
// ignored. No upper bound is applied; stock is not consulted here.
func (l *Ledger) UpdateQuantity(ctx context.Context, productID string, n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := indexOf(l.lines, productID)
	if i < 0 {
		return nil
	}

	next := slices.Clone(l.lines)
	next[i].Quantity = max(1, n)
	return l.commit(ctx, next)
}

// RemoveItem drops the line for productID if present.
func (l *Ledger) RemoveItem(ctx context.Context, productID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := indexOf(l.lines, productID)
	if i < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(l.lines), i, i+1)
	return l.commit(ctx, next)
}

// Clear empties the ledger and erases its snapshot. It is used once an order
// has been accepted.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Delete(ctx, l.key); err != nil {
		return fmt.Errorf("erase cart snapshot: %w", err)
	}
	l.lines = nil
	return nil
}

// Reset persists an empty snapshot over whatever is stored under the key.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(ctx, nil)
}

func (l *Ledger) commit(ctx context.Context, next []Line) error {
	data, err := EncodeSnapshot(next)
	if err != nil {
		return err
	}
	if err := l.store.Put(ctx, l.key, data); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	if len(next) == 0 {
		next = nil
	}
	l.lines = next
	return nil
}

func indexOf(lines []Line, productID string) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ProductID == productID })
}
