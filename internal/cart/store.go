package cart

import (
	"context"
	"errors"
)

// SnapshotKey is the fixed store key the cart snapshot lives under. Servers
// that hold many shoppers namespace it per session with KeyFor.
const SnapshotKey = "cartItems"

var (
	ErrMalformedSnapshot = errors.New("malformed cart snapshot")
	ErrInvalidProduct    = errors.New("invalid product")
)

// Store is the durable key/value store the ledger mirrors itself to.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

func KeyFor(session string) string {
	return SnapshotKey + ":" + session
}
