package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeSnapshot serializes the full line list. An empty ledger encodes as
// "[]" so that a cart emptied by the shopper overwrites any stale snapshot.
func EncodeSnapshot(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a persisted snapshot. Anything that is not a JSON
// array of well-formed lines yields ErrMalformedSnapshot.
func DecodeSnapshot(data []byte) ([]Line, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: not a json array", ErrMalformedSnapshot)
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		if l.ProductID == "" {
			return nil, fmt.Errorf("%w: line %d has no productId", ErrMalformedSnapshot, i)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d has quantity %d", ErrMalformedSnapshot, i, l.Quantity)
		}
		if _, dup := seen[l.ProductID]; dup {
			return nil, fmt.Errorf("%w: duplicate productId %q", ErrMalformedSnapshot, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}

	if len(lines) == 0 {
		return nil, nil
	}
	return lines, nil
}
