package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// Store is the key-value contract everything persists through. Values are
// JSON-encoded at this boundary. A zero ttl means the key never expires.
// Single-key operations are atomic; there is no ordering guarantee across
// keys.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
