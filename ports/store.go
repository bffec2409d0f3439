package ports

import (
	"context"
	"time"
)

// Store is an external key-value service with per-key expiry, used for
// one-time challenge tokens. Infrastructure failures surface as errors,
// never as a validity result.
type Store interface {
	// Set stores a key with a value and expiration time.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take removes the key and reports whether it was present. A key can be
	// taken at most once.
	Take(ctx context.Context, key string) (bool, error)
}
