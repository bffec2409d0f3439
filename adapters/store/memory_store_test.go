package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTakeIsAtMostOnce(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.Set(ctx, "nonce:abc", "1", time.Minute))

	ok, err := ms.Take(ctx, "nonce:abc")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ms.Take(ctx, "nonce:abc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTakeUnknownKey(t *testing.T) {
	ms := NewMemoryStore()

	ok, err := ms.Take(context.Background(), "nonce:missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTakeExpiredKey(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.Set(ctx, "nonce:abc", "1", time.Minute))
	ms.Expire("nonce:abc")

	ok, err := ms.Take(ctx, "nonce:abc")
	require.NoError(t, err)
	require.False(t, ok)

	// Expired entries are removed on Take, not resurrected.
	require.NoError(t, ms.Set(ctx, "nonce:abc", "1", time.Minute))
	ok, err = ms.Take(ctx, "nonce:abc")
	require.NoError(t, err)
	require.True(t, ok)
}
