package eventstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisProductIndex(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	index := NewRedisProductIndex(client)

	streamID, err := index.Get(ctx, "sku-1")
	require.NoError(t, err)
	require.Empty(t, streamID)

	require.NoError(t, index.Set(ctx, "sku-1", "agg-1"))

	streamID, err = index.Get(ctx, "sku-1")
	require.NoError(t, err)
	require.Equal(t, "agg-1", streamID)

	// Re-pointing a product replaces the mapping.
	require.NoError(t, index.Set(ctx, "sku-1", "agg-2"))
	streamID, err = index.Get(ctx, "sku-1")
	require.NoError(t, err)
	require.Equal(t, "agg-2", streamID)

	stored, err := srv.Get("inventory:product:sku-1")
	require.NoError(t, err)
	require.Equal(t, "agg-2", stored)
}
