//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartloom/marketplace/backend/internal/adapters/cache"
)

func TestRedisAdapter_SetGetDelete(t *testing.T) {
	client := newTestRedisClient(t)
	defer client.Close()

	adapter := cache.NewRedisAdapter(client)
	ctx := context.Background()
	key := "test:query_interp:" + uuid.NewString()

	require.NoError(t, adapter.Set(ctx, key, []byte(`{"intent":"search"}`), 60))

	value, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"intent":"search"}`), value)

	require.NoError(t, adapter.Delete(ctx, key))

	_, err = adapter.Get(ctx, key)
	assert.Error(t, err, "deleted key should not resolve")
}

func TestRedisAdapter_GetMissing(t *testing.T) {
	client := newTestRedisClient(t)
	defer client.Close()

	adapter := cache.NewRedisAdapter(client)

	_, err := adapter.Get(context.Background(), "test:missing:"+uuid.NewString())
	assert.Error(t, err)
}

func TestRedisAdapter_Expiration(t *testing.T) {
	client := newTestRedisClient(t)
	defer client.Close()

	adapter := cache.NewRedisAdapter(client)
	ctx := context.Background()
	key := "test:expiry:" + uuid.NewString()

	require.NoError(t, adapter.Set(ctx, key, []byte("ephemeral"), 1))

	value, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("ephemeral"), value)

	time.Sleep(1500 * time.Millisecond)

	_, err = adapter.Get(ctx, key)
	assert.Error(t, err, "key should expire")
}
