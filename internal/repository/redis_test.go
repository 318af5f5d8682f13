package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisLeaseStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLeaseStore(client), mr
}

func TestRedisLeaseStore_SetIfAbsent(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	t.Run("FirstWriterWins", func(t *testing.T) {
		ok, err := store.SetIfAbsent(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SetIfAbsent(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-b", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		token, err := store.GetToken(ctx, "slot:v1:staff-01:2024-06-01:09_00")
		require.NoError(t, err)
		assert.Equal(t, "token-a", token)
	})

	t.Run("FreeAgainAfterTTL", func(t *testing.T) {
		store, mr := setupRedisStore(t)

		ok, err := store.SetIfAbsent(ctx, "slot:v1:staff-02:2024-06-01:09_00", "token-a", 100*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		mr.FastForward(150 * time.Millisecond)

		ok, err = store.SetIfAbsent(ctx, "slot:v1:staff-02:2024-06-01:09_00", "token-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRedisLeaseStore_DeleteIfOwned(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerDeletes", func(t *testing.T) {
		store, mr := setupRedisStore(t)

		_, err := store.SetIfAbsent(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-a", time.Minute)
		require.NoError(t, err)

		deleted, err := store.DeleteIfOwned(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-a")
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.False(t, mr.Exists("slot:v1:staff-01:2024-06-01:09_00"))
	})

	t.Run("WrongTokenIsNoOp", func(t *testing.T) {
		store, mr := setupRedisStore(t)

		_, err := store.SetIfAbsent(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-a", time.Minute)
		require.NoError(t, err)

		deleted, err := store.DeleteIfOwned(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-b")
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.True(t, mr.Exists("slot:v1:staff-01:2024-06-01:09_00"))
	})

	t.Run("ExpiredLeaseIsNoOp", func(t *testing.T) {
		store, mr := setupRedisStore(t)

		_, err := store.SetIfAbsent(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-a", 100*time.Millisecond)
		require.NoError(t, err)

		mr.FastForward(150 * time.Millisecond)

		deleted, err := store.DeleteIfOwned(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-a")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestRedisLeaseStore_GetToken(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		token, err := store.GetToken(ctx, "slot:nope")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("ExpiredKey", func(t *testing.T) {
		_, err := store.SetIfAbsent(ctx, "slot:short", "token-a", 50*time.Millisecond)
		require.NoError(t, err)

		mr.FastForward(100 * time.Millisecond)

		token, err := store.GetToken(ctx, "slot:short")
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestRedisLeaseStore_StoreDown(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	mr.Close()

	_, err := store.SetIfAbsent(ctx, "slot:v1:staff-01:2024-06-01:09_00", "token-a", time.Minute)
	assert.Error(t, err)

	_, err = store.GetToken(ctx, "slot:v1:staff-01:2024-06-01:09_00")
	assert.Error(t, err)
}
