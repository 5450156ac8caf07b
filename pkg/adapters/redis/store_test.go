package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisadapter "github.com/aretw0/plait/pkg/adapters/redis"
	"github.com/aretw0/plait/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, opts ...redisadapter.Option) (*redisadapter.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisadapter.NewFromClient(client, opts...), mr
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	state := domain.NewState("hello", "s1")
	state.Output = "result"
	state.EvaluationScore = 4.5
	state.Set("draft", "v2")
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", loaded.Input)
	assert.Equal(t, "result", loaded.Output)
	assert.InDelta(t, 4.5, loaded.EvaluationScore, 1e-9)
	assert.Equal(t, "v2", loaded.Dynamic["draft"])
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewState("x", "s1")))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "delete also drops the index entry")
}

func TestStore_List(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.NewState("x", "a")))
	require.NoError(t, store.Save(ctx, "b", domain.NewState("y", "b")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestStore_ListPrunesExpired(t *testing.T) {
	store, mr := testStore(t, redisadapter.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewState("x", "s1")))

	// Index pruning compares scores against wall-clock time, so wait the
	// TTL out for real. FastForward only expires the value key.
	time.Sleep(1100 * time.Millisecond)
	mr.FastForward(2 * time.Second)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_KeyPrefix(t *testing.T) {
	store, mr := testStore(t, redisadapter.WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewState("x", "s1")))
	assert.True(t, mr.Exists("custom:s1"))
	assert.True(t, mr.Exists("custom:index"))
}

func TestLocker_LockAndUnlock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	locker := redisadapter.NewLocker(client, "plait:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("plait:lock:s1"))

	// A second holder cannot get the lock while the first is live.
	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "s1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("plait:lock:s1"))

	// Now the lock is free again.
	unlock2, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_UnlockIsValueChecked(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	locker := redisadapter.NewLocker(client, "plait:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	// Simulate expiry plus takeover by another holder.
	mr.Set("plait:lock:s1", "someone-else")

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("plait:lock:s1"), "a stale unlock must not delete another holder's lock")
}
