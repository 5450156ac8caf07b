package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/plait/pkg/adapters/memory"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
	"github.com/aretw0/plait/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LoadOrStart(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	state, err := mgr.LoadOrStart(ctx, "s1", "first input")
	require.NoError(t, err)
	assert.Equal(t, "first input", state.Input)
	assert.Equal(t, "s1", state.SessionID)

	// The id is reserved immediately.
	persisted, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "first input", persisted.Input)

	// A second call returns the existing session, ignoring the new input.
	again, err := mgr.LoadOrStart(ctx, "s1", "other input")
	require.NoError(t, err)
	assert.Equal(t, "first input", again.Input)
}

func TestManager_LoadMissing(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	_, err := mgr.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_SaveAndDelete(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	state := domain.NewState("in", "s1")
	state.Output = "done"
	require.NoError(t, mgr.Save(ctx, "s1", state))

	loaded, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "done", loaded.Output)

	require.NoError(t, mgr.Delete(ctx, "s1"))
	_, err = mgr.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// slowStore widens the load-modify-save window so an unlocked manager
// would interleave.
type slowStore struct {
	ports.StateStore
	delay time.Duration
}

func (s *slowStore) Load(ctx context.Context, id string) (*domain.WorkflowState, error) {
	time.Sleep(s.delay)
	return s.StateStore.Load(ctx, id)
}

func TestManager_WithLockSerializes(t *testing.T) {
	store := &slowStore{StateStore: memory.NewStore(), delay: 5 * time.Millisecond}
	mgr := session.NewManager(store)
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, "s1", domain.NewState("in", "s1")))

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "s1", func(ctx context.Context) error {
				state, err := store.Load(ctx, "s1")
				if err != nil {
					return err
				}
				state.IterationCount++
				return store.Save(ctx, "s1", state)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, workers, final.IterationCount, "every increment must survive")
}

// countingLocker records lock/unlock pairs.
type countingLocker struct {
	mu       sync.Mutex
	locked   int
	unlocked int
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked++
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, "s1", domain.NewState("in", "s1")))
	_, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 2, locker.locked)
	assert.Equal(t, 2, locker.unlocked, "every lock is released")
}
