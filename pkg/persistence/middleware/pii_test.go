package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/plait/pkg/adapters/memory"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_MasksMatchingKeys(t *testing.T) {
	store := middleware.Chain(memory.NewStore(),
		middleware.NewPIIMiddleware([]string{"(?i)api_key", "ssn"}))
	ctx := context.Background()

	state := domain.NewState("in", "s1")
	state.Set("API_KEY", "sk-12345")
	state.Set("user_ssn", "000-00-0000")
	state.Set("topic", "go")

	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Dynamic["API_KEY"])
	assert.Equal(t, "***", loaded.Dynamic["user_ssn"])
	assert.Equal(t, "go", loaded.Dynamic["topic"])
}

func TestPIIMiddleware_MasksNestedKeys(t *testing.T) {
	store := middleware.Chain(memory.NewStore(),
		middleware.NewPIIMiddleware([]string{"password"}))
	ctx := context.Background()

	state := domain.NewState("in", "s1")
	state.Set("credentials", map[string]any{
		"password": "hunter2",
		"username": "alice",
	})

	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	creds := loaded.Dynamic["credentials"].(map[string]any)
	assert.Equal(t, "***", creds["password"])
	assert.Equal(t, "alice", creds["username"])
}

func TestPIIMiddleware_DoesNotMutateOriginal(t *testing.T) {
	store := middleware.Chain(memory.NewStore(),
		middleware.NewPIIMiddleware([]string{"secret"}))

	state := domain.NewState("in", "s1")
	nested := map[string]any{"secret": "live value"}
	state.Set("config", nested)
	state.Set("secret", "top level")

	require.NoError(t, store.Save(context.Background(), "s1", state))

	assert.Equal(t, "top level", state.Dynamic["secret"])
	assert.Equal(t, "live value", nested["secret"])
}

func TestPIIMiddleware_LoadPassesThrough(t *testing.T) {
	inner := memory.NewStore()
	store := middleware.Chain(inner, middleware.NewPIIMiddleware([]string{"secret"}))
	ctx := context.Background()

	// Written directly to the inner store, bypassing masking.
	state := domain.NewState("in", "s1")
	state.Set("secret", "visible")
	require.NoError(t, inner.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "visible", loaded.Dynamic["secret"])

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
