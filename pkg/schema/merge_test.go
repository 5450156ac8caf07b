package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge_NestedMaps(t *testing.T) {
	base := map[string]any{
		"llms": map[string]any{
			"fast": map[string]any{"provider": "anthropic", "model": "old"},
		},
		"name": "base",
	}
	override := map[string]any{
		"llms": map[string]any{
			"fast": map[string]any{"model": "new"},
		},
	}

	merged, err := deepMerge(base, override, "")
	require.NoError(t, err)

	llms := merged["llms"].(map[string]any)
	fast := llms["fast"].(map[string]any)
	assert.Equal(t, "new", fast["model"])
	assert.Equal(t, "anthropic", fast["provider"])
	assert.Equal(t, "base", merged["name"])
}

func TestDeepMerge_ListsReplaceWholesale(t *testing.T) {
	base := map[string]any{"nodes": []any{"a", "b", "c"}}
	override := map[string]any{"nodes": []any{"x"}}

	merged, err := deepMerge(base, override, "")
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, merged["nodes"])
}

func TestDeepMerge_CrossKindCollision(t *testing.T) {
	base := map[string]any{"workflow": map[string]any{"pattern": "loop"}}
	override := map[string]any{"workflow": "nope"}

	_, err := deepMerge(base, override, "")
	require.Error(t, err)

	var merr *MergeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "workflow", merr.Path)
}

func TestDeepMerge_ListVsScalarCollision(t *testing.T) {
	base := map[string]any{"nodes": []any{"a", "b"}}
	override := map[string]any{"nodes": "just-one"}

	_, err := deepMerge(base, override, "")
	require.Error(t, err)

	var merr *MergeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "nodes", merr.Path)

	// The same collision in the other direction is equally fatal.
	_, err = deepMerge(override, base, "")
	require.Error(t, err)
	require.ErrorAs(t, err, &merr)
}

func TestDeepMerge_YAMLMapForms(t *testing.T) {
	// yaml.v2-style map[any]any merges like map[string]any.
	base := map[string]any{"config": map[any]any{"depth": 1, "keep": true}}
	override := map[string]any{"config": map[string]any{"depth": 2}}

	merged, err := deepMerge(base, override, "")
	require.NoError(t, err)

	cfg := merged["config"].(map[string]any)
	assert.Equal(t, 2, cfg["depth"])
	assert.Equal(t, true, cfg["keep"])
}

func TestDeepMerge_NilOverrideClears(t *testing.T) {
	base := map[string]any{"output": "draft"}
	override := map[string]any{"output": nil}

	merged, err := deepMerge(base, override, "")
	require.NoError(t, err)
	assert.Nil(t, merged["output"])
}

func TestDeepMerge_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{
		"llms": map[string]any{"fast": map[string]any{"model": "old"}},
	}
	override := map[string]any{
		"llms": map[string]any{"fast": map[string]any{"model": "new"}},
	}

	_, err := deepMerge(base, override, "")
	require.NoError(t, err)

	fast := base["llms"].(map[string]any)["fast"].(map[string]any)
	assert.Equal(t, "old", fast["model"])
}
