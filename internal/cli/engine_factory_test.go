package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/plait/internal/logging"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	content := `
name: count-words
functions:
  counter:
    kind: callable
    entrypoint: word_count
workflow:
  pattern: sequential
  nodes:
    - id: count
      kind: tool
      ref: counter
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewEngine_MaskPatternsWrapStore(t *testing.T) {
	opts := RunOptions{
		SpecPath:     writeSpec(t),
		MaskPatterns: []string{"(?i)api_key"},
	}

	engine, sessions, err := NewEngine(opts, logging.NewNop())
	require.NoError(t, err)
	require.NotNil(t, engine)
	require.NotNil(t, sessions)

	ctx := context.Background()
	state := domain.NewState("hello", "s1")
	state.Set("API_KEY", "sk-secret")
	state.Set("draft", "keep me")
	require.NoError(t, sessions.Store().Save(ctx, "s1", state))

	loaded, err := sessions.Store().Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Dynamic["API_KEY"])
	assert.Equal(t, "keep me", loaded.Dynamic["draft"])
}

func TestNewEngine_InvalidMaskPattern(t *testing.T) {
	opts := RunOptions{
		SpecPath:     writeSpec(t),
		MaskPatterns: []string{"("},
	}

	_, _, err := NewEngine(opts, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mask pattern")
}
