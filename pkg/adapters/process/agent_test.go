package process_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/aretw0/plait/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestAgent_RunEchoesStdin(t *testing.T) {
	skipWithoutShell(t)

	agent := process.NewAgent("cat")
	out, err := agent.Run(context.Background(), "fix the failing test\n", nil)
	require.NoError(t, err)
	assert.Equal(t, "fix the failing test", out, "stdout is trimmed")
}

func TestAgent_OptionsBecomeEnv(t *testing.T) {
	skipWithoutShell(t)

	agent := process.NewAgent("sh", process.WithArgs("-c", `printf '%s' "$PLAIT_OPT_MAX_TURNS"`))
	out, err := agent.Run(context.Background(), "", map[string]any{"max_turns": 3})
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestAgent_ComplexOptionsAreJSON(t *testing.T) {
	skipWithoutShell(t)

	agent := process.NewAgent("sh", process.WithArgs("-c", `printf '%s' "$PLAIT_OPT_TOOLS"`))
	out, err := agent.Run(context.Background(), "", map[string]any{"tools": []string{"read", "edit"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["read","edit"]`, out)
}

func TestAgent_FailureIncludesStderr(t *testing.T) {
	skipWithoutShell(t)

	agent := process.NewAgent("sh", process.WithArgs("-c", "echo boom >&2; exit 3"))
	_, err := agent.Run(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAgent_CancelledContext(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := process.NewAgent("sleep", process.WithArgs("5"))
	_, err := agent.Run(ctx, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestAgent_EmptyCommand(t *testing.T) {
	agent := process.NewAgent("")
	_, err := agent.Run(context.Background(), "", nil)
	assert.Error(t, err)
}
