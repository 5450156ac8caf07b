// Package process implements the code-agent port by shelling out to a
// local CLI agent. Only explicitly registered commands can run, and
// options flow in as environment variables rather than argv to keep
// flag injection out of reach.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Agent executes a registered command, feeding the prompt on stdin and
// returning trimmed stdout. It implements ports.CodeAgent.
type Agent struct {
	command string
	args    []string
	baseDir string
	env     map[string]string
}

// Option configures the agent.
type Option func(*Agent)

// WithArgs sets default arguments passed to every invocation.
func WithArgs(args ...string) Option {
	return func(a *Agent) { a.args = args }
}

// WithBaseDir sets the working directory for the spawned process.
func WithBaseDir(dir string) Option {
	return func(a *Agent) { a.baseDir = dir }
}

// WithEnv sets extra environment variables for the spawned process.
func WithEnv(env map[string]string) Option {
	return func(a *Agent) { a.env = env }
}

// NewAgent creates an agent bound to one command.
func NewAgent(command string, opts ...Option) *Agent {
	a := &Agent{command: command}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the command with the prompt on stdin. Node options become
// PLAIT_OPT_* environment variables; complex values are JSON encoded.
func (a *Agent) Run(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if a.command == "" {
		return "", fmt.Errorf("no code agent command configured")
	}

	cmd := exec.CommandContext(ctx, a.command, a.args...)
	cmd.Dir = a.baseDir
	cmd.Stdin = strings.NewReader(prompt)

	env := cmd.Environ()
	for k, v := range a.env {
		env = append(env, k+"="+v)
	}
	for k, v := range options {
		env = append(env, fmt.Sprintf("PLAIT_OPT_%s=%s", strings.ToUpper(k), encodeOption(v)))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("code agent interrupted: %w", ctx.Err())
		}
		return "", fmt.Errorf("code agent failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func encodeOption(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
