// Package cli holds the shared plumbing behind the plait commands:
// engine construction, builtin tools, and the interactive run loop.
package cli

// RunOptions carries the flags shared by the run and serve commands.
type RunOptions struct {
	SpecPath  string
	Input     string
	SessionID string

	// RedisAddr enables the Redis state store when non-empty; otherwise
	// sessions live in memory.
	RedisAddr string

	LogLevel string
	Debug    bool

	// Plain disables markdown rendering and the banner.
	Plain bool

	// CodeAgentCmd is the registered command behind code nodes, if any.
	CodeAgentCmd string

	// MaskPatterns are regular expressions matched against dynamic state
	// keys; matching values are masked before persistence.
	MaskPatterns []string
}
