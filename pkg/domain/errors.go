package domain

import "errors"

// ErrUserExit is the control-flow signal raised by a tool when the user
// requests termination. It MUST propagate uncaught through every node
// wrapper so the engine stops promptly; it is the one exception to the
// "capture errors into state" rule.
var ErrUserExit = errors.New("user requested exit")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownNodeKind is returned when the factory registry has no
// constructor for a node's kind.
var ErrUnknownNodeKind = errors.New("unknown node kind")

// Protocol error kinds. These are captured into state, not raised, but
// kept distinct so callers can tell a dead server from a failing tool.
var (
	ErrProtocolConnect = errors.New("protocol connect failed")
	ErrProtocolCall    = errors.New("protocol tool call failed")
	ErrProtocolTimeout = errors.New("protocol call timed out")
)
