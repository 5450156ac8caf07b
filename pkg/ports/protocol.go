package ports

import (
	"context"

	"github.com/aretw0/plait/pkg/domain"
)

// ToolSession is one connection to an external tool-protocol server.
// Its lifetime is exactly one node invocation: Connect, CallTool,
// Disconnect. Disconnect must be safe to call after a failed Connect.
type ToolSession interface {
	// Connect performs the protocol handshake (initialize) and capability
	// query (tools/list).
	Connect(ctx context.Context) error

	// CallTool invokes a named tool. Protocol-level failures are returned
	// as errors wrapping domain.ErrProtocolCall or domain.ErrProtocolTimeout.
	CallTool(ctx context.Context, name string, params map[string]any) (any, error)

	// Disconnect tears the session down. Idempotent.
	Disconnect() error
}

// ProtocolDialer creates sessions from per-node server configuration.
type ProtocolDialer interface {
	Dial(cfg domain.MCPServerConfig) (ToolSession, error)
}

// DialerFunc adapts a function to the ProtocolDialer interface.
type DialerFunc func(cfg domain.MCPServerConfig) (ToolSession, error)

func (f DialerFunc) Dial(cfg domain.MCPServerConfig) (ToolSession, error) {
	return f(cfg)
}
