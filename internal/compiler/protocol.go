package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
)

// mcpConfig is the typed view of an mcp node's config bag. The server and
// tool subkeys are guaranteed present by spec validation.
type mcpConfig struct {
	Server    domain.MCPServerConfig `mapstructure:"server"`
	Tool      string                 `mapstructure:"tool"`
	Params    map[string]any         `mapstructure:"params"`
	OutputKey string                 `mapstructure:"output_key"`
	Timeout   time.Duration          `mapstructure:"timeout"`
}

// mcpFactory builds the node function for an external-tool-protocol node.
// Each invocation owns exactly one session: connect, call, disconnect,
// with disconnect guaranteed on every exit path. Connection failure,
// call failure, and timeout stay state-visible and distinguishable.
func mcpFactory(_ *domain.Specification, node domain.Node, caps *Capabilities) (runtime.NodeFunc, error) {
	var cfg mcpConfig
	if err := decodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("node %q: decode mcp config: %w", node.ID, err)
	}
	if caps.Protocol == nil {
		return nil, fmt.Errorf("node %q: no tool-protocol capability configured", node.ID)
	}

	return func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		next := state.Clone()

		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		session, err := caps.Protocol.Dial(cfg.Server)
		if err != nil {
			recordProtocolError(next, domain.ErrProtocolConnect, err)
			return next, nil
		}
		defer session.Disconnect()

		if err := session.Connect(ctx); err != nil {
			recordProtocolError(next, domain.ErrProtocolConnect, err)
			return next, nil
		}

		params := make(map[string]any, len(cfg.Params))
		for k, v := range cfg.Params {
			if s, ok := v.(string); ok {
				params[k] = renderTemplate(s, state)
			} else {
				params[k] = v
			}
		}
		if len(params) == 0 {
			params = map[string]any{"input": state.Input}
		}

		result, err := session.CallTool(ctx, cfg.Tool, params)
		if err != nil {
			kind := domain.ErrProtocolCall
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrProtocolTimeout) {
				kind = domain.ErrProtocolTimeout
			}
			recordProtocolError(next, kind, err)
			return next, nil
		}

		next.ErrorContext = ""
		if cfg.OutputKey != "" {
			next.Set(cfg.OutputKey, result)
		} else {
			applyToolResult(next, result)
		}
		return next, nil
	}, nil
}

// recordProtocolError captures a protocol failure into state with its
// kind preserved so callers can distinguish a dead server from a failing
// tool from a timeout.
func recordProtocolError(state *domain.WorkflowState, kind error, cause error) {
	msg := fmt.Sprintf("%v: %v", kind, cause)
	state.Output = "Error: " + msg
	state.ErrorContext = msg
}
