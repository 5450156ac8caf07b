package compiler

import (
	"context"
	"fmt"

	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
)

// codeConfig is the typed view of a code node's config bag.
type codeConfig struct {
	Prompt    string         `mapstructure:"prompt"`
	OutputKey string         `mapstructure:"output_key"`
	Options   map[string]any `mapstructure:"options"`
}

// codeFactory builds the node function for an external code agent. When no
// backend capability is injected, the node reports capability-not-available
// into state at execution time: the contract is unaffected by whether the
// real SDK exists, only by which implementation was wired in.
func codeFactory(_ *domain.Specification, node domain.Node, caps *Capabilities) (runtime.NodeFunc, error) {
	var cfg codeConfig
	if err := decodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("node %q: decode code config: %w", node.ID, err)
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "{input}"
	}

	return func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		next := state.Clone()

		if caps.CodeAgent == nil {
			msg := "code agent capability not available"
			next.Output = "Error: " + msg
			next.ErrorContext = msg
			return next, nil
		}

		resp, err := caps.CodeAgent.Run(ctx, renderTemplate(cfg.Prompt, state), cfg.Options)
		if err != nil {
			next.Output = "Error: " + err.Error()
			next.ErrorContext = err.Error()
			return next, nil
		}

		next.ErrorContext = ""
		if cfg.OutputKey != "" {
			next.Set(cfg.OutputKey, resp)
		} else {
			next.Output = resp
		}
		return next, nil
	}, nil
}
