package compiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
)

// toolFactory builds the node function for an in-process tool. The
// capability's return value is handled polymorphically: strings overwrite
// output, mappings merge into state, anything else is stringified.
func toolFactory(spec *domain.Specification, node domain.Node, caps *Capabilities) (runtime.NodeFunc, error) {
	fnCfg, ok := spec.Functions[node.Ref]
	if !ok {
		return nil, fmt.Errorf("node %q: function ref %q does not resolve", node.ID, node.Ref)
	}
	if fnCfg.Kind != domain.FunctionCallable {
		return nil, fmt.Errorf("node %q: function %q is %s-kind; protocol tools are invoked by mcp nodes", node.ID, node.Ref, fnCfg.Kind)
	}
	if caps.Tools == nil {
		return nil, fmt.Errorf("node %q: no tool capability configured", node.ID)
	}
	fn, ok := caps.Tools.Resolve(fnCfg.Entrypoint)
	if !ok {
		return nil, fmt.Errorf("node %q: no tool registered for entrypoint %q", node.ID, fnCfg.Entrypoint)
	}

	return func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		next := state.Clone()

		result, err := fn(ctx, state)
		if err != nil {
			if errors.Is(err, domain.ErrUserExit) {
				// Termination signal: the one error that must escape.
				return nil, err
			}
			next.Output = "Error: " + err.Error()
			next.ErrorContext = err.Error()
			return next, nil
		}

		next.ErrorContext = ""
		applyToolResult(next, result)
		return next, nil
	}, nil
}

// applyToolResult merges a polymorphic tool return value into the state.
func applyToolResult(state *domain.WorkflowState, result any) {
	switch v := result.(type) {
	case string:
		state.Output = v
	case map[string]any:
		for k, val := range v {
			state.Set(k, val)
		}
	case nil:
		// Nothing to record.
	default:
		state.Output = fmt.Sprintf("%v", v)
	}
}

// branchFactory is a pass-through: branch nodes carry no behavior of their
// own, all routing logic lives in their outgoing edges.
func branchFactory(_ *domain.Specification, _ domain.Node, _ *Capabilities) (runtime.NodeFunc, error) {
	return func(_ context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		return state.Clone(), nil
	}, nil
}
