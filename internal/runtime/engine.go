package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/plait/pkg/domain"
)

// Invoke runs the compiled graph from its entry node: execute the node
// function, follow the router (or direct edge) at the resulting state,
// repeat until END or the step bound. It seeds the state with the
// caller-provided input and returns the state present at termination.
//
// Exactly one node function executes at a time. A node's output is applied
// only on successful return, so cancellation between nodes never leaves a
// half-updated state.
func (g *Graph) Invoke(ctx context.Context, input, sessionID string) (*domain.WorkflowState, error) {
	return g.Run(ctx, domain.NewState(input, sessionID))
}

// Run continues traversal from an existing state snapshot.
func (g *Graph) Run(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
	if state == nil {
		return nil, fmt.Errorf("nil initial state")
	}

	current := g.entry
	for step := 0; current != domain.EndNode; step++ {
		if step >= g.maxSteps {
			// Looped patterns are expected to route to END via their own
			// iteration conditions; hitting the engine bound is a guard,
			// not a crash.
			g.logger.Warn("step bound reached, terminating traversal",
				"step", step, "node", current, "session", state.SessionID)
			return state, nil
		}

		if err := ctx.Err(); err != nil {
			return state, err
		}

		fn, ok := g.nodes[current]
		if !ok {
			return nil, fmt.Errorf("traversal reached undeclared node %q", current)
		}

		g.emitNodeEnter(ctx, current, step, state)
		started := time.Now()

		next, err := fn(ctx, state)
		if err != nil {
			if errors.Is(err, domain.ErrUserExit) {
				// The one signal that must pass through every wrapper.
				g.logger.Info("user exit requested", "node", current, "session", state.SessionID)
				return state, err
			}
			return nil, fmt.Errorf("node %q: %w", current, err)
		}

		state = next
		state.CurrentNode = current

		g.emitNodeLeave(ctx, current, step, state)
		g.logger.Debug("node executed",
			"node", current,
			"kind", g.kinds[current],
			"step", step,
			"duration", time.Since(started),
			"iteration_count", state.IterationCount)

		current, err = g.next(current, state)
		if err != nil {
			return nil, err
		}
	}

	return state, nil
}

func (g *Graph) emitNodeEnter(ctx context.Context, id string, step int, state *domain.WorkflowState) {
	if g.hooks.OnNodeEnter == nil {
		return
	}
	g.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventNodeEnter,
		SessionID: state.SessionID,
		NodeID:    id,
		NodeKind:  g.kinds[id],
		Step:      step,
	})
}

func (g *Graph) emitNodeLeave(ctx context.Context, id string, step int, state *domain.WorkflowState) {
	if g.hooks.OnNodeLeave == nil {
		return
	}
	g.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventNodeLeave,
		SessionID: state.SessionID,
		NodeID:    id,
		NodeKind:  g.kinds[id],
		Step:      step,
	})
}
