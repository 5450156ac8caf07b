package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/plait/internal/logging"
	"github.com/aretw0/plait/pkg/condition"
	"github.com/aretw0/plait/pkg/domain"
)

// NodeFunc executes one unit of work. It consumes a state snapshot and
// returns a new snapshot; it never mutates its input. An error return is
// reserved for control-flow signals (domain.ErrUserExit) and fatal
// conditions; recoverable failures are captured into the returned state.
type NodeFunc func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error)

// Rule is one conditional dispatch entry inside a Router.
type Rule struct {
	// Cond is the compiled predicate, nil when compilation failed.
	Cond *condition.Compiled
	// CompileErr is surfaced at traversal time as a fatal routing error,
	// never silently swallowed.
	CompileErr error
	// Target is the edge's declared target node.
	Target string
	// Expr is the original condition text, kept for diagnostics.
	Expr string
}

// Router is the merged conditional-dispatch function for one source node.
// Rules are evaluated in declaration order; the first match wins.
type Router struct {
	Source  string
	Rules   []Rule
	Default string // first unconditional target; empty falls through to END
}

// Route picks the next node for a state snapshot.
func (r *Router) Route(state *domain.WorkflowState) (string, error) {
	for _, rule := range r.Rules {
		if rule.CompileErr != nil {
			return "", fmt.Errorf("routing from %q: condition %q: %w", r.Source, rule.Expr, rule.CompileErr)
		}
		if rule.Cond.IsTarget() {
			// The condition text names the destination directly.
			return rule.Cond.Target(), nil
		}
		ok, err := rule.Cond.Eval(state)
		if err != nil {
			return "", fmt.Errorf("routing from %q: condition %q: %w", r.Source, rule.Expr, err)
		}
		if ok {
			return rule.Target, nil
		}
	}
	if r.Default != "" {
		return r.Default, nil
	}
	return domain.EndNode, nil
}

// Graph is the compiled, executable form of a workflow specification.
// States of the machine are the node ids plus the END sentinel.
type Graph struct {
	entry    string
	nodes    map[string]NodeFunc
	kinds    map[string]string
	routers  map[string]*Router
	direct   map[string][]string
	stops    map[string]bool
	maxSteps int

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// NewGraph creates an empty graph with the given entry node id.
func NewGraph(entry string) *Graph {
	return &Graph{
		entry:    entry,
		nodes:    make(map[string]NodeFunc),
		kinds:    make(map[string]string),
		routers:  make(map[string]*Router),
		direct:   make(map[string][]string),
		stops:    make(map[string]bool),
		maxSteps: domain.DefaultMaxIterations,
		logger:   logging.NewNop(),
	}
}

// AddNode registers a node function under its id.
func (g *Graph) AddNode(id, kind string, fn NodeFunc) {
	g.nodes[id] = fn
	g.kinds[id] = kind
}

// SetRouter attaches the merged conditional router for a source node.
func (g *Graph) SetRouter(source string, router *Router) {
	g.routers[source] = router
}

// AddDirectEdge wires an unconditional transition. Multiple targets per
// source are allowed (fan-out); traversal follows the first.
func (g *Graph) AddDirectEdge(source, target string) {
	g.direct[source] = append(g.direct[source], target)
}

// MarkStop wires a node to END regardless of its other outgoing edges.
func (g *Graph) MarkStop(id string) {
	g.stops[id] = true
}

// SetMaxSteps bounds the traversal.
func (g *Graph) SetMaxSteps(n int) {
	if n > 0 {
		g.maxSteps = n
	}
}

// SetLogger attaches a structured logger.
func (g *Graph) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// SetHooks attaches lifecycle hooks.
func (g *Graph) SetHooks(hooks domain.LifecycleHooks) {
	g.hooks = hooks
}

// Entry returns the entry node id.
func (g *Graph) Entry() string { return g.entry }

// NodeIDs returns the registered node ids in no particular order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// NodeKind returns the kind tag of a registered node.
func (g *Graph) NodeKind(id string) string { return g.kinds[id] }

// Router returns the router attached to a source node, if any.
func (g *Graph) Router(source string) *Router { return g.routers[source] }

// DirectEdges returns the unconditional targets of a source node.
func (g *Graph) DirectEdges(source string) []string { return g.direct[source] }

// IsStop reports whether a node routes straight to END.
func (g *Graph) IsStop(id string) bool { return g.stops[id] }

// next resolves the transition out of the node that just executed.
func (g *Graph) next(current string, state *domain.WorkflowState) (string, error) {
	if g.stops[current] {
		return domain.EndNode, nil
	}
	if router, ok := g.routers[current]; ok {
		return router.Route(state)
	}
	targets := g.direct[current]
	if len(targets) == 0 {
		return domain.EndNode, nil
	}
	if len(targets) > 1 {
		g.logger.Debug("fan-out source, following first target", "source", current, "targets", targets)
	}
	return targets[0], nil
}
