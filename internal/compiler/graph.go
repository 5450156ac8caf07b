package compiler

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/plait/internal/logging"
	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/condition"
	"github.com/aretw0/plait/pkg/domain"
)

// Builder compiles validated specifications into executable graphs.
type Builder struct {
	registry *Registry
	caps     *Capabilities
	logger   *slog.Logger
}

// NewBuilder creates a Builder around a factory registry and the injected
// capabilities.
func NewBuilder(registry *Registry, caps *Capabilities) *Builder {
	logger := logging.NewNop()
	if caps != nil && caps.Logger != nil {
		logger = caps.Logger
	}
	return &Builder{registry: registry, caps: caps, logger: logger}
}

// Build translates the spec into a runtime.Graph. The entry point is the
// first declared node.
func (b *Builder) Build(spec *domain.Specification) (*runtime.Graph, error) {
	if len(spec.Workflow.Nodes) == 0 {
		return nil, fmt.Errorf("workflow has no nodes")
	}

	g := runtime.NewGraph(spec.Workflow.Nodes[0].ID)
	g.SetLogger(b.logger)
	if b.caps != nil {
		g.SetHooks(b.caps.Hooks)
	}
	// The engine bound is a guard for looped patterns; scale it by the
	// node count so a long sequential chain is never cut short.
	g.SetMaxSteps(spec.MaxIterations() * max(1, len(spec.Workflow.Nodes)))

	for _, node := range spec.Workflow.Nodes {
		factory, err := b.registry.Get(node.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", node.ID, err)
		}
		fn, err := factory(spec, node, b.caps)
		if err != nil {
			return nil, err
		}
		g.AddNode(node.ID, node.Kind, fn)
		if node.Stop {
			g.MarkStop(node.ID)
		}
	}

	if err := b.wireEdges(spec, g); err != nil {
		return nil, err
	}
	return g, nil
}

// wireEdges resolves the edge list into per-source routers and direct
// edges. For sequential workflows, declaration-order links are layered
// underneath any explicit edges.
func (b *Builder) wireEdges(spec *domain.Specification, g *runtime.Graph) error {
	type sourceEdges struct {
		conditional   []domain.Edge
		unconditional []domain.Edge
	}

	bySource := make(map[string]*sourceEdges)
	order := make([]string, 0, len(spec.Workflow.Nodes))
	edgesFor := func(src string) *sourceEdges {
		se, ok := bySource[src]
		if !ok {
			se = &sourceEdges{}
			bySource[src] = se
			order = append(order, src)
		}
		return se
	}

	for _, e := range spec.Workflow.Edges {
		se := edgesFor(e.Source)
		if e.Condition != "" {
			se.conditional = append(se.conditional, e)
		} else {
			se.unconditional = append(se.unconditional, e)
		}
	}

	// Sequential auto-linking: an implicit unconditional edge between each
	// adjacent declaration pair, appended after explicit edges so those
	// keep priority.
	if spec.Workflow.Pattern == domain.PatternSequential {
		nodes := spec.Workflow.Nodes
		for i := 0; i+1 < len(nodes); i++ {
			se := edgesFor(nodes[i].ID)
			se.unconditional = append(se.unconditional, domain.Edge{
				Source: nodes[i].ID,
				Target: nodes[i+1].ID,
			})
		}
	}

	for _, src := range order {
		se := bySource[src]

		if len(se.conditional) == 0 {
			// Only unconditional edges: wire directly, fan-out allowed.
			for _, e := range se.unconditional {
				g.AddDirectEdge(e.Source, e.Target)
			}
			continue
		}

		// Conditional edges present: merge everything from this source
		// into one router.
		router := &runtime.Router{Source: src}
		for _, e := range se.conditional {
			compiled, err := condition.Compile(e.Condition)
			rule := runtime.Rule{Cond: compiled, CompileErr: err, Target: e.Target, Expr: e.Condition}
			router.Rules = append(router.Rules, rule)
		}

		if len(se.unconditional) > 0 {
			router.Default = se.unconditional[0].Target
			if len(se.unconditional) > 1 {
				// Recognized ambiguous-spec situation: several defaults
				// next to conditions. First one wins.
				b.logger.Warn("multiple unconditional edges alongside conditional edges; using first as default",
					"source", src, "default", router.Default)
			}
		}
		g.SetRouter(src, router)
	}

	return nil
}
