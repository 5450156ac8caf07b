// Package compiler translates a validated Specification into an executable
// runtime.Graph: each declared node is turned into a pure State -> State
// function by its kind's factory, and the edge list is resolved into
// per-source routers.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
)

// Capabilities bundles the external collaborators node factories close
// over. The core never talks to a provider directly; it only sees these
// interfaces.
type Capabilities struct {
	LLM       ports.LLMFactory
	Tools     ports.ToolRegistry
	Protocol  ports.ProtocolDialer
	CodeAgent ports.CodeAgent
	Hooks     domain.LifecycleHooks
	Logger    *slog.Logger
}

// Factory builds the node function for one declared node, closing over its
// configuration and the injected capability.
type Factory func(spec *domain.Specification, node domain.Node, caps *Capabilities) (runtime.NodeFunc, error)

// Registry maps node kind tags to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry preloaded with the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(domain.KindAgent, agentFactory)
	r.Register(domain.KindJudge, judgeFactory)
	r.Register(domain.KindTool, toolFactory)
	r.Register(domain.KindBranch, branchFactory)
	r.Register(domain.KindMCP, mcpFactory)
	r.Register(domain.KindCode, codeFactory)
	return r
}

// Register adds or replaces a factory for a kind.
func (r *Registry) Register(kind string, factory Factory) {
	r.factories[kind] = factory
}

// Get returns the factory for a kind. An unknown kind is a fatal
// configuration error, not something to paper over at execution time.
func (r *Registry) Get(kind string) (Factory, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNodeKind, kind)
	}
	return f, nil
}
