package plait

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/plait/internal/compiler"
	"github.com/aretw0/plait/internal/logging"
	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
	"github.com/google/uuid"
)

// Version is the library version, overridable at build time.
var Version = "0.2.0"

// Engine is the high-level entry point for the Plait library. It compiles
// a validated Specification into an executable graph and runs it against
// user prompts.
type Engine struct {
	spec     *domain.Specification
	graph    *runtime.Graph
	registry *compiler.Registry
	caps     compiler.Capabilities
	store    ports.StateStore
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLLMFactory injects the model capability used by agent and judge nodes.
func WithLLMFactory(factory ports.LLMFactory) Option {
	return func(e *Engine) { e.caps.LLM = factory }
}

// WithLLM binds a single client to every LLM configuration. Convenient for
// hosts (and tests) with one backend.
func WithLLM(client ports.LLMClient) Option {
	return func(e *Engine) {
		e.caps.LLM = func(domain.LLMConfig) (ports.LLMClient, error) { return client, nil }
	}
}

// WithTools injects the in-process tool registry.
func WithTools(tools ports.ToolRegistry) Option {
	return func(e *Engine) { e.caps.Tools = tools }
}

// WithProtocolDialer injects the external tool-protocol capability used by
// mcp nodes.
func WithProtocolDialer(dialer ports.ProtocolDialer) Option {
	return func(e *Engine) { e.caps.Protocol = dialer }
}

// WithCodeAgent injects the coding-agent capability used by code nodes.
func WithCodeAgent(agent ports.CodeAgent) Option {
	return func(e *Engine) { e.caps.CodeAgent = agent }
}

// WithStore persists final states per session for later retrieval.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.caps.Hooks = hooks }
}

// WithNodeKind registers a custom node kind factory, extending or
// overriding the built-in set.
func WithNodeKind(kind string, factory compiler.Factory) Option {
	return func(e *Engine) { e.registry.Register(kind, factory) }
}

// New compiles a specification into a runnable engine.
func New(spec *domain.Specification, opts ...Option) (*Engine, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil specification")
	}

	eng := &Engine{
		spec:     spec,
		registry: compiler.NewRegistry(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.caps.LLM == nil {
		// Capability-not-available variant: agent and judge nodes still
		// compile, and report the missing backend into state at run time.
		eng.caps.LLM = unavailableLLM
	}
	eng.caps.Logger = eng.logger

	graph, err := compiler.NewBuilder(eng.registry, &eng.caps).Build(spec)
	if err != nil {
		return nil, fmt.Errorf("compile workflow: %w", err)
	}
	eng.graph = graph
	return eng, nil
}

// Invoke runs the workflow against a prompt. An empty sessionID gets a
// generated one; distinct sessions never share state. The returned state
// is the snapshot present when END (or the step bound) was reached.
func (e *Engine) Invoke(ctx context.Context, input, sessionID string) (*domain.WorkflowState, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	state, err := e.graph.Invoke(ctx, input, sessionID)
	if state != nil && e.store != nil {
		if saveErr := e.store.Save(ctx, sessionID, state); saveErr != nil {
			e.logger.Warn("failed to persist final state", "session", sessionID, "err", saveErr)
		}
	}
	return state, err
}

// Output extracts the designated output field from a final state: the
// output node's custom key when one is declared, the plain output field
// otherwise.
func (e *Engine) Output(state *domain.WorkflowState) string {
	if state == nil {
		return ""
	}
	if out := e.spec.Workflow.Output; out != "" {
		if node, ok := e.spec.NodeByID(out); ok {
			if key, ok := node.Config["output_key"].(string); ok && key != "" {
				if v, ok := state.Dynamic[key]; ok {
					return fmt.Sprintf("%v", v)
				}
			}
		}
	}
	return state.Output
}

// Spec returns the compiled specification.
func (e *Engine) Spec() *domain.Specification { return e.spec }

// Graph exposes the compiled graph for introspection and visualization.
func (e *Engine) Graph() *runtime.Graph { return e.graph }

func unavailableLLM(cfg domain.LLMConfig) (ports.LLMClient, error) {
	return ports.LLMFunc(func(context.Context, ports.GenerateRequest) (string, error) {
		return "", fmt.Errorf("llm capability not available for provider %q", cfg.Provider)
	}), nil
}
