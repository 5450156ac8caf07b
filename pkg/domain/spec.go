package domain

// Node kinds define the behavior attached to a workflow step.
const (
	// KindAgent invokes an LLM with a rendered prompt template.
	KindAgent = "agent"
	// KindJudge invokes an LLM and interprets the response as a numeric
	// evaluation score.
	KindJudge = "judge"
	// KindTool invokes an in-process callable registered by the host.
	KindTool = "tool"
	// KindBranch is a pass-through; routing lives entirely in its edges.
	KindBranch = "branch"
	// KindMCP calls a tool on an external MCP server (connect/call/disconnect
	// per invocation).
	KindMCP = "mcp"
	// KindCode delegates to an SDK-mediated coding agent capability.
	KindCode = "code"
)

// Workflow pattern types.
const (
	PatternSequential = "sequential"
	PatternLoop       = "loop"
	PatternEvaluator  = "evaluator-optimizer"
	PatternGraph      = "graph"
)

// EndNode is the terminal sentinel of every compiled graph.
const EndNode = "__end__"

// DefaultMaxIterations bounds looped workflows when the spec does not
// declare max_iterations.
const DefaultMaxIterations = 10

// LLMConfig describes one named model configuration.
type LLMConfig struct {
	Provider    string         `json:"provider" yaml:"provider"`
	Model       string         `json:"model" yaml:"model"`
	Temperature float64        `json:"temperature" yaml:"temperature"`
	Params      map[string]any `json:"params,omitempty" yaml:"params,omitempty"`

	// APIKey is the resolved credential. It is filled during parsing
	// (typically from an environment reference) and never round-tripped
	// back out.
	APIKey string `json:"-" yaml:"-"`
}

// Function kinds.
const (
	// FunctionCallable references an in-process tool registered on the engine.
	FunctionCallable = "callable"
	// FunctionProtocol references an external tool-protocol entrypoint.
	FunctionProtocol = "protocol"
)

// FunctionConfig describes one named tool binding.
type FunctionConfig struct {
	Kind       string `json:"kind" yaml:"kind"`
	Entrypoint string `json:"entrypoint" yaml:"entrypoint"`
}

// Node is a single unit of work in the workflow graph.
// Nodes are created at spec-parse time and immutable thereafter; the
// graph builder consumes each one exactly once to produce a node function.
type Node struct {
	ID     string         `json:"id" yaml:"id"`
	Kind   string         `json:"kind" yaml:"kind"`
	Ref    string         `json:"ref,omitempty" yaml:"ref,omitempty"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Stop   bool           `json:"stop,omitempty" yaml:"stop,omitempty"`
}

// Edge is a directed, optionally conditional transition between two nodes.
type Edge struct {
	Source    string `json:"source" yaml:"source"`
	Target    string `json:"target" yaml:"target"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// WorkflowConfig is the graph declaration inside a Specification.
type WorkflowConfig struct {
	Pattern       string `json:"pattern" yaml:"pattern"`
	Nodes         []Node `json:"nodes" yaml:"nodes"`
	Edges         []Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`

	// Output optionally names the node whose result is the designated
	// final output of the workflow.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// Specification is the validated, fully-resolved workflow declaration.
// All references (node -> llm, node -> function, edge endpoints) are
// guaranteed to resolve once parsing succeeds.
type Specification struct {
	Name      string                    `json:"name,omitempty" yaml:"name,omitempty"`
	LLMs      map[string]LLMConfig      `json:"llms,omitempty" yaml:"llms,omitempty"`
	Functions map[string]FunctionConfig `json:"functions,omitempty" yaml:"functions,omitempty"`
	Workflow  WorkflowConfig            `json:"workflow" yaml:"workflow"`
}

// NodeByID returns the declared node with the given id.
func (s *Specification) NodeByID(id string) (Node, bool) {
	for _, n := range s.Workflow.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// MaxIterations returns the declared bound, or DefaultMaxIterations when unset.
func (s *Specification) MaxIterations() int {
	if s.Workflow.MaxIterations > 0 {
		return s.Workflow.MaxIterations
	}
	return DefaultMaxIterations
}

// MCPServerConfig is the per-node configuration of an external
// tool-protocol server, decoded from the node's config bag.
type MCPServerConfig struct {
	Command string            `json:"command" yaml:"command" mapstructure:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty" mapstructure:"env"`
}
