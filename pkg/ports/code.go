package ports

import "context"

// CodeAgent is the SDK-mediated coding-agent capability consumed by code
// nodes. Whether the real backend exists only changes which implementation
// is injected; the node contract is unaffected.
type CodeAgent interface {
	Run(ctx context.Context, prompt string, options map[string]any) (string, error)
}

// CodeAgentFunc adapts a function to the CodeAgent interface.
type CodeAgentFunc func(ctx context.Context, prompt string, options map[string]any) (string, error)

func (f CodeAgentFunc) Run(ctx context.Context, prompt string, options map[string]any) (string, error) {
	return f(ctx, prompt, options)
}
