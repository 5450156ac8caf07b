package ports

import (
	"context"

	"github.com/aretw0/plait/pkg/domain"
)

// GenerateRequest carries one model invocation.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string

	// SessionID correlates the call with a downstream conversation thread.
	// The core threads it through; the capability decides what to do with it.
	SessionID string
}

// LLMClient is the single capability the core requires per configured LLM.
type LLMClient interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// LLMFactory resolves a named LLM configuration into a client.
// It is called once per agent/judge node at compile time, so the returned
// client is closed over by that node's function.
type LLMFactory func(cfg domain.LLMConfig) (LLMClient, error)

// LLMFunc adapts a plain function to the LLMClient interface.
type LLMFunc func(ctx context.Context, req GenerateRequest) (string, error)

func (f LLMFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}
