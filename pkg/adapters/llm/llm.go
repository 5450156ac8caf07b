// Package llm provides model-backend implementations of the LLM port.
// Each client speaks one provider's HTTP API directly; the factory maps a
// workflow's provider declaration to the right client.
package llm

import (
	"fmt"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
)

// NewFactory returns an LLMFactory covering the built-in providers.
// The provider string in the workflow selects the backend:
//
//	anthropic          Anthropic messages API
//	openai             OpenAI chat completions API
//	openai-compatible  any chat-completions endpoint, base_url in params
func NewFactory() ports.LLMFactory {
	return func(cfg domain.LLMConfig) (ports.LLMClient, error) {
		switch cfg.Provider {
		case "anthropic":
			return NewAnthropic(cfg), nil
		case "openai", "openai-compatible":
			return NewOpenAI(cfg), nil
		default:
			return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
		}
	}
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}
