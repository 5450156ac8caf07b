package compiler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
)

// judgeConfig is the typed view of a judge node's config bag.
type judgeConfig struct {
	Prompt       string `mapstructure:"prompt"`
	Instructions string `mapstructure:"instructions"`
}

// judgeFactory builds the node function for a judge: feed the prior
// output to the LLM and interpret the response as a numeric
// evaluation_score. Any parse failure defaults the score to 0.0, never
// null, so downstream threshold comparisons always have a number to work
// with. iteration_count increments on every invocation, error paths
// included.
func judgeFactory(spec *domain.Specification, node domain.Node, caps *Capabilities) (runtime.NodeFunc, error) {
	var cfg judgeConfig
	if err := decodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("node %q: decode judge config: %w", node.ID, err)
	}
	if cfg.Instructions == "" {
		cfg.Instructions = `You are an evaluator. Respond with a JSON object containing a numeric "evaluation_score" field between 0 and 10.`
	}

	llmCfg := spec.LLMs[node.Ref]
	client, err := resolveLLM(caps, llmCfg)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", node.ID, err)
	}

	return func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		next := state.Clone()
		next.IterationCount++

		subject := state.Output
		if subject == "" {
			subject = state.Input
		}
		prompt := subject
		if cfg.Prompt != "" {
			prompt = renderTemplate(cfg.Prompt, state)
		}

		emitLLMCall(ctx, caps, node.ID, llmCfg.Model, state.SessionID)
		resp, err := client.Generate(ctx, ports.GenerateRequest{
			Prompt:       prompt,
			SystemPrompt: renderTemplate(cfg.Instructions, state),
			SessionID:    state.SessionID,
		})
		emitLLMReturn(ctx, caps, node.ID, llmCfg.Model, state.SessionID, err != nil)
		if err != nil {
			next.ErrorContext = err.Error()
			next.EvaluationScore = 0.0
			return next, nil
		}

		next.ErrorContext = ""
		next.EvaluationScore = parseScore(resp)
		return next, nil
	}, nil
}

// parseScore extracts evaluation_score from a model response, stripping an
// optional markdown code fence first. Malformed JSON, a missing key, or a
// non-numeric value all yield 0.0.
func parseScore(resp string) float64 {
	var m map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &m); err != nil {
		return 0.0
	}
	switch v := m["evaluation_score"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}
