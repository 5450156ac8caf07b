package compiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticLLM returns canned responses in order, recording the requests.
type staticLLM struct {
	responses []string
	err       error
	calls     []ports.GenerateRequest
}

func (s *staticLLM) Generate(_ context.Context, req ports.GenerateRequest) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.calls) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func capsWith(client ports.LLMClient) *Capabilities {
	return &Capabilities{
		LLM: func(domain.LLMConfig) (ports.LLMClient, error) { return client, nil },
	}
}

func specWithLLM() *domain.Specification {
	return &domain.Specification{
		LLMs: map[string]domain.LLMConfig{
			"fast": {Provider: "anthropic", Model: "claude-3-5-haiku"},
		},
	}
}

func TestAgent_PromptInterpolation(t *testing.T) {
	llm := &staticLLM{responses: []string{"a summary"}}
	node := domain.Node{
		ID:   "draft",
		Kind: domain.KindAgent,
		Ref:  "fast",
		Config: map[string]any{
			"prompt":       "Summarize: {input} (attempt {iteration_count})",
			"instructions": "Be brief.",
		},
	}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	state := domain.NewState("long article", "s1")
	next, err := fn(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, llm.calls, 1)
	assert.Equal(t, "Summarize: long article (attempt 0)", llm.calls[0].Prompt)
	assert.Equal(t, "Be brief.", llm.calls[0].SystemPrompt)
	assert.Equal(t, "s1", llm.calls[0].SessionID)
	assert.Equal(t, "a summary", next.Output)

	// Input state is never mutated.
	assert.Empty(t, state.Output)
}

func TestAgent_DefaultPromptIsInput(t *testing.T) {
	llm := &staticLLM{responses: []string{"ok"}}
	node := domain.Node{ID: "draft", Kind: domain.KindAgent, Ref: "fast"}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	_, err = fn(context.Background(), domain.NewState("raw prompt", ""))
	require.NoError(t, err)
	assert.Equal(t, "raw prompt", llm.calls[0].Prompt)
}

func TestAgent_OutputKey(t *testing.T) {
	llm := &staticLLM{responses: []string{"draft text"}}
	node := domain.Node{
		ID: "draft", Kind: domain.KindAgent, Ref: "fast",
		Config: map[string]any{"output_key": "draft"},
	}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err := fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err)
	assert.Equal(t, "draft text", next.Dynamic["draft"])
	assert.Empty(t, next.Output)
}

func TestAgent_ErrorIsStateVisible(t *testing.T) {
	llm := &staticLLM{err: fmt.Errorf("model overloaded")}
	node := domain.Node{ID: "draft", Kind: domain.KindAgent, Ref: "fast"}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err := fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err, "provider failure must not abort traversal")
	assert.Equal(t, "Error: model overloaded", next.Output)
	assert.Equal(t, "model overloaded", next.ErrorContext)
}

func TestAgent_ErrorContextClearedOnSuccess(t *testing.T) {
	llm := &staticLLM{responses: []string{"fine"}}
	node := domain.Node{ID: "draft", Kind: domain.KindAgent, Ref: "fast"}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	state := domain.NewState("in", "")
	state.ErrorContext = "previous failure"
	next, err := fn(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, next.ErrorContext)
}

func TestAgent_CountIterations(t *testing.T) {
	llm := &staticLLM{responses: []string{"v1"}}
	node := domain.Node{
		ID: "draft", Kind: domain.KindAgent, Ref: "fast",
		Config: map[string]any{"count_iterations": true},
	}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	state := domain.NewState("in", "")
	state.IterationCount = 2
	next, err := fn(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 3, next.IterationCount)
}

func TestAgent_FormatJSON(t *testing.T) {
	llm := &staticLLM{responses: []string{"```json\n{\"summary\": \"hi\", \"score\": 4}\n```"}}
	node := domain.Node{
		ID: "draft", Kind: domain.KindAgent, Ref: "fast",
		Config: map[string]any{"format": "json"},
	}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err := fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err)
	assert.Equal(t, "valid", next.Dynamic[domain.KeyFormatStatus])

	parsed, ok := next.Dynamic[domain.KeyStructuredOutput].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", parsed["summary"])
}

func TestAgent_FormatInvalid(t *testing.T) {
	llm := &staticLLM{responses: []string{"this is not json"}}
	node := domain.Node{
		ID: "draft", Kind: domain.KindAgent, Ref: "fast",
		Config: map[string]any{"format": "json"},
	}

	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err := fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err, "format trouble is recoverable")
	assert.Equal(t, "invalid", next.Dynamic[domain.KeyFormatStatus])
	assert.Equal(t, "this is not json", next.Output)
}

func TestAgent_FieldSchemaValidation(t *testing.T) {
	node := domain.Node{
		ID: "draft", Kind: domain.KindAgent, Ref: "fast",
		Config: map[string]any{
			"format": "json",
			"schema": map[string]any{"summary": "string", "score": "float"},
		},
	}

	llm := &staticLLM{responses: []string{`{"summary": "hi", "score": 4.5}`}}
	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err := fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err)
	assert.Equal(t, "valid", next.Dynamic[domain.KeyValidationStatus])

	llm = &staticLLM{responses: []string{`{"summary": 99}`}}
	fn, err = agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err = fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err)
	assert.Equal(t, "error", next.Dynamic[domain.KeyValidationStatus])
}

func TestAgent_JSONSchemaValidation(t *testing.T) {
	node := domain.Node{
		ID: "draft", Kind: domain.KindAgent, Ref: "fast",
		Config: map[string]any{
			"format": "json",
			"json_schema": map[string]any{
				"type":     "object",
				"required": []any{"summary"},
				"properties": map[string]any{
					"summary": map[string]any{"type": "string"},
				},
			},
		},
	}

	llm := &staticLLM{responses: []string{`{"summary": "hi"}`}}
	fn, err := agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err := fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err)
	assert.Equal(t, "valid", next.Dynamic[domain.KeyValidationStatus])

	llm = &staticLLM{responses: []string{`{"other": 1}`}}
	fn, err = agentFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	next, err = fn(context.Background(), domain.NewState("in", ""))
	require.NoError(t, err)
	assert.Equal(t, "error", next.Dynamic[domain.KeyValidationStatus])
}

func TestAgent_UnsupportedFormatIsFatal(t *testing.T) {
	node := domain.Node{
		ID: "draft", Kind: domain.KindAgent, Ref: "fast",
		Config: map[string]any{"format": "xml"},
	}
	_, err := agentFactory(specWithLLM(), node, capsWith(&staticLLM{}))
	assert.Error(t, err)
}
