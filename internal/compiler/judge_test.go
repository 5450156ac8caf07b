package compiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func judgeNode() domain.Node {
	return domain.Node{ID: "grade", Kind: domain.KindJudge, Ref: "fast"}
}

func runJudge(t *testing.T, llm *staticLLM, state *domain.WorkflowState) *domain.WorkflowState {
	t.Helper()
	fn, err := judgeFactory(specWithLLM(), judgeNode(), capsWith(llm))
	require.NoError(t, err)
	next, err := fn(context.Background(), state)
	require.NoError(t, err)
	return next
}

func TestJudge_ParsesScore(t *testing.T) {
	llm := &staticLLM{responses: []string{`{"evaluation_score": 4.5}`}}
	state := domain.NewState("in", "")
	state.Output = "the draft"

	next := runJudge(t, llm, state)
	assert.InDelta(t, 4.5, next.EvaluationScore, 1e-9)
	assert.Equal(t, 1, next.IterationCount)

	// The judged subject is the prior output, untouched by judging.
	assert.Equal(t, "the draft", llm.calls[0].Prompt)
	assert.Equal(t, "the draft", next.Output)
}

func TestJudge_CodeFencedResponse(t *testing.T) {
	llm := &staticLLM{responses: []string{"```json\n{\"evaluation_score\": 7}\n```"}}
	next := runJudge(t, llm, domain.NewState("in", ""))
	assert.InDelta(t, 7.0, next.EvaluationScore, 1e-9)
}

func TestJudge_SubjectFallsBackToInput(t *testing.T) {
	llm := &staticLLM{responses: []string{`{"evaluation_score": 3}`}}
	runJudge(t, llm, domain.NewState("raw input", ""))
	assert.Equal(t, "raw input", llm.calls[0].Prompt)
}

func TestJudge_MalformedResponseScoresZero(t *testing.T) {
	cases := []string{
		"I'd give this a solid 8 out of 10.",
		`{"evaluation_score": "high"}`,
		`{"verdict": 5}`,
		"",
	}
	for _, resp := range cases {
		llm := &staticLLM{responses: []string{resp}}
		next := runJudge(t, llm, domain.NewState("in", ""))
		assert.Zero(t, next.EvaluationScore, "response %q", resp)
		assert.Equal(t, 1, next.IterationCount, "response %q", resp)
	}
}

func TestJudge_LLMErrorScoresZero(t *testing.T) {
	llm := &staticLLM{err: fmt.Errorf("rate limited")}
	state := domain.NewState("in", "")
	state.EvaluationScore = 9
	state.IterationCount = 4

	next := runJudge(t, llm, state)
	assert.Zero(t, next.EvaluationScore)
	assert.Equal(t, "rate limited", next.ErrorContext)

	// The iteration still counts: an erroring judge must not loop forever.
	assert.Equal(t, 5, next.IterationCount)
}

func TestJudge_CustomPromptTemplate(t *testing.T) {
	llm := &staticLLM{responses: []string{`{"evaluation_score": 5}`}}
	node := judgeNode()
	node.Config = map[string]any{"prompt": "Rate this summary of {input}: {output}"}

	fn, err := judgeFactory(specWithLLM(), node, capsWith(llm))
	require.NoError(t, err)

	state := domain.NewState("the article", "")
	state.Output = "the summary"
	_, err = fn(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "Rate this summary of the article: the summary", llm.calls[0].Prompt)
}

func TestParseScore(t *testing.T) {
	assert.InDelta(t, 4.0, parseScore(`{"evaluation_score": 4}`), 1e-9)
	assert.InDelta(t, 4.2, parseScore("```\n{\"evaluation_score\": 4.2}\n```"), 1e-9)
	assert.Zero(t, parseScore(`{"evaluation_score": null}`))
	assert.Zero(t, parseScore("not json"))
}
