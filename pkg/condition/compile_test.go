package condition_test

import (
	"testing"

	"github.com/aretw0/plait/pkg/condition"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWith(vals map[string]any) *domain.WorkflowState {
	s := domain.NewState("hello world", "test-session")
	for k, v := range vals {
		s.Set(k, v)
	}
	return s
}

func evalExpr(t *testing.T, raw string, state *domain.WorkflowState) bool {
	t.Helper()
	c, err := condition.Compile(raw)
	require.NoError(t, err)
	ok, err := c.Eval(state)
	require.NoError(t, err)
	return ok
}

func TestCompile_ScoreThreshold(t *testing.T) {
	// The canonical evaluator-optimizer exit condition.
	c, err := condition.Compile("state.get('evaluation_score', 0) >= 4")
	require.NoError(t, err)
	assert.False(t, c.IsTarget())

	cases := []struct {
		score float64
		want  bool
	}{
		{0, false},
		{3.9, false},
		{4, true},
		{4.5, true},
		{10, true},
	}
	for _, tc := range cases {
		s := domain.NewState("in", "")
		s.EvaluationScore = tc.score
		ok, err := c.Eval(s)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "score %v", tc.score)
	}
}

func TestCompile_DefaultValue(t *testing.T) {
	// Missing key falls back to the declared default.
	assert.False(t, evalExpr(t, "state.get('score', 0) >= 4", stateWith(nil)))
	assert.True(t, evalExpr(t, "state.get('score', 5) >= 4", stateWith(nil)))

	// Present key wins over the default.
	assert.True(t, evalExpr(t, "state.get('score', 0) >= 4", stateWith(map[string]any{"score": 7})))
}

func TestCompile_MissingKeyWithoutDefault(t *testing.T) {
	// nil matches nothing except !=.
	assert.False(t, evalExpr(t, "state.get('missing') == 'x'", stateWith(nil)))
	assert.False(t, evalExpr(t, "state.get('missing') > 1", stateWith(nil)))
	assert.True(t, evalExpr(t, "state.get('missing') != 'x'", stateWith(nil)))
}

func TestCompile_StringComparison(t *testing.T) {
	s := stateWith(map[string]any{"status": "approved"})
	assert.True(t, evalExpr(t, "state.get('status') == 'approved'", s))
	assert.True(t, evalExpr(t, `state.get('status') == "approved"`, s))
	assert.False(t, evalExpr(t, "state.get('status') == 'rejected'", s))
	assert.True(t, evalExpr(t, "state.get('status') != 'rejected'", s))
}

func TestCompile_NumericCoercion(t *testing.T) {
	// A numeric string on the left compares numerically against a number.
	s := stateWith(map[string]any{"count": "12"})
	assert.True(t, evalExpr(t, "state.get('count') > 5", s))
	assert.False(t, evalExpr(t, "state.get('count') < 5", s))
	assert.True(t, evalExpr(t, "state.get('count') == 12", s))
}

func TestCompile_IndexAccess(t *testing.T) {
	s := stateWith(map[string]any{"format_status": "valid"})
	assert.True(t, evalExpr(t, "state['format_status'] == 'valid'", s))
	assert.True(t, evalExpr(t, "state['format_status']", s))
}

func TestCompile_Truthiness(t *testing.T) {
	cases := []struct {
		name string
		vals map[string]any
		expr string
		want bool
	}{
		{"missing key", nil, "state.get('flag')", false},
		{"bool true", map[string]any{"flag": true}, "state.get('flag')", true},
		{"bool false", map[string]any{"flag": false}, "state.get('flag')", false},
		{"zero", map[string]any{"flag": 0}, "state.get('flag')", false},
		{"nonzero", map[string]any{"flag": 3}, "state.get('flag')", true},
		{"empty string", map[string]any{"flag": ""}, "state.get('flag')", false},
		{"false string", map[string]any{"flag": "False"}, "state.get('flag')", false},
		{"text", map[string]any{"flag": "yes"}, "state.get('flag')", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evalExpr(t, tc.expr, stateWith(tc.vals)))
		})
	}
}

func TestCompile_BooleanOperators(t *testing.T) {
	s := stateWith(map[string]any{"score": 5, "status": "ok"})

	assert.True(t, evalExpr(t, "state.get('score') >= 4 and state.get('status') == 'ok'", s))
	assert.False(t, evalExpr(t, "state.get('score') >= 4 and state.get('status') == 'bad'", s))
	assert.True(t, evalExpr(t, "state.get('score') >= 9 or state.get('status') == 'ok'", s))
	assert.False(t, evalExpr(t, "state.get('score') >= 9 or state.get('status') == 'bad'", s))

	// or binds looser than and.
	assert.True(t, evalExpr(t, "state.get('score') >= 9 and state.get('status') == 'ok' or state.get('score') >= 4", s))
}

func TestCompile_BooleanLiterals(t *testing.T) {
	assert.True(t, evalExpr(t, "true", stateWith(nil)))
	assert.False(t, evalExpr(t, "false", stateWith(nil)))
}

func TestCompile_TargetLiteral(t *testing.T) {
	// A bare identifier names the destination node directly.
	c, err := condition.Compile("revise_step")
	require.NoError(t, err)
	assert.True(t, c.IsTarget())
	assert.Equal(t, "revise_step", c.Target())

	ok, err := c.Eval(stateWith(nil))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompile_WellKnownFields(t *testing.T) {
	s := domain.NewState("the input", "")
	s.Output = "draft text"
	s.IterationCount = 3

	assert.True(t, evalExpr(t, "state.get('input') == 'the input'", s))
	assert.True(t, evalExpr(t, "state.get('output') == 'draft text'", s))
	assert.True(t, evalExpr(t, "state.get('iteration_count') >= 3", s))
	assert.False(t, evalExpr(t, "state.get('iteration_count') >= 4", s))
}

func TestCompile_Malformed(t *testing.T) {
	cases := []string{
		"",
		"state.get( == 3",
		"state.get('x') >=",
		"state.get('x') and == 3",
		"nonsense == 3",
	}
	for _, raw := range cases {
		_, err := condition.Compile(raw)
		assert.Error(t, err, "expression %q", raw)
	}
}

func TestCompile_QuotedOperatorIgnored(t *testing.T) {
	// Operators inside string literals must not split the expression.
	s := stateWith(map[string]any{"msg": "a >= b"})
	assert.True(t, evalExpr(t, "state.get('msg') == 'a >= b'", s))
}
