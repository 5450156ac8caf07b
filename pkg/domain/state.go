package domain

// Well-known dynamic state keys written by node functions.
const (
	// KeyFormatStatus records the outcome of structured-output parsing
	// ("valid" or "invalid") when an agent node declares a format.
	KeyFormatStatus = "format_status"
	// KeyValidationStatus records the outcome of schema validation
	// ("valid" or "error") for parsed agent output.
	KeyValidationStatus = "validation_status"
	// KeyStructuredOutput holds the parsed form of a formatted agent response.
	KeyStructuredOutput = "structured_output"
)

// WorkflowState is the record threaded through node executions for one
// workflow invocation. Node functions never mutate the state they receive;
// they return an extended copy. That copy-on-write discipline is what makes
// individual nodes replayable and testable in isolation.
type WorkflowState struct {
	// Input is the caller-provided prompt that seeded this invocation.
	Input string `json:"input"`

	// Output is the result of the most recent producing node. Empty until
	// a node writes it.
	Output string `json:"output,omitempty"`

	// IterationCount is incremented by judge nodes (always) and by agent
	// nodes that opt in via count_iterations. Monotonically non-decreasing.
	IterationCount int `json:"iteration_count,omitempty"`

	// EvaluationScore is written only by judge nodes. Defaults to 0.0 on
	// any parse failure so downstream comparisons never see a null.
	EvaluationScore float64 `json:"evaluation_score,omitempty"`

	// CurrentNode is the id of the last node executed, for diagnostics.
	CurrentNode string `json:"current_node,omitempty"`

	// ErrorContext is set when a node fails recoverably, cleared on the
	// next successful node.
	ErrorContext string `json:"error_context,omitempty"`

	// SessionID correlates this invocation with a downstream
	// thread/conversation for the LLM capability.
	SessionID string `json:"session_id,omitempty"`

	// Dynamic carries free-form keys for nodes configured with a custom
	// output key, plus format/validation status markers.
	Dynamic map[string]any `json:"dynamic_state,omitempty"`
}

// NewState seeds a fresh state for an invocation.
func NewState(input, sessionID string) *WorkflowState {
	return &WorkflowState{
		Input:     input,
		SessionID: sessionID,
		Dynamic:   make(map[string]any),
	}
}

// Clone returns a copy safe for mutation by a node function.
// The Dynamic map is copied one level deep; values are shared.
func (s *WorkflowState) Clone() *WorkflowState {
	next := *s
	next.Dynamic = make(map[string]any, len(s.Dynamic))
	for k, v := range s.Dynamic {
		next.Dynamic[k] = v
	}
	return &next
}

// Get resolves a state key for condition evaluation and prompt
// interpolation. Well-known fields shadow dynamic keys.
func (s *WorkflowState) Get(key string) (any, bool) {
	switch key {
	case "input":
		return s.Input, true
	case "output":
		if s.Output == "" {
			return nil, false
		}
		return s.Output, true
	case "iteration_count":
		return s.IterationCount, true
	case "evaluation_score":
		return s.EvaluationScore, true
	case "current_node":
		if s.CurrentNode == "" {
			return nil, false
		}
		return s.CurrentNode, true
	case "error_context":
		if s.ErrorContext == "" {
			return nil, false
		}
		return s.ErrorContext, true
	}
	v, ok := s.Dynamic[key]
	return v, ok
}

// Set writes a value into the state, routing well-known keys to their
// typed fields and everything else to the Dynamic map.
func (s *WorkflowState) Set(key string, value any) {
	switch key {
	case "input":
		if str, ok := value.(string); ok {
			s.Input = str
			return
		}
	case "output":
		if str, ok := value.(string); ok {
			s.Output = str
			return
		}
	}
	if s.Dynamic == nil {
		s.Dynamic = make(map[string]any)
	}
	s.Dynamic[key] = value
}
