package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/plait/pkg/domain"
)

// expr is a node in the parsed condition AST.
type expr interface {
	eval(state *domain.WorkflowState) (bool, error)
}

// orExpr is true when any clause holds.
type orExpr struct {
	clauses []expr
}

func (e *orExpr) eval(state *domain.WorkflowState) (bool, error) {
	for _, c := range e.clauses {
		ok, err := c.eval(state)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// andExpr is true when all clauses hold.
type andExpr struct {
	clauses []expr
}

func (e *andExpr) eval(state *domain.WorkflowState) (bool, error) {
	for _, c := range e.clauses {
		ok, err := c.eval(state)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// boolExpr is the literal "true" or "false".
type boolExpr struct {
	value bool
}

func (e *boolExpr) eval(*domain.WorkflowState) (bool, error) {
	return e.value, nil
}

// truthExpr is a bare state access evaluated for truthiness.
type truthExpr struct {
	access stateAccess
}

func (e *truthExpr) eval(state *domain.WorkflowState) (bool, error) {
	return truthy(e.access.resolve(state)), nil
}

// cmpExpr is a single comparison: stateAccess OP literal.
type cmpExpr struct {
	access stateAccess
	op     string
	right  literal
}

func (e *cmpExpr) eval(state *domain.WorkflowState) (bool, error) {
	return compare(e.access.resolve(state), e.op, e.right)
}

// stateAccess is a parsed state.get('key'[, default]) expression.
type stateAccess struct {
	key        string
	def        literal
	hasDefault bool
}

func (a stateAccess) resolve(state *domain.WorkflowState) any {
	if v, ok := state.Get(a.key); ok {
		return v
	}
	if a.hasDefault {
		return a.def.value()
	}
	return nil
}

// literal is a parsed right-hand operand or default value.
// Parsing order: integer (all digits, optional leading '-'), then float,
// then string with surrounding quotes stripped.
type literal struct {
	raw     string
	num     float64
	isNum   bool
	isInt   bool
	str     string
	isBool  bool
	boolVal bool
}

func parseLiteral(raw string) literal {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "true" || trimmed == "false" {
		return literal{raw: raw, isBool: true, boolVal: trimmed == "true"}
	}

	if isAllDigits(trimmed) {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return literal{raw: raw, num: float64(n), isNum: true, isInt: true}
		}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return literal{raw: raw, num: f, isNum: true}
	}

	return literal{raw: raw, str: stripQuotes(trimmed)}
}

func (l literal) value() any {
	switch {
	case l.isBool:
		return l.boolVal
	case l.isInt:
		return int(l.num)
	case l.isNum:
		return l.num
	default:
		return l.str
	}
}

func isAllDigits(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// truthy follows the direct-key-truthiness rule: nil and empty values are
// false, booleans are themselves, numbers are non-zero.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		trimmed := strings.TrimSpace(val)
		return trimmed != "" && !strings.EqualFold(trimmed, "false")
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	default:
		return true
	}
}

// compare applies op between a state value and a literal. Numeric
// comparison is used whenever both sides coerce to numbers; otherwise the
// sides are compared as whitespace-trimmed strings.
func compare(left any, op string, right literal) (bool, error) {
	if lf, ok := toFloat(left); ok && right.isNum {
		return compareFloats(lf, op, right.num), nil
	}

	if left == nil {
		// A missing value without a default matches nothing except !=.
		return op == "!=", nil
	}

	ls := strings.TrimSpace(fmt.Sprintf("%v", left))
	rs := strings.TrimSpace(right.raw)
	if !right.isNum && !right.isBool {
		rs = right.str
	}

	switch op {
	case "==":
		return ls == rs, nil
	case "!=":
		return ls != rs, nil
	case ">":
		return ls > rs, nil
	case ">=":
		return ls >= rs, nil
	case "<":
		return ls < rs, nil
	case "<=":
		return ls <= rs, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func compareFloats(l float64, op string, r float64) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case ">":
		return l > r
	case ">=":
		return l >= r
	case "<":
		return l < r
	case "<=":
		return l <= r
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
