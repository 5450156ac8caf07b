package condition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/plait/pkg/domain"
)

// Compiled is the result of compiling one edge condition. It is either a
// predicate over the workflow state or a literal target-node name (the
// direct-routing shortcut).
type Compiled struct {
	expr   string
	root   expr
	target string
}

// operator order matters: two-character operators must be probed before
// their one-character prefixes.
var operators = []string{">=", "<=", "==", "!=", ">", "<"}

var accessPattern = regexp.MustCompile(`^state\.get\(\s*['"]([^'"]+)['"]\s*(?:,\s*(.+?)\s*)?\)$`)
var indexPattern = regexp.MustCompile(`^state\[['"]([^'"]+)['"]\]$`)

// Compile parses an edge condition expression. A string that is neither a
// boolean literal, a state access, nor a comparison is treated as a literal
// target-node name for direct routing.
func Compile(raw string) (*Compiled, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty condition expression")
	}

	if trimmed == "true" || trimmed == "false" {
		return &Compiled{expr: raw, root: &boolExpr{value: trimmed == "true"}}, nil
	}

	if !strings.Contains(trimmed, "state.get") && !strings.Contains(trimmed, "state[") && !containsOperator(trimmed) {
		// Direct routing: the expression names the target node.
		return &Compiled{expr: raw, target: trimmed}, nil
	}

	root, err := parseOr(trimmed)
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", raw, err)
	}
	return &Compiled{expr: raw, root: root}, nil
}

// IsTarget reports whether this condition routes directly to a named node.
func (c *Compiled) IsTarget() bool { return c.target != "" }

// Target returns the literal target-node name, if any.
func (c *Compiled) Target() string { return c.target }

// Expr returns the original expression text.
func (c *Compiled) Expr() string { return c.expr }

// Eval evaluates the predicate against a state snapshot.
// Target-literal conditions always evaluate true.
func (c *Compiled) Eval(state *domain.WorkflowState) (bool, error) {
	if c.target != "" {
		return true, nil
	}
	return c.root.eval(state)
}

// parseOr splits on "or"; each segment's and-joined clauses must all hold.
func parseOr(s string) (expr, error) {
	segments := splitKeyword(s, "or")
	if len(segments) == 1 {
		return parseAnd(segments[0])
	}
	node := &orExpr{}
	for _, seg := range segments {
		clause, err := parseAnd(seg)
		if err != nil {
			return nil, err
		}
		node.clauses = append(node.clauses, clause)
	}
	return node, nil
}

func parseAnd(s string) (expr, error) {
	segments := splitKeyword(s, "and")
	if len(segments) == 1 {
		return parseClause(segments[0])
	}
	node := &andExpr{}
	for _, seg := range segments {
		clause, err := parseClause(seg)
		if err != nil {
			return nil, err
		}
		node.clauses = append(node.clauses, clause)
	}
	return node, nil
}

// parseClause handles a single comparison, boolean literal, or bare access.
func parseClause(s string) (expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty clause")
	}

	if s == "true" || s == "false" {
		return &boolExpr{value: s == "true"}, nil
	}

	for _, op := range operators {
		idx := indexOperator(s, op)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(s[:idx])
		right := strings.TrimSpace(s[idx+len(op):])
		if right == "" {
			return nil, fmt.Errorf("missing right operand for %q", op)
		}
		access, err := parseAccess(left)
		if err != nil {
			return nil, err
		}
		return &cmpExpr{access: access, op: op, right: parseLiteral(right)}, nil
	}

	access, err := parseAccess(s)
	if err != nil {
		return nil, err
	}
	return &truthExpr{access: access}, nil
}

// parseAccess accepts state.get('key'), state.get('key', default) and
// state['key'] forms.
func parseAccess(s string) (stateAccess, error) {
	if m := accessPattern.FindStringSubmatch(s); m != nil {
		access := stateAccess{key: m[1]}
		if m[2] != "" {
			access.def = parseLiteral(m[2])
			access.hasDefault = true
		}
		return access, nil
	}
	if m := indexPattern.FindStringSubmatch(s); m != nil {
		return stateAccess{key: m[1]}, nil
	}
	return stateAccess{}, fmt.Errorf("malformed state access %q", s)
}

func containsOperator(s string) bool {
	for _, op := range operators {
		if indexOperator(s, op) >= 0 {
			return true
		}
	}
	return false
}

// indexOperator finds op outside of quoted regions, skipping one-character
// operators that are part of a two-character one (e.g. the '>' in ">=").
func indexOperator(s string, op string) int {
	inQuote := byte(0)
	for i := 0; i+len(op) <= len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			inQuote = c
			continue
		}
		if s[i:i+len(op)] == op {
			if len(op) == 1 && i+1 < len(s) && s[i+1] == '=' {
				// '>' or '<' followed by '=' belongs to '>=' / '<='.
				continue
			}
			if len(op) == 1 && i > 0 && (s[i-1] == '<' || s[i-1] == '>' || s[i-1] == '=' || s[i-1] == '!') {
				continue
			}
			return i
		}
	}
	return -1
}

// splitKeyword splits on a lowercase boolean keyword surrounded by spaces,
// ignoring quoted regions.
func splitKeyword(s, keyword string) []string {
	token := " " + keyword + " "
	var parts []string
	inQuote := byte(0)
	start := 0
	for i := 0; i+len(token) <= len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			inQuote = c
			continue
		}
		if s[i:i+len(token)] == token {
			parts = append(parts, s[start:i])
			start = i + len(token)
			i = start - 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
