package compiler

import (
	"fmt"
	"regexp"

	"github.com/aretw0/plait/pkg/domain"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// renderTemplate substitutes {key}-style placeholders with values from the
// state. Missing keys are left verbatim (graceful partial formatting), so
// a prompt mentioning {literal_braces} survives an incomplete state.
func renderTemplate(tpl string, state *domain.WorkflowState) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		key := match[1 : len(match)-1]
		v, ok := state.Get(key)
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", v)
	})
}
