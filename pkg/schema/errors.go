package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCircularReference is returned when a spec's reference chain revisits
// a file that is still being resolved.
var ErrCircularReference = errors.New("circular spec reference")

// ValidationError identifies one offending field, node, or edge in a spec.
type ValidationError struct {
	Field  string
	Node   string
	Edge   string
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Node != "":
		return fmt.Sprintf("node %q: %s", e.Node, e.Reason)
	case e.Edge != "":
		return fmt.Sprintf("edge %q: %s", e.Edge, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	default:
		return e.Reason
	}
}

// ValidationErrors aggregates every failure found in one pass so users fix
// a broken spec in one round trip.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("invalid specification (%d errors):\n- %s", len(e), strings.Join(msgs, "\n- "))
}

// MergeError reports a scalar/type mismatch during reference deep-merge.
type MergeError struct {
	Path     string
	BaseType string
	OverType string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("reference merge conflict at %q: cannot merge %s over %s", e.Path, e.OverType, e.BaseType)
}
