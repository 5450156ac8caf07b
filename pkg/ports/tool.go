package ports

import (
	"context"

	"github.com/aretw0/plait/pkg/domain"
)

// ToolFunc is an in-process tool capability. Its return value is handled
// polymorphically by the tool node: a string overwrites the state output,
// a map[string]any is merged into state, anything else is stringified.
//
// A ToolFunc may return domain.ErrUserExit (possibly wrapped) to request
// graceful workflow termination; that error propagates uncaught.
type ToolFunc func(ctx context.Context, state *domain.WorkflowState) (any, error)

// ToolRegistry resolves function entrypoints to in-process capabilities.
type ToolRegistry interface {
	Resolve(entrypoint string) (ToolFunc, bool)
}

// ToolMap is the trivial map-backed ToolRegistry.
type ToolMap map[string]ToolFunc

func (m ToolMap) Resolve(entrypoint string) (ToolFunc, bool) {
	f, ok := m[entrypoint]
	return f, ok
}
