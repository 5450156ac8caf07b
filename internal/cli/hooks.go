package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/plait/pkg/domain"
)

// debugHooks logs every lifecycle event at debug level.
func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("node enter", "node", e.NodeID, "kind", e.NodeKind, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("node leave", "node", e.NodeID, "kind", e.NodeKind, "step", e.Step)
		},
		OnLLMCall: func(ctx context.Context, e *domain.LLMEvent) {
			logger.Debug("llm call", "node", e.NodeID, "model", e.Model)
		},
		OnLLMReturn: func(ctx context.Context, e *domain.LLMEvent) {
			logger.Debug("llm return", "node", e.NodeID, "model", e.Model, "is_error", e.IsError)
		},
	}
}
