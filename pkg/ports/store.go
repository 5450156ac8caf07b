package ports

import (
	"context"

	"github.com/aretw0/plait/pkg/domain"
)

// StateStore persists final workflow states per session for later
// retrieval. It is a correlation cache, not a durability guarantee;
// distinct sessions never share state.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.WorkflowState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.WorkflowState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}
