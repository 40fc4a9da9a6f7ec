package ports

import (
	"context"

	"github.com/aretw0/gleaner/pkg/domain"
)

// RunStore persists execution results keyed by run ID, so traces stay
// inspectable after the process that produced them is gone.
type RunStore interface {
	// Save persists the result for a given run ID.
	Save(ctx context.Context, runID string, result *domain.Result) error

	// Load retrieves the result for a given run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Result, error)

	// Delete removes the result for a given run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the known run IDs.
	List(ctx context.Context) ([]string, error)
}
