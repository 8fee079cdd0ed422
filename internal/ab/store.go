package ab

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

// Store is the persistence port for policies and assignments.
// InsertAssignment must be insert-if-absent on the unique
// (experiment_name, prompt_name, user_id) key: under a race exactly one
// sampled value wins and every caller gets the winner's row back.
type Store interface {
	// UpsertPolicy inserts or updates the policy keyed on
	// (prompt_name, created_by), filling ID and timestamps.
	UpsertPolicy(ctx context.Context, p *models.ExperimentPolicy) error

	// GetPolicy returns the policy for promptName visible to requester
	// (own or public), preferring the requester's own.
	GetPolicy(ctx context.Context, promptName, requester string) (*models.ExperimentPolicy, error)

	ListPolicies(ctx context.Context, requester string, includePublic bool) ([]models.ExperimentPolicy, error)

	// DeletePolicy removes the policy only when owner created it; reports
	// whether a row was removed.
	DeletePolicy(ctx context.Context, id uuid.UUID, owner string) (bool, error)

	GetAssignment(ctx context.Context, experiment, promptName, userID string) (*models.Assignment, error)

	// InsertAssignment persists a new assignment unless one already exists
	// for the key; the returned row is always the durable winner.
	InsertAssignment(ctx context.Context, a *models.Assignment) (*models.Assignment, error)

	ExperimentStats(ctx context.Context, experiment string) (int, map[int]int, error)
}
