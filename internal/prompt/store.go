package prompt

import (
	"context"

	"github.com/nikhilbhutani/prompthub/internal/models"
)

// ListFilter narrows and orders a catalogue listing. Requester scopes
// visibility: private names owned by someone else are never returned.
type ListFilter struct {
	Requester  string
	Query      string
	Active     *bool
	CreatedBy  string
	LatestOnly bool
	SortBy     string // created_at | version | name
	Order      string // asc | desc
	Limit      int
	Offset     int
}

// Store is the persistence port for the version store. Implementations must
// make InsertFirst and AppendVersion atomic units: computing the next
// version number, clearing the previous active flag and inserting the new
// row all happen or none do, and a concurrent write to the same name
// surfaces as a conflict error rather than a duplicate version.
type Store interface {
	// InsertFirst inserts version 1 of a new name. A concurrent or prior
	// insert of the same name yields a conflict error.
	InsertFirst(ctx context.Context, p *models.Prompt) error

	// AppendVersion inserts max(existing)+1 for an existing name,
	// deactivates the previous active row and applies p.IsPublic to every
	// row of the name, all in one transaction. Fills p.ID, p.Version,
	// p.Active and p.CreatedAt.
	AppendVersion(ctx context.Context, p *models.Prompt) error

	GetActive(ctx context.Context, name string) (*models.Prompt, error)
	GetVersion(ctx context.Context, name string, version int) (*models.Prompt, error)
	ListVersions(ctx context.Context, name string, limit, offset int) ([]models.Prompt, error)
	List(ctx context.Context, f ListFilter) ([]models.Prompt, error)

	// SetVisibility updates is_public on every version of name owned by
	// owner in a single statement; returns the number of rows updated.
	SetVisibility(ctx context.Context, name, owner string, isPublic bool) (int64, error)

	// Delete removes all versions of name; returns the number removed.
	Delete(ctx context.Context, name string) (int64, error)
}
