package models

import (
	"time"

	"github.com/google/uuid"
)

// Prompt is one immutable version of a named template. All versions of a
// name share created_by and is_public; exactly one version per name is
// active at any time.
type Prompt struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Template  string    `json:"template" db:"template"`
	Variables []string  `json:"variables" db:"variables"`
	Version   int       `json:"version" db:"version"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	Active    bool      `json:"active" db:"active"`
	IsPublic  bool      `json:"is_public" db:"is_public"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
