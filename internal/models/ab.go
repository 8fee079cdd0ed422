package models

import (
	"time"

	"github.com/google/uuid"
)

// ExperimentPolicy is an owner-scoped weighted distribution of traffic
// across versions of one prompt. At most one policy exists per
// (prompt_name, created_by) pair.
type ExperimentPolicy struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	PromptName string          `json:"prompt_name" db:"prompt_name"`
	Weights    map[int]float64 `json:"weights" db:"weights"`
	CreatedBy  string          `json:"created_by" db:"created_by"`
	IsPublic   bool            `json:"is_public" db:"is_public"`
	IsOwner    bool            `json:"is_owner,omitempty" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Assignment is the sticky mapping from (experiment, prompt, user) to a
// version. Once written it is never overwritten, even if the policy's
// weights change afterwards.
type Assignment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ExperimentName string    `json:"experiment_name" db:"experiment_name"`
	PromptName     string    `json:"prompt_name" db:"prompt_name"`
	UserID         string    `json:"user_id" db:"user_id"`
	Version        int       `json:"version" db:"version"`
	AssignedAt     time.Time `json:"assigned_at" db:"assigned_at"`
}

type ExperimentStats struct {
	ExperimentName      string      `json:"experiment_name"`
	TotalAssignments    int         `json:"total_assignments"`
	VersionDistribution map[int]int `json:"version_distribution"`
}
