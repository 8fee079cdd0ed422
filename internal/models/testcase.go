package models

import (
	"time"

	"github.com/google/uuid"
)

type TestCategory string

const (
	CategoryHappyPath TestCategory = "happy_path"
	CategoryEdgeCase  TestCategory = "edge_case"
	CategoryBoundary  TestCategory = "boundary"
	CategoryNegative  TestCategory = "negative"
)

func (c TestCategory) Valid() bool {
	switch c {
	case CategoryHappyPath, CategoryEdgeCase, CategoryBoundary, CategoryNegative:
		return true
	}
	return false
}

// TestCase belongs to a prompt name (not a single version); only the prompt
// owner may create, edit or delete cases.
type TestCase struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	PromptName     string       `json:"prompt_name" db:"prompt_name"`
	Name           string       `json:"name" db:"name"`
	InputText      string       `json:"input_text" db:"input_text"`
	ExpectedOutput string       `json:"expected_output,omitempty" db:"expected_output"`
	Category       TestCategory `json:"category" db:"category"`
	CreatedBy      string       `json:"created_by" db:"created_by"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}
