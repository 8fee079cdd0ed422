package testcase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/prompthub/internal/apperr"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

// PromptDirectory resolves a prompt name to its active version under the
// requester's visibility rules. Satisfied by prompt.Service.
type PromptDirectory interface {
	GetActive(ctx context.Context, name, requester string) (*models.Prompt, error)
}

// Service manages test cases attached to prompts. Anyone who can see a
// prompt can list its cases; only the prompt owner can change them.
type Service struct {
	store   Store
	prompts PromptDirectory
}

func NewService(store Store, prompts PromptDirectory) *Service {
	return &Service{store: store, prompts: prompts}
}

func (s *Service) List(ctx context.Context, promptName, requester string) ([]models.TestCase, error) {
	if _, err := s.prompts.GetActive(ctx, promptName, requester); err != nil {
		return nil, err
	}
	return s.store.ListByPrompt(ctx, promptName)
}

type CreateRequest struct {
	Name           string              `json:"name"`
	InputText      string              `json:"input_text"`
	ExpectedOutput string              `json:"expected_output"`
	Category       models.TestCategory `json:"category"`
}

func (s *Service) Create(ctx context.Context, promptName, requester string, req CreateRequest) (*models.TestCase, error) {
	p, err := s.requireOwner(ctx, promptName, requester)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if strings.TrimSpace(req.InputText) == "" {
		return nil, apperr.Validation("input_text is required")
	}
	category := req.Category
	if category == "" {
		category = models.CategoryHappyPath
	}
	if !category.Valid() {
		return nil, apperr.Validation("invalid category %q", category)
	}

	tc := &models.TestCase{
		PromptName:     p.Name,
		Name:           req.Name,
		InputText:      req.InputText,
		ExpectedOutput: req.ExpectedOutput,
		Category:       category,
		CreatedBy:      requester,
	}
	if err := s.store.Insert(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

type UpdateRequest struct {
	Name           *string              `json:"name"`
	InputText      *string              `json:"input_text"`
	ExpectedOutput *string              `json:"expected_output"`
	Category       *models.TestCategory `json:"category"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, requester string, req UpdateRequest) (*models.TestCase, error) {
	tc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwner(ctx, tc.PromptName, requester); err != nil {
		return nil, err
	}

	if req.Name != nil {
		tc.Name = *req.Name
	}
	if req.InputText != nil {
		tc.InputText = *req.InputText
	}
	if req.ExpectedOutput != nil {
		tc.ExpectedOutput = *req.ExpectedOutput
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, apperr.Validation("invalid category %q", *req.Category)
		}
		tc.Category = *req.Category
	}
	if strings.TrimSpace(tc.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if strings.TrimSpace(tc.InputText) == "" {
		return nil, apperr.Validation("input_text is required")
	}

	if err := s.store.Update(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, requester string) error {
	tc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.requireOwner(ctx, tc.PromptName, requester); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) requireOwner(ctx context.Context, promptName, requester string) (*models.Prompt, error) {
	p, err := s.prompts.GetActive(ctx, promptName, requester)
	if err != nil {
		return nil, err
	}
	if p.CreatedBy != requester {
		return nil, apperr.PermissionDenied("only the prompt owner can manage test cases for %q", promptName)
	}
	return p, nil
}
