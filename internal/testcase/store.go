package testcase

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

type Store interface {
	Insert(ctx context.Context, tc *models.TestCase) error
	Get(ctx context.Context, id uuid.UUID) (*models.TestCase, error)
	ListByPrompt(ctx context.Context, promptName string) ([]models.TestCase, error)
	Update(ctx context.Context, tc *models.TestCase) error
	Delete(ctx context.Context, id uuid.UUID) error
}
