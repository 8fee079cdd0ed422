package testcase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikhilbhutani/prompthub/internal/apperr"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

const testCaseCols = "id, prompt_name, name, input_text, expected_output, category, created_by, created_at"

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Insert(ctx context.Context, tc *models.TestCase) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO test_cases (prompt_name, name, input_text, expected_output, category, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		tc.PromptName, tc.Name, tc.InputText, tc.ExpectedOutput, tc.Category, tc.CreatedBy,
	).Scan(&tc.ID, &tc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert test case: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*models.TestCase, error) {
	var tc models.TestCase
	err := s.db.QueryRow(ctx,
		`SELECT `+testCaseCols+` FROM test_cases WHERE id = $1`, id,
	).Scan(&tc.ID, &tc.PromptName, &tc.Name, &tc.InputText, &tc.ExpectedOutput,
		&tc.Category, &tc.CreatedBy, &tc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("test case %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get test case: %w", err)
	}
	return &tc, nil
}

func (s *PGStore) ListByPrompt(ctx context.Context, promptName string) ([]models.TestCase, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+testCaseCols+` FROM test_cases
		 WHERE prompt_name = $1 ORDER BY created_at DESC`,
		promptName,
	)
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}
	defer rows.Close()

	var cases []models.TestCase
	for rows.Next() {
		var tc models.TestCase
		if err := rows.Scan(&tc.ID, &tc.PromptName, &tc.Name, &tc.InputText,
			&tc.ExpectedOutput, &tc.Category, &tc.CreatedBy, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan test case: %w", err)
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, tc *models.TestCase) error {
	_, err := s.db.Exec(ctx,
		`UPDATE test_cases SET name = $2, input_text = $3, expected_output = $4, category = $5
		 WHERE id = $1`,
		tc.ID, tc.Name, tc.InputText, tc.ExpectedOutput, tc.Category,
	)
	if err != nil {
		return fmt.Errorf("update test case: %w", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM test_cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete test case: %w", err)
	}
	return nil
}
