package ab

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

const policyCols = "id, prompt_name, weights, created_by, is_public, created_at, updated_at"

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) UpsertPolicy(ctx context.Context, p *models.ExperimentPolicy) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO ab_policies (prompt_name, weights, created_by, is_public)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (prompt_name, created_by)
		 DO UPDATE SET weights = EXCLUDED.weights, is_public = EXCLUDED.is_public, updated_at = now()
		 RETURNING id, created_at, updated_at`,
		p.PromptName, p.Weights, p.CreatedBy, p.IsPublic,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert policy: %w", err)
	}
	return nil
}

func (s *PGStore) GetPolicy(ctx context.Context, promptName, requester string) (*models.ExperimentPolicy, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+policyCols+` FROM ab_policies
		 WHERE prompt_name = $1 AND (created_by = $2 OR is_public)
		 ORDER BY (created_by = $2) DESC, created_at DESC
		 LIMIT 1`,
		promptName, requester,
	)
	p, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no experiment policy for prompt %q", promptName)
	}
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return p, nil
}

func (s *PGStore) ListPolicies(ctx context.Context, requester string, includePublic bool) ([]models.ExperimentPolicy, error) {
	q := `SELECT ` + policyCols + ` FROM ab_policies WHERE created_by = $1 ORDER BY created_at DESC`
	if includePublic {
		q = `SELECT ` + policyCols + ` FROM ab_policies
		 WHERE created_by = $1 OR is_public ORDER BY created_at DESC`
	}
	rows, err := s.db.Query(ctx, q, requester)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []models.ExperimentPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

func (s *PGStore) DeletePolicy(ctx context.Context, id uuid.UUID, owner string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM ab_policies WHERE id = $1 AND created_by = $2`, id, owner)
	if err != nil {
		return false, fmt.Errorf("delete policy: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) GetAssignment(ctx context.Context, experiment, promptName, userID string) (*models.Assignment, error) {
	var a models.Assignment
	err := s.db.QueryRow(ctx,
		`SELECT id, experiment_name, prompt_name, user_id, version, assigned_at
		 FROM ab_assignments
		 WHERE experiment_name = $1 AND prompt_name = $2 AND user_id = $3`,
		experiment, promptName, userID,
	).Scan(&a.ID, &a.ExperimentName, &a.PromptName, &a.UserID, &a.Version, &a.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no assignment for user %q", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &a, nil
}

func (s *PGStore) InsertAssignment(ctx context.Context, a *models.Assignment) (*models.Assignment, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO ab_assignments (experiment_name, prompt_name, user_id, version)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (experiment_name, prompt_name, user_id) DO NOTHING
		 RETURNING id, assigned_at`,
		a.ExperimentName, a.PromptName, a.UserID, a.Version,
	).Scan(&a.ID, &a.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent caller won the race; their row is authoritative.
		return s.GetAssignment(ctx, a.ExperimentName, a.PromptName, a.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return a, nil
}

func (s *PGStore) ExperimentStats(ctx context.Context, experiment string) (int, map[int]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT version, COUNT(*) FROM ab_assignments
		 WHERE experiment_name = $1 GROUP BY version`,
		experiment,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("experiment stats: %w", err)
	}
	defer rows.Close()

	total := 0
	dist := make(map[int]int)
	for rows.Next() {
		var version, count int
		if err := rows.Scan(&version, &count); err != nil {
			return 0, nil, fmt.Errorf("scan stats: %w", err)
		}
		dist[version] = count
		total += count
	}
	return total, dist, rows.Err()
}

func scanPolicy(row pgx.Row) (*models.ExperimentPolicy, error) {
	var p models.ExperimentPolicy
	err := row.Scan(&p.ID, &p.PromptName, &p.Weights, &p.CreatedBy,
		&p.IsPublic, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
