package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikhilbhutani/prompthub/internal/apperr"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

const promptCols = "id, name, template, variables, version, created_by, active, is_public, created_at"

// PGStore implements Store on Postgres. The unique (name, version)
// constraint is what turns a version-numbering race into a conflict error
// instead of a duplicate row.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) InsertFirst(ctx context.Context, p *models.Prompt) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO prompts (name, template, variables, version, created_by, active, is_public)
		 VALUES ($1, $2, $3, 1, $4, TRUE, $5)
		 RETURNING id, created_at`,
		p.Name, p.Template, p.Variables, p.CreatedBy, p.IsPublic,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("prompt %q already has a version 1", p.Name)
		}
		return fmt.Errorf("insert prompt: %w", err)
	}
	p.Version = 1
	p.Active = true
	return nil
}

func (s *PGStore) AppendVersion(ctx context.Context, p *models.Prompt) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM prompts WHERE name = $1`, p.Name).Scan(&current)
	if err != nil {
		return fmt.Errorf("current version: %w", err)
	}
	if current == 0 {
		return apperr.NotFound("prompt %q not found", p.Name)
	}

	if _, err := tx.Exec(ctx, `UPDATE prompts SET active = FALSE WHERE name = $1 AND active`, p.Name); err != nil {
		return fmt.Errorf("deactivate current version: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO prompts (name, template, variables, version, created_by, active, is_public)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		 RETURNING id, created_at`,
		p.Name, p.Template, p.Variables, current+1, p.CreatedBy, p.IsPublic,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("concurrent edit of prompt %q", p.Name)
		}
		return fmt.Errorf("insert version: %w", err)
	}

	// Visibility is a per-name property; keep every row in agreement.
	if _, err := tx.Exec(ctx,
		`UPDATE prompts SET is_public = $2 WHERE name = $1 AND is_public IS DISTINCT FROM $2`,
		p.Name, p.IsPublic,
	); err != nil {
		return fmt.Errorf("sync visibility: %w", err)
	}

	p.Version = current + 1
	p.Active = true
	return tx.Commit(ctx)
}

func (s *PGStore) GetActive(ctx context.Context, name string) (*models.Prompt, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+promptCols+` FROM prompts WHERE name = $1 AND active`, name)
	p, err := scanPrompt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prompt %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get active prompt: %w", err)
	}
	return p, nil
}

func (s *PGStore) GetVersion(ctx context.Context, name string, version int) (*models.Prompt, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+promptCols+` FROM prompts WHERE name = $1 AND version = $2`, name, version)
	p, err := scanPrompt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prompt %q version %d not found", name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	return p, nil
}

func (s *PGStore) ListVersions(ctx context.Context, name string, limit, offset int) ([]models.Prompt, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+promptCols+` FROM prompts WHERE name = $1
		 ORDER BY version DESC LIMIT $2 OFFSET $3`,
		name, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()
	return scanPrompts(rows)
}

func (s *PGStore) List(ctx context.Context, f ListFilter) ([]models.Prompt, error) {
	conds := []string{"(is_public OR created_by = $1)"}
	args := []any{f.Requester}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("active = $%d", len(args)))
	}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if f.LatestOnly {
		conds = append(conds, "active")
	}

	sortCol := "created_at"
	switch f.SortBy {
	case "version", "name":
		sortCol = f.SortBy
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(
		`SELECT %s FROM prompts WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		promptCols, strings.Join(conds, " AND "), sortCol, dir, len(args)-1, len(args),
	)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()
	return scanPrompts(rows)
}

func (s *PGStore) SetVisibility(ctx context.Context, name, owner string, isPublic bool) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE prompts SET is_public = $3 WHERE name = $1 AND created_by = $2`,
		name, owner, isPublic,
	)
	if err != nil {
		return 0, fmt.Errorf("set visibility: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) Delete(ctx context.Context, name string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM prompts WHERE name = $1`, name)
	if err != nil {
		return 0, fmt.Errorf("delete prompt: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPrompt(row pgx.Row) (*models.Prompt, error) {
	var p models.Prompt
	err := row.Scan(&p.ID, &p.Name, &p.Template, &p.Variables, &p.Version,
		&p.CreatedBy, &p.Active, &p.IsPublic, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPrompts(rows pgx.Rows) ([]models.Prompt, error) {
	var prompts []models.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
