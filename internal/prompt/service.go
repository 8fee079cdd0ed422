package prompt

import (
	"context"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/nikhilbhutani/prompthub/internal/apperr"
	"github.com/nikhilbhutani/prompthub/internal/diff"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

// Cache is an optional read-through cache for active versions.
type Cache interface {
	GetActive(ctx context.Context, name string) (*models.Prompt, bool)
	SetActive(ctx context.Context, name string, p *models.Prompt)
	Invalidate(ctx context.Context, name string)
}

// Service owns the lifecycle of named, versioned prompt templates. History
// is append-only: edits and rollbacks create new versions, the active
// pointer only ever moves forward.
type Service struct {
	store Store
	cache Cache
}

func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

const conflictRetries = 3

// appendWithRetry retries only on write conflicts; each attempt re-derives
// the next version number inside the store.
func (s *Service) appendWithRetry(ctx context.Context, p *models.Prompt) error {
	return retry.Do(
		func() error { return s.store.AppendVersion(ctx, p) },
		retry.Context(ctx),
		retry.Attempts(conflictRetries),
		retry.Delay(25*time.Millisecond),
		retry.RetryIf(apperr.IsConflict),
		retry.LastErrorOnly(true),
	)
}

type CreateRequest struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	IsPublic bool   `json:"is_public"`
}

func (s *Service) Create(ctx context.Context, owner string, req CreateRequest) (*models.Prompt, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if strings.TrimSpace(req.Template) == "" {
		return nil, apperr.Validation("template must not be empty")
	}

	p := &models.Prompt{
		Name:      req.Name,
		Template:  req.Template,
		Variables: ExtractVariables(req.Template),
		CreatedBy: owner,
		IsPublic:  req.IsPublic,
	}
	if err := s.store.InsertFirst(ctx, p); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.Validation("prompt %q already exists; use update to add a version", req.Name)
		}
		return nil, err
	}
	s.invalidate(ctx, p.Name)
	return p, nil
}

func (s *Service) GetActive(ctx context.Context, name, requester string) (*models.Prompt, error) {
	if s.cache != nil {
		if p, ok := s.cache.GetActive(ctx, name); ok {
			return s.visible(p, requester)
		}
	}
	p, err := s.store.GetActive(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetActive(ctx, name, p)
	}
	return s.visible(p, requester)
}

func (s *Service) GetVersion(ctx context.Context, name string, version int, requester string) (*models.Prompt, error) {
	p, err := s.store.GetVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return s.visible(p, requester)
}

// ListVersions returns versions of name newest first. hasNext reports
// whether another page exists past offset+limit.
func (s *Service) ListVersions(ctx context.Context, name, requester string, limit, offset int) ([]models.Prompt, bool, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.ListVersions(ctx, name, limit+1, offset)
	if err != nil {
		return nil, false, err
	}
	if len(rows) > 0 {
		// All versions of a name share owner and visibility.
		if _, err := s.visible(&rows[0], requester); err != nil {
			return nil, false, err
		}
	}
	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}
	return rows, hasNext, nil
}

type ListOptions struct {
	Query      string
	Active     *bool
	CreatedBy  string
	LatestOnly bool
	SortBy     string
	Order      string
	Limit      int
	Offset     int
}

func (s *Service) List(ctx context.Context, requester string, opts ListOptions) ([]models.Prompt, bool, error) {
	limit := clampLimit(opts.Limit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.List(ctx, ListFilter{
		Requester:  requester,
		Query:      opts.Query,
		Active:     opts.Active,
		CreatedBy:  opts.CreatedBy,
		LatestOnly: opts.LatestOnly,
		SortBy:     opts.SortBy,
		Order:      opts.Order,
		Limit:      limit + 1,
		Offset:     offset,
	})
	if err != nil {
		return nil, false, err
	}
	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}
	return rows, hasNext, nil
}

type UpdateRequest struct {
	Template *string `json:"template"`
	IsPublic *bool   `json:"is_public"`
}

// Update appends a new version for name. Unspecified fields inherit from
// the current active version; an edit must change the template content.
func (s *Service) Update(ctx context.Context, name, requester string, req UpdateRequest) (*models.Prompt, error) {
	current, err := s.store.GetActive(ctx, name)
	if err != nil {
		return nil, err
	}
	if current.CreatedBy != requester {
		return nil, apperr.PermissionDenied("only the prompt owner can update %q", name)
	}

	template := current.Template
	if req.Template != nil {
		template = *req.Template
	}
	if strings.TrimSpace(template) == "" {
		return nil, apperr.Validation("template must not be empty")
	}
	if strings.TrimSpace(template) == strings.TrimSpace(current.Template) {
		return nil, apperr.Validation("template is unchanged; an edit must change content")
	}

	isPublic := current.IsPublic
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	p := &models.Prompt{
		Name:      name,
		Template:  template,
		Variables: ExtractVariables(template),
		CreatedBy: current.CreatedBy,
		IsPublic:  isPublic,
	}
	if err := s.appendWithRetry(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, name)
	return p, nil
}

// Rollback appends a new version whose content duplicates the target
// version. Nothing is rewound in place: the new version number is always
// max(existing)+1.
func (s *Service) Rollback(ctx context.Context, name string, version int, requester string) (*models.Prompt, error) {
	target, err := s.store.GetVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if target.CreatedBy != requester {
		return nil, apperr.PermissionDenied("only the prompt owner can roll back %q", name)
	}

	p := &models.Prompt{
		Name:      name,
		Template:  target.Template,
		Variables: ExtractVariables(target.Template),
		CreatedBy: target.CreatedBy,
		IsPublic:  target.IsPublic,
	}
	if err := s.appendWithRetry(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, name)
	return p, nil
}

// SetVisibility flips is_public on every version of name in one statement
// and returns the active version.
func (s *Service) SetVisibility(ctx context.Context, name, requester string, isPublic bool) (*models.Prompt, error) {
	n, err := s.store.SetVisibility(ctx, name, requester, isPublic)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := s.store.GetActive(ctx, name); err != nil {
			return nil, err
		}
		return nil, apperr.PermissionDenied("only the prompt owner can change visibility of %q", name)
	}
	s.invalidate(ctx, name)
	return s.store.GetActive(ctx, name)
}

// Clone copies the active version of name into a brand-new name owned by
// the requester. Clones always start private.
func (s *Service) Clone(ctx context.Context, name, requester, newName string) (*models.Prompt, error) {
	src, err := s.GetActive(ctx, name, requester)
	if err != nil {
		return nil, err
	}
	if newName == "" {
		newName = name + "_copy"
	}
	return s.Create(ctx, requester, CreateRequest{Name: newName, Template: src.Template})
}

// Delete removes every version of name; returns the number removed.
func (s *Service) Delete(ctx context.Context, name, requester string) (int64, error) {
	current, err := s.store.GetActive(ctx, name)
	if err != nil {
		return 0, err
	}
	if current.CreatedBy != requester {
		return 0, apperr.PermissionDenied("only the prompt owner can delete %q", name)
	}
	n, err := s.store.Delete(ctx, name)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, name)
	return n, nil
}

type VersionDiff struct {
	FromVersion int          `json:"from_version"`
	ToVersion   int          `json:"to_version"`
	Entries     []diff.Entry `json:"entries"`
	Text        string       `json:"text"`
}

func (s *Service) DiffVersions(ctx context.Context, name string, from, to int, requester string) (*VersionDiff, error) {
	a, err := s.GetVersion(ctx, name, from, requester)
	if err != nil {
		return nil, err
	}
	b, err := s.GetVersion(ctx, name, to, requester)
	if err != nil {
		return nil, err
	}
	entries := diff.Lines(a.Template, b.Template)
	return &VersionDiff{
		FromVersion: from,
		ToVersion:   to,
		Entries:     entries,
		Text:        diff.Render(entries),
	}, nil
}

// Preview renders a version's template with the supplied variable values.
// Version 0 means the active version.
func (s *Service) Preview(ctx context.Context, name string, version int, vars map[string]string, requester string) (string, error) {
	var (
		p   *models.Prompt
		err error
	)
	if version == 0 {
		p, err = s.GetActive(ctx, name, requester)
	} else {
		p, err = s.GetVersion(ctx, name, version, requester)
	}
	if err != nil {
		return "", err
	}
	out, err := Render(p.Template, vars)
	if err != nil {
		return "", apperr.Validation("%s", err.Error())
	}
	return out, nil
}

func (s *Service) visible(p *models.Prompt, requester string) (*models.Prompt, error) {
	if !p.IsPublic && p.CreatedBy != requester {
		return nil, apperr.NotFound("prompt %q not found", p.Name)
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, name string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, name)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
