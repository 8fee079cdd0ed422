package ab

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/prompthub/internal/apperr"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

// Service manages weighted experiment policies and performs sticky variant
// assignment. Assignment is a pure function of history: once a
// (experiment, prompt, user) key is assigned a version, later policy edits
// never change it.
type Service struct {
	store Store

	// randFloat draws from [0, 1); injectable for deterministic tests.
	randFloat func() float64
}

func NewService(store Store) *Service {
	return &Service{store: store, randFloat: rand.Float64}
}

// SetPolicy validates and upserts the policy keyed on (promptName, owner).
// Both weight conventions are accepted: fractions summing to ~1.0 or
// percentages summing to ~100. Zero-weight entries drop the version from
// consideration and are discarded before storing.
func (s *Service) SetPolicy(ctx context.Context, owner, promptName string, weights map[int]float64, isPublic bool) (*models.ExperimentPolicy, error) {
	if promptName == "" {
		return nil, apperr.Validation("prompt_name is required")
	}
	norm, err := validateWeights(weights)
	if err != nil {
		return nil, err
	}

	p := &models.ExperimentPolicy{
		PromptName: promptName,
		Weights:    norm,
		CreatedBy:  owner,
		IsPublic:   isPublic,
	}
	if err := s.store.UpsertPolicy(ctx, p); err != nil {
		return nil, err
	}
	p.IsOwner = true
	return p, nil
}

func (s *Service) GetPolicy(ctx context.Context, promptName, requester string) (*models.ExperimentPolicy, error) {
	p, err := s.store.GetPolicy(ctx, promptName, requester)
	if err != nil {
		return nil, err
	}
	p.IsOwner = p.CreatedBy == requester
	return p, nil
}

func (s *Service) ListPolicies(ctx context.Context, requester string, includePublic bool) ([]models.ExperimentPolicy, error) {
	policies, err := s.store.ListPolicies(ctx, requester, includePublic)
	if err != nil {
		return nil, err
	}
	for i := range policies {
		policies[i].IsOwner = policies[i].CreatedBy == requester
	}
	return policies, nil
}

func (s *Service) DeletePolicy(ctx context.Context, id uuid.UUID, requester string) (bool, error) {
	return s.store.DeletePolicy(ctx, id, requester)
}

// Assign returns the version assigned to userID for (experiment,
// promptName), sampling and persisting one on first contact. The stored
// row is the source of truth; a concurrent first contact resolves to a
// single winner inside the store.
func (s *Service) Assign(ctx context.Context, callerID, experiment, promptName, userID string) (int, error) {
	if experiment == "" || promptName == "" || userID == "" {
		return 0, apperr.Validation("experiment_name, prompt_name and user_id are required")
	}

	existing, err := s.store.GetAssignment(ctx, experiment, promptName, userID)
	if err == nil {
		return existing.Version, nil
	}
	if !apperr.IsNotFound(err) {
		return 0, err
	}

	policy, err := s.store.GetPolicy(ctx, promptName, callerID)
	if err != nil {
		return 0, err
	}
	if len(policy.Weights) == 0 {
		return 0, apperr.NotFound("no experiment policy for prompt %q", promptName)
	}

	final, err := s.store.InsertAssignment(ctx, &models.Assignment{
		ExperimentName: experiment,
		PromptName:     promptName,
		UserID:         userID,
		Version:        s.sample(policy.Weights),
	})
	if err != nil {
		return 0, err
	}
	return final.Version, nil
}

func (s *Service) Stats(ctx context.Context, experiment string) (*models.ExperimentStats, error) {
	total, dist, err := s.store.ExperimentStats(ctx, experiment)
	if err != nil {
		return nil, err
	}
	return &models.ExperimentStats{
		ExperimentName:      experiment,
		TotalAssignments:    total,
		VersionDistribution: dist,
	}, nil
}

// sample draws once from [0, total) and walks the buckets in ascending
// version order, so selection is reproducible given a fixed draw. Floating
// point residue lands in the last bucket.
func (s *Service) sample(weights map[int]float64) int {
	versions := make([]int, 0, len(weights))
	var total float64
	for v, w := range weights {
		versions = append(versions, v)
		total += w
	}
	sort.Ints(versions)

	r := s.randFloat() * total
	for _, v := range versions {
		r -= weights[v]
		if r <= 0 {
			return v
		}
	}
	return versions[len(versions)-1]
}

func validateWeights(weights map[int]float64) (map[int]float64, error) {
	if len(weights) == 0 {
		return nil, apperr.Validation("weights are required")
	}
	norm := make(map[int]float64, len(weights))
	for v, w := range weights {
		if v < 1 {
			return nil, apperr.Validation("version numbers must be positive, got %d", v)
		}
		if w < 0 {
			return nil, apperr.Validation("weight for version %d must be non-negative", v)
		}
		if w > 0 {
			norm[v] = w
		}
	}
	if len(norm) < 2 {
		return nil, apperr.Validation("at least 2 variants must have weight > 0")
	}

	var total float64
	for _, w := range norm {
		total += w
	}
	if math.Abs(total-1.0) > 0.01 && math.Abs(total-100) > 1 {
		return nil, apperr.Validation("weights must sum to 1.0 or 100, got %g", total)
	}
	return norm, nil
}
