package prompt

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/prompthub/internal/apperr"
	"github.com/nikhilbhutani/prompthub/internal/models"
)

// memStore is an in-memory Store honoring the same atomicity contract as
// the SQL implementation: appends are serialized per store and the active
// flag swap happens under the same lock as the insert.
type memStore struct {
	mu      sync.Mutex
	prompts map[string][]*models.Prompt
}

func newMemStore() *memStore {
	return &memStore{prompts: make(map[string][]*models.Prompt)}
}

func (m *memStore) InsertFirst(ctx context.Context, p *models.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts[p.Name]) > 0 {
		return apperr.Conflict("prompt %q already has a version 1", p.Name)
	}
	p.ID = uuid.New()
	p.Version = 1
	p.Active = true
	p.CreatedAt = time.Now()
	cp := *p
	m.prompts[p.Name] = append(m.prompts[p.Name], &cp)
	return nil
}

func (m *memStore) AppendVersion(ctx context.Context, p *models.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.prompts[p.Name]
	if len(rows) == 0 {
		return apperr.NotFound("prompt %q not found", p.Name)
	}
	max := 0
	for _, r := range rows {
		if r.Version > max {
			max = r.Version
		}
		r.Active = false
		r.IsPublic = p.IsPublic
	}
	p.ID = uuid.New()
	p.Version = max + 1
	p.Active = true
	p.CreatedAt = time.Now()
	cp := *p
	m.prompts[p.Name] = append(rows, &cp)
	return nil
}

func (m *memStore) GetActive(ctx context.Context, name string) (*models.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.prompts[name] {
		if r.Active {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("prompt %q not found", name)
}

func (m *memStore) GetVersion(ctx context.Context, name string, version int) (*models.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.prompts[name] {
		if r.Version == version {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("prompt %q version %d not found", name, version)
}

func (m *memStore) ListVersions(ctx context.Context, name string, limit, offset int) ([]models.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.prompts[name]
	sorted := make([]models.Prompt, 0, len(rows))
	for _, r := range rows {
		sorted = append(sorted, *r)
	}
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Version > sorted[i].Version {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if offset >= len(sorted) {
		return nil, nil
	}
	sorted = sorted[offset:]
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (m *memStore) List(ctx context.Context, f ListFilter) ([]models.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Prompt
	for _, rows := range m.prompts {
		for _, r := range rows {
			if !r.IsPublic && r.CreatedBy != f.Requester {
				continue
			}
			if f.Query != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Query)) {
				continue
			}
			if f.Active != nil && r.Active != *f.Active {
				continue
			}
			if f.CreatedBy != "" && r.CreatedBy != f.CreatedBy {
				continue
			}
			if f.LatestOnly && !r.Active {
				continue
			}
			out = append(out, *r)
		}
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) SetVisibility(ctx context.Context, name, owner string, isPublic bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.prompts[name] {
		if r.CreatedBy == owner {
			r.IsPublic = isPublic
			n++
		}
	}
	return n, nil
}

func (m *memStore) Delete(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.prompts[name]))
	delete(m.prompts, name)
	return n, nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, nil), store
}

func TestCreateFirstVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "Hello {{name}}"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Version)
	assert.True(t, p.Active)
	assert.False(t, p.IsPublic)
	assert.Equal(t, "alice", p.CreatedBy)
	assert.Equal(t, []string{"name"}, p.Variables)
}

func TestCreateEmptyTemplate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "alice", CreateRequest{Name: "welcome", Template: "   "})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateDuplicateName(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "v1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "bob", CreateRequest{Name: "welcome", Template: "v1 again"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateAppendsVersion(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "Hello {{name}}"})
	require.NoError(t, err)

	tpl := "Hi {{name}}, from {{org}}"
	p, err := svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &tpl})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Version)
	assert.ElementsMatch(t, []string{"name", "org"}, p.Variables)

	v1, err := store.GetVersion(ctx, "welcome", 1)
	require.NoError(t, err)
	assert.False(t, v1.Active)
}

func TestUpdateRejectsUnchangedTemplate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "Hello"})
	require.NoError(t, err)

	same := " Hello "
	_, err = svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &same})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "Hello", IsPublic: true})
	require.NoError(t, err)

	tpl := "changed"
	_, err = svc.Update(ctx, "welcome", "bob", UpdateRequest{Template: &tpl})
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestVersionsAreMonotonic(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "v1"})
	require.NoError(t, err)
	for i := 2; i <= 6; i++ {
		tpl := strings.Repeat("x", i)
		p, err := svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &tpl})
		require.NoError(t, err)
		assert.Equal(t, i, p.Version)
	}

	versions, err := store.ListVersions(ctx, "welcome", 100, 0)
	require.NoError(t, err)
	require.Len(t, versions, 6)
	activeCount := 0
	for i, v := range versions {
		assert.Equal(t, 6-i, v.Version) // newest first, no gaps
		if v.Active {
			activeCount++
			assert.Equal(t, 6, v.Version)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestConcurrentUpdatesKeepSingleActive(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "welcome", CreateRequest{Name: "welcome", Template: "v1"})
	require.NoError(t, err)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Append directly: Update's unchanged-content check is not
			// the point here, the atomic version swap is.
			p := &models.Prompt{Name: "welcome", Template: strings.Repeat("y", i+2), CreatedBy: "welcome"}
			_ = store.AppendVersion(ctx, p)
		}(i)
	}
	wg.Wait()

	versions, err := store.ListVersions(ctx, "welcome", 100, 0)
	require.NoError(t, err)
	require.Len(t, versions, writers+1)

	seen := map[int]bool{}
	activeCount := 0
	for _, v := range versions {
		assert.False(t, seen[v.Version], "duplicate version %d", v.Version)
		seen[v.Version] = true
		if v.Active {
			activeCount++
			assert.Equal(t, writers+1, v.Version)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestRollbackCreatesNewVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "version one"})
	require.NoError(t, err)
	for _, tpl := range []string{"version two", "version three", "version four", "version five"} {
		tpl := tpl
		_, err := svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &tpl})
		require.NoError(t, err)
	}

	p, err := svc.Rollback(ctx, "welcome", 2, "alice")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Version)
	assert.Equal(t, "version two", p.Template)
	assert.True(t, p.Active)

	// The target row itself was not reactivated.
	v2, err := svc.GetVersion(ctx, "welcome", 2, "alice")
	require.NoError(t, err)
	assert.False(t, v2.Active)
}

func TestRollbackMissingVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "v1"})
	require.NoError(t, err)

	_, err = svc.Rollback(ctx, "welcome", 9, "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestVisibilityEnforcement(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "secret", Template: "hidden"})
	require.NoError(t, err)

	_, err = svc.GetActive(ctx, "secret", "bob")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.SetVisibility(ctx, "secret", "alice", true)
	require.NoError(t, err)

	p, err := svc.GetActive(ctx, "secret", "bob")
	require.NoError(t, err)
	assert.True(t, p.IsPublic)
}

func TestSetVisibilityRequiresOwnership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "secret", Template: "hidden"})
	require.NoError(t, err)

	_, err = svc.SetVisibility(ctx, "secret", "bob", true)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	_, err = svc.SetVisibility(ctx, "missing", "bob", true)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSetVisibilityCoversAllVersions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "v1"})
	require.NoError(t, err)
	tpl := "v2"
	_, err = svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &tpl})
	require.NoError(t, err)

	_, err = svc.SetVisibility(ctx, "welcome", "alice", true)
	require.NoError(t, err)

	versions, _, err := svc.ListVersions(ctx, "welcome", "bob", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	for _, v := range versions {
		assert.True(t, v.IsPublic)
	}
}

func TestCloneStartsPrivate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "Hello {{name}}", IsPublic: true})
	require.NoError(t, err)

	p, err := svc.Clone(ctx, "welcome", "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "welcome_copy", p.Name)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, "bob", p.CreatedBy)
	assert.False(t, p.IsPublic)
	assert.Equal(t, "Hello {{name}}", p.Template)
}

func TestCloneRespectsVisibility(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "secret", Template: "hidden"})
	require.NoError(t, err)

	_, err = svc.Clone(ctx, "secret", "bob", "stolen")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteRemovesAllVersions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "v1"})
	require.NoError(t, err)
	tpl := "v2"
	_, err = svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &tpl})
	require.NoError(t, err)

	n, err := svc.Delete(ctx, "welcome", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.GetActive(ctx, "welcome", "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteRequiresOwnership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "v1", IsPublic: true})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "welcome", "bob")
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestListVersionsPagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "v1"})
	require.NoError(t, err)
	for i := 2; i <= 5; i++ {
		tpl := strings.Repeat("z", i)
		_, err := svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &tpl})
		require.NoError(t, err)
	}

	page, hasNext, err := svc.ListVersions(ctx, "welcome", "alice", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, hasNext)
	assert.Equal(t, 5, page[0].Version)
	assert.Equal(t, 4, page[1].Version)

	page, hasNext, err = svc.ListVersions(ctx, "welcome", "alice", 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.False(t, hasNext)
	assert.Equal(t, 1, page[0].Version)
}

func TestDiffVersions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "line a\nline b"})
	require.NoError(t, err)
	tpl := "line a\nline x\nline b"
	_, err = svc.Update(ctx, "welcome", "alice", UpdateRequest{Template: &tpl})
	require.NoError(t, err)

	d, err := svc.DiffVersions(ctx, "welcome", 1, 2, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, d.FromVersion)
	assert.Equal(t, 2, d.ToVersion)
	require.Len(t, d.Entries, 3)
	assert.Contains(t, d.Text, "+ line x")
}

func TestPreviewRendersActiveVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "welcome", Template: "Hello {{name}}"})
	require.NoError(t, err)

	out, err := svc.Preview(ctx, "welcome", 0, map[string]string{"name": "Ada"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out)

	_, err = svc.Preview(ctx, "welcome", 0, nil, "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}
