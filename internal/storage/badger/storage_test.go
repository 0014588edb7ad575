package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "scout.db")
	cfg.Storage.Badger.ResetOnStartup = false

	m, err := NewManager(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	return m
}

func TestJobStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	jobs := newTestManager(t).JobStorage()

	job := &models.Job{
		ID:     "job-1",
		Status: models.JobStatusProcessing,
		URLs:   []string{"https://example.com"},
		Total:  1,
	}
	require.NoError(t, jobs.SaveJob(ctx, job))
	assert.False(t, job.CreatedAt.IsZero())

	loaded, err := jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, loaded.Status)
	assert.Equal(t, []string{"https://example.com"}, loaded.URLs)

	loaded.Status = models.JobStatusCompleted
	loaded.Completed = 1
	require.NoError(t, jobs.UpdateJob(ctx, loaded))

	updated, err := jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, updated.Status)
	assert.Equal(t, 1, updated.Completed)

	require.NoError(t, jobs.DeleteJob(ctx, "job-1"))
	_, err = jobs.GetJob(ctx, "job-1")
	assert.ErrorContains(t, err, "job not found")
}

func TestJobStorageRequiresID(t *testing.T) {
	jobs := newTestManager(t).JobStorage()
	assert.Error(t, jobs.SaveJob(context.Background(), &models.Job{}))
}

func TestJobStorageDeleteMissing(t *testing.T) {
	jobs := newTestManager(t).JobStorage()
	assert.ErrorContains(t, jobs.DeleteJob(context.Background(), "ghost"), "job not found")
}

func TestListJobsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	jobs := newTestManager(t).JobStorage()

	for i, status := range []string{models.JobStatusCompleted, models.JobStatusProcessing, models.JobStatusCompleted} {
		job := &models.Job{
			ID:        []string{"job-a", "job-b", "job-c"}[i],
			Status:    status,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, jobs.SaveJob(ctx, job))
	}

	completed, err := jobs.ListJobs(ctx, models.JobStatusCompleted, 0)
	require.NoError(t, err)
	require.Len(t, completed, 2)

	all, err := jobs.ListJobs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := jobs.ListJobs(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestCacheStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newTestManager(t).CacheStorage()

	result := &models.CrawlResult{
		URL:    "https://example.com/page",
		Title:  "Cached",
		Text:   "cached content",
		Status: models.CrawlStatusComplete,
	}
	require.NoError(t, cache.Set(ctx, result.URL, result, time.Minute))

	hit, ok := cache.Get(ctx, result.URL)
	require.True(t, ok)
	assert.Equal(t, "Cached", hit.Title)

	_, ok = cache.Get(ctx, "https://example.com/other")
	assert.False(t, ok)

	require.NoError(t, cache.Delete(ctx, result.URL))
	_, ok = cache.Get(ctx, result.URL)
	assert.False(t, ok)
}

func TestCacheStorageRejectsEmptyEntry(t *testing.T) {
	cache := newTestManager(t).CacheStorage()
	assert.Error(t, cache.Set(context.Background(), "", nil, time.Minute))
}

func TestCacheStorageExpiry(t *testing.T) {
	ctx := context.Background()
	cache := newTestManager(t).CacheStorage()

	result := &models.CrawlResult{URL: "https://example.com", Status: models.CrawlStatusComplete}
	require.NoError(t, cache.Set(ctx, result.URL, result, 30*time.Millisecond))

	_, ok := cache.Get(ctx, result.URL)
	assert.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	// Expired entries are dropped on read
	_, ok = cache.Get(ctx, result.URL)
	assert.False(t, ok)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	cache := m.CacheStorage()

	fresh := &models.CrawlResult{URL: "https://example.com/fresh", Status: models.CrawlStatusComplete}
	stale := &models.CrawlResult{URL: "https://example.com/stale", Status: models.CrawlStatusComplete}
	require.NoError(t, cache.Set(ctx, fresh.URL, fresh, time.Hour))
	require.NoError(t, cache.Set(ctx, stale.URL, stale, 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	removed, err := m.CacheSweeper().PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := cache.Get(ctx, fresh.URL)
	assert.True(t, ok)
}
