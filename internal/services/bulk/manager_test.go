package bulk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/analyzer"
	"github.com/ternarybob/scout/internal/services/orchestrator"
	"github.com/ternarybob/scout/internal/services/postprocess"
	"github.com/ternarybob/scout/internal/services/strategy"
)

// stubEngine succeeds for every URL except those containing "fail"
type stubEngine struct{}

func (e *stubEngine) Name() string                         { return "requests" }
func (e *stubEngine) Initialize(ctx context.Context) error { return nil }
func (e *stubEngine) Cleanup() error                       { return nil }
func (e *stubEngine) Capabilities() []string               { return nil }
func (e *stubEngine) Stats() models.EngineStats            { return models.EngineStats{} }

func (e *stubEngine) Crawl(ctx context.Context, url string, s *models.CrawlStrategy) *models.CrawlResult {
	if strings.Contains(url, "fail") {
		return models.NewFailedResult(url, "HTTP 404 not found")
	}
	return &models.CrawlResult{
		URL:       url,
		Title:     "Page",
		Text:      "crawled content",
		Hierarchy: models.NewHierarchy(),
		Status:    models.CrawlStatusComplete,
		Timestamp: time.Now().UTC(),
		Metadata:  models.ResultMetadata{CrawlerUsed: "requests", QualityScore: 55},
	}
}

func (e *stubEngine) CrawlWithRetry(ctx context.Context, url string, s *models.CrawlStrategy) *models.CrawlResult {
	return e.Crawl(ctx, url, s)
}

type stubRegistry struct {
	engine *stubEngine
}

func (r *stubRegistry) Get(name string) (interfaces.Engine, bool) {
	if name == "requests" {
		return r.engine, true
	}
	return nil, false
}

func (r *stubRegistry) Available(name string) bool { return name == "requests" }
func (r *stubRegistry) Names() []string            { return []string{"requests"} }

// memoryJobs is an in-memory JobStorage safe for concurrent workers
type memoryJobs struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newMemoryJobs() *memoryJobs {
	return &memoryJobs{jobs: make(map[string]*models.Job)}
}

func (s *memoryJobs) SaveJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memoryJobs) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	copied := *job
	return &copied, nil
}

func (s *memoryJobs) UpdateJob(ctx context.Context, job *models.Job) error {
	return s.SaveJob(ctx, job)
}

func (s *memoryJobs) DeleteJob(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}

func (s *memoryJobs) ListJobs(ctx context.Context, status string, limit int) ([]*models.Job, error) {
	return nil, nil
}

// recordingPublisher captures every event for assertions
type recordingPublisher struct {
	mu        sync.Mutex
	progress  []models.ProgressEvent
	completes []string
	errors    []string
}

func (p *recordingPublisher) PublishProgress(event models.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, event)
}

func (p *recordingPublisher) PublishComplete(jobID string, result interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completes = append(p.completes, jobID)
}

func (p *recordingPublisher) PublishError(jobID string, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, jobID)
}

func newTestManager(t *testing.T) (*Manager, *memoryJobs, *recordingPublisher) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Crawler.RequestDelay = 0
	cfg.Debug.Dir = t.TempDir()
	cfg.Storage.ResultsDir = t.TempDir()

	logger := arbor.NewLogger()
	registry := &stubRegistry{engine: &stubEngine{}}
	crawler := orchestrator.NewService(cfg, registry, analyzer.NewService(cfg, logger), strategy.NewBuilder(logger), postprocess.NewProcessor(logger), nil, logger)

	jobs := newMemoryJobs()
	publisher := &recordingPublisher{}

	return NewManager(cfg, crawler, jobs, publisher, logger), jobs, publisher
}

func waitForJob(t *testing.T, jobs *memoryJobs, jobID string) *models.Job {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.GetJob(context.Background(), jobID)
		if err == nil && job.IsFinished() {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestStartRejectsEmptyURLList(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Start(context.Background(), nil, 0, false)
	assert.Error(t, err)
}

func TestBulkJobCompletes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>ok</h1><p>static sample</p></body></html>`)
	}))
	defer srv.Close()

	m, jobs, publisher := newTestManager(t)

	urls := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/c"}
	job, err := m.Start(context.Background(), urls, 2, false)
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatusProcessing, job.Status)
	assert.Equal(t, 3, job.Total)

	finished := waitForJob(t, jobs, job.ID)

	assert.Equal(t, models.JobStatusCompleted, finished.Status)
	assert.Equal(t, 3, finished.Completed)
	assert.Equal(t, 3, finished.Success)
	assert.Equal(t, 0, finished.Failed)
	assert.Equal(t, 100, finished.Progress)
	require.NotNil(t, finished.EndTime)
	assert.Len(t, finished.Results, 3)
	assert.NotEmpty(t, finished.ResultFile)

	// The worker pool has drained once the job is terminal; the complete
	// event follows the final status write
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		publisher.mu.Lock()
		done := len(publisher.completes) > 0
		publisher.mu.Unlock()
		if done && !m.IsRunning(job.ID) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, m.IsRunning(job.ID))

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	require.NotEmpty(t, publisher.progress)
	assert.Equal(t, "queued", publisher.progress[0].Step)
	assert.Equal(t, 5, publisher.progress[0].Progress)

	last := publisher.progress[len(publisher.progress)-1]
	assert.Equal(t, "saving", last.Step)
	assert.Equal(t, 95, last.Progress)

	assert.Equal(t, []string{job.ID}, publisher.completes)
	assert.Empty(t, publisher.errors)
}

func TestBulkJobPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>sample</p></body></html>`)
	}))
	defer srv.Close()

	m, jobs, _ := newTestManager(t)

	urls := []string{srv.URL + "/good", srv.URL + "/fail"}
	job, err := m.Start(context.Background(), urls, 0, false)
	require.NoError(t, err)

	finished := waitForJob(t, jobs, job.ID)

	// Per-URL failures never fail the job
	assert.Equal(t, models.JobStatusCompleted, finished.Status)
	assert.Equal(t, 2, finished.Completed)
	assert.Equal(t, 1, finished.Success)
	assert.Equal(t, 1, finished.Failed)

	// Results stay ordered by input URL
	require.Len(t, finished.Results, 2)
	assert.True(t, finished.Results[0].IsSuccess())
	assert.False(t, finished.Results[1].IsSuccess())
}

func TestBulkProgressNeverRegresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>sample</p></body></html>`)
	}))
	defer srv.Close()

	m, jobs, publisher := newTestManager(t)

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/page-%d", srv.URL, i)
	}

	job, err := m.Start(context.Background(), urls, 8, false)
	require.NoError(t, err)

	finished := waitForJob(t, jobs, job.ID)
	assert.Equal(t, 12, finished.Completed)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	prev := 0
	for _, event := range publisher.progress {
		if event.Step != "processing" {
			continue
		}
		assert.GreaterOrEqual(t, event.Progress, prev, "published progress moved backwards")
		prev = event.Progress
	}
	assert.Equal(t, progressFlightBase+progressFlightSpan, prev)
}

func TestBulkJobProgressBands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>sample</p></body></html>`)
	}))
	defer srv.Close()

	m, jobs, publisher := newTestManager(t)

	urls := []string{srv.URL + "/a", srv.URL + "/b"}
	job, err := m.Start(context.Background(), urls, 1, false)
	require.NoError(t, err)

	waitForJob(t, jobs, job.ID)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	var processing []int
	for _, event := range publisher.progress {
		if event.Step == "processing" {
			processing = append(processing, event.Progress)
		}
	}

	// 10 + completed*80/total for 2 URLs
	assert.Equal(t, []int{50, 90}, processing)
}
