package bulk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/orchestrator"
)

// Progress bands: 5 queued, 10-90 in flight, 95 persisting, 100 done
const (
	progressQueued     = 5
	progressFlightBase = 10
	progressFlightSpan = 80
	progressSaving     = 95
	progressDone       = 100
)

// Manager runs bulk crawls: a semaphore-bounded worker pool per job,
// atomic counter updates, progress events after every URL and a summary
// file once the fan-out drains. Per-URL failures never fail the job.
type Manager struct {
	config    *common.Config
	crawler   *orchestrator.Service
	jobs      interfaces.JobStorage
	publisher interfaces.ProgressPublisher
	summaries *SummaryWriter
	logger    arbor.ILogger

	mu      sync.Mutex
	running map[string]struct{}
}

// NewManager creates the bulk job manager
func NewManager(
	cfg *common.Config,
	crawler *orchestrator.Service,
	jobs interfaces.JobStorage,
	publisher interfaces.ProgressPublisher,
	logger arbor.ILogger,
) *Manager {
	if publisher == nil {
		publisher = interfaces.NopPublisher{}
	}
	return &Manager{
		config:    cfg,
		crawler:   crawler,
		jobs:      jobs,
		publisher: publisher,
		summaries: NewSummaryWriter(cfg.Storage.ResultsDir, logger),
		logger:    logger,
	}
}

// Start allocates a job for urls and launches its worker pool. The call
// returns as soon as the job is persisted; execution is asynchronous.
func (m *Manager) Start(ctx context.Context, urls []string, maxConcurrent int, cleanText bool) (*models.Job, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no urls provided")
	}

	concurrency := maxConcurrent
	if concurrency <= 0 {
		concurrency = m.config.Bulk.DefaultConcurrency
	}
	if concurrency > m.config.Bulk.MaxConcurrency {
		concurrency = m.config.Bulk.MaxConcurrency
	}

	job := &models.Job{
		ID:        common.NewJobID(),
		Status:    models.JobStatusProcessing,
		URLs:      urls,
		Total:     len(urls),
		Progress:  progressQueued,
		StartTime: time.Now().UTC(),
	}

	if err := m.jobs.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to allocate job: %w", err)
	}

	m.mu.Lock()
	if m.running == nil {
		m.running = make(map[string]struct{})
	}
	m.running[job.ID] = struct{}{}
	m.mu.Unlock()

	m.logger.Info().
		Str("job_id", job.ID).
		Int("total", job.Total).
		Int("concurrency", concurrency).
		Msg("Bulk job started")

	m.publisher.PublishProgress(models.ProgressEvent{
		JobID:    job.ID,
		Step:     "queued",
		Progress: progressQueued,
		Message:  fmt.Sprintf("0/%d", job.Total),
	})

	go m.run(job, concurrency, cleanText)

	return job, nil
}

// IsRunning reports whether the job's worker pool is still draining
func (m *Manager) IsRunning(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[jobID]
	return ok
}

// run executes the job fan-out. Detached from the request context: bulk
// jobs outlive the HTTP request that started them.
func (m *Manager) run(job *models.Job, concurrency int, cleanText bool) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str("job_id", job.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Bulk job panicked")
			m.failJob(ctx, job, fmt.Sprintf("internal error: %v", r))
		}
		m.mu.Lock()
		delete(m.running, job.ID)
		m.mu.Unlock()
	}()

	results := make([]*models.CrawlResult, job.Total)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	var counterMu sync.Mutex
	completed, success, failed := 0, 0, 0

	for i, url := range job.URLs {
		wg.Add(1)
		sem <- struct{}{}

		go func(index int, target string) {
			defer wg.Done()
			defer func() { <-sem }()

			result := m.crawler.CrawlCleaned(ctx, target, nil, cleanText)
			if result == nil {
				result = models.NewFailedResult(target, "crawl returned no result")
			}
			results[index] = result

			// The mutex spans the counter bump, the storage write and the
			// publish; stored counters and published progress can never
			// move backwards
			counterMu.Lock()
			completed++
			if result.IsSuccess() {
				success++
			} else {
				failed++
			}
			progress := progressFlightBase + completed*progressFlightSpan/job.Total

			m.updateCounters(ctx, job.ID, completed, success, failed, progress)

			m.publisher.PublishProgress(models.ProgressEvent{
				JobID:    job.ID,
				Step:     "processing",
				Progress: progress,
				Message:  fmt.Sprintf("%d/%d (success: %d)", completed, job.Total, success),
			})
			counterMu.Unlock()
		}(i, url)
	}

	wg.Wait()

	m.finishJob(ctx, job, results, success, failed)
}

// updateCounters persists the running counters. Callers hold the job's
// counter mutex, so the read-modify-write never interleaves. Storage
// failures are logged and skipped; the in-memory counters remain
// authoritative until the final update.
func (m *Manager) updateCounters(ctx context.Context, jobID string, completed, success, failed, progress int) {
	job, err := m.jobs.GetJob(ctx, jobID)
	if err != nil {
		m.logger.Warn().Str("job_id", jobID).Err(err).Msg("Failed to load job for counter update")
		return
	}
	job.Completed = completed
	job.Success = success
	job.Failed = failed
	job.Progress = progress
	if err := m.jobs.UpdateJob(ctx, job); err != nil {
		m.logger.Warn().Str("job_id", jobID).Err(err).Msg("Failed to persist job counters")
	}
}

func (m *Manager) finishJob(ctx context.Context, job *models.Job, results []*models.CrawlResult, success, failed int) {
	m.publisher.PublishProgress(models.ProgressEvent{
		JobID:    job.ID,
		Step:     "saving",
		Progress: progressSaving,
		Message:  "saving results",
	})

	endTime := time.Now().UTC()

	summary := &models.JobSummary{
		JobID:       job.ID,
		TotalURLs:   job.Total,
		Successful:  success,
		Failed:      failed,
		SuccessRate: float64(success) / float64(job.Total) * 100,
		StartTime:   job.StartTime,
		EndTime:     endTime,
		Results:     results,
	}

	resultFile, err := m.summaries.Write(summary)
	if err != nil {
		m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Failed to write summary file")
	}

	stored, err := m.jobs.GetJob(ctx, job.ID)
	if err != nil {
		stored = job
	}
	stored.Status = models.JobStatusCompleted
	stored.Completed = job.Total
	stored.Success = success
	stored.Failed = failed
	stored.Progress = progressDone
	stored.EndTime = &endTime
	stored.Results = results
	stored.ResultFile = resultFile

	if err := m.jobs.UpdateJob(ctx, stored); err != nil {
		m.logger.Error().Str("job_id", job.ID).Err(err).Msg("Failed to persist finished job")
	}

	m.publisher.PublishComplete(job.ID, completionPayload(summary))

	m.logger.Info().
		Str("job_id", job.ID).
		Int("success", success).
		Int("failed", failed).
		Str("result_file", resultFile).
		Msg("Bulk job finished")
}

func (m *Manager) failJob(ctx context.Context, job *models.Job, errMsg string) {
	endTime := time.Now().UTC()

	stored, err := m.jobs.GetJob(ctx, job.ID)
	if err != nil {
		stored = job
	}
	stored.Status = models.JobStatusFailed
	stored.Error = errMsg
	stored.EndTime = &endTime

	if err := m.jobs.UpdateJob(ctx, stored); err != nil {
		m.logger.Error().Str("job_id", job.ID).Err(err).Msg("Failed to persist failed job")
	}

	m.publisher.PublishError(job.ID, errMsg)
}

// completionPayload truncates the per-URL result list for large jobs so
// the complete event stays a reasonable size
func completionPayload(summary *models.JobSummary) interface{} {
	const maxInlineResults = 50

	if len(summary.Results) <= maxInlineResults {
		return summary
	}

	truncated := *summary
	truncated.Results = summary.Results[:maxInlineResults]
	return map[string]interface{}{
		"summary":           &truncated,
		"results_truncated": true,
		"total_results":     len(summary.Results),
	}
}
