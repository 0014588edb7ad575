package models

import (
	"time"
)

// Bulk job lifecycle states
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job is the state of one bulk crawl, owned by its worker goroutine.
// Counters hold completed = success + failed at all times.
type Job struct {
	ID         string         `json:"job_id" badgerhold:"key"`
	Status     string         `json:"status"`
	URLs       []string       `json:"urls"`
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Success    int            `json:"success"`
	Failed     int            `json:"failed"`
	Progress   int            `json:"progress"` // 0-100
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	Results    []*CrawlResult `json:"results,omitempty"` // Ordered by input URL once finished
	ResultFile string         `json:"result_file,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// IsFinished reports whether the job reached a terminal state
func (j *Job) IsFinished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// SuccessRate returns the percentage of URLs that crawled successfully
func (j *Job) SuccessRate() float64 {
	if j.Total == 0 {
		return 0
	}
	return float64(j.Success) / float64(j.Total) * 100
}

// JobSummary is the persisted summary file written when a bulk job finishes
type JobSummary struct {
	JobID       string         `json:"job_id"`
	TotalURLs   int            `json:"total_urls"`
	Successful  int            `json:"successful"`
	Failed      int            `json:"failed"`
	SuccessRate float64        `json:"success_rate"` // Percent
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	Results     []*CrawlResult `json:"results"`
}
