package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/scout/internal/models"
)

// JobStorage persists bulk-job state for the life of the process
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, jobID string) error
	ListJobs(ctx context.Context, status string, limit int) ([]*models.Job, error)
}

// CacheStorage is the TTL cache for crawl results keyed by URL
type CacheStorage interface {
	Get(ctx context.Context, url string) (*models.CrawlResult, bool)
	Set(ctx context.Context, url string, result *models.CrawlResult, ttl time.Duration) error
	Delete(ctx context.Context, url string) error
}

// StorageManager bundles the storage backends behind one lifecycle
type StorageManager interface {
	JobStorage() JobStorage
	CacheStorage() CacheStorage
	Close() error
}
