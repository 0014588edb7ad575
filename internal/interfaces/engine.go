package interfaces

import (
	"context"

	"github.com/ternarybob/scout/internal/models"
)

// Engine is the uniform contract every crawl back-end implements.
// Engines never return errors from Crawl-style calls for per-URL failures;
// they convert them into failed CrawlResults. The error return is reserved
// for programming errors (nil strategy, closed engine).
type Engine interface {
	// Name returns the registry key ("requests", "playwright", ...)
	Name() string

	// Initialize acquires backing resources (clients, browser processes,
	// API credentials). An engine that cannot reach its capability returns
	// an error and is dropped from the registry rather than recorded broken.
	Initialize(ctx context.Context) error

	// Cleanup releases all resources. Idempotent.
	Cleanup() error

	// Capabilities returns the declarative tag set used by the strategy builder
	Capabilities() []string

	// Crawl fetches one URL under the given strategy
	Crawl(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult

	// CrawlWithRetry wraps Crawl with permanent-error classification and
	// exponential back-off, and updates the engine's rolling stats
	CrawlWithRetry(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult

	// Stats returns rolling performance counters
	Stats() models.EngineStats
}
