package engines

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// baseEngine carries the state shared by every crawl engine: identity,
// logging and mutex-guarded statistics.
type baseEngine struct {
	name   string
	logger arbor.ILogger

	mu    sync.Mutex
	stats models.EngineStats
}

func newBaseEngine(name string, logger arbor.ILogger) baseEngine {
	return baseEngine{name: name, logger: logger}
}

// Name returns the engine identifier
func (b *baseEngine) Name() string {
	return b.name
}

// Stats returns a snapshot of the engine statistics
func (b *baseEngine) Stats() models.EngineStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// recordCrawl folds one crawl outcome into the running statistics.
// AvgResponseTime is a cumulative average over all crawls.
func (b *baseEngine) recordCrawl(success bool, elapsed time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.TotalCrawls++
	if success {
		b.stats.SuccessCount++
	} else {
		b.stats.FailureCount++
	}

	seconds := elapsed.Seconds()
	n := float64(b.stats.TotalCrawls)
	b.stats.AvgResponseTime = b.stats.AvgResponseTime + (seconds-b.stats.AvgResponseTime)/n
}

// crawlFunc is a single-attempt crawl; engines hand theirs to crawlWithRetry
type crawlFunc func(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult

// crawlWithRetry runs crawl up to MaxRetries total attempts with
// exponential backoff. Permanent errors stop retries immediately; the
// orchestrator can still fall back to another engine. The returned result
// is always non-nil and failures are expressed as failed results, never
// Go errors.
func (b *baseEngine) crawlWithRetry(ctx context.Context, crawl crawlFunc, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	maxAttempts := strategy.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last *models.CrawlResult

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return b.failedResult(url, fmt.Sprintf("crawl cancelled: %v", err))
		}

		start := time.Now()
		result := crawl(ctx, url, strategy)
		elapsed := time.Since(start)

		if result == nil {
			result = b.failedResult(url, "engine returned no result")
		}
		result.Metadata.ExecutionTime = elapsed.Seconds()

		b.recordCrawl(result.IsSuccess(), elapsed)

		if result.IsSuccess() {
			if attempt > 0 {
				b.logger.Info().
					Str("engine", b.name).
					Str("url", url).
					Int("attempt", attempt+1).
					Msg("Crawl succeeded after retry")
			}
			return result
		}

		last = result

		if IsPermanentError(result.Error) {
			b.logger.Debug().
				Str("engine", b.name).
				Str("url", url).
				Str("error", result.Error).
				Msg("Permanent error, not retrying")
			return result
		}

		if attempt < maxAttempts-1 {
			backoff := Backoff(strategy.WaitTime, attempt)
			b.logger.Debug().
				Str("engine", b.name).
				Str("url", url).
				Int("attempt", attempt+1).
				Str("backoff", backoff.String()).
				Str("error", result.Error).
				Msg("Crawl failed, retrying")

			select {
			case <-ctx.Done():
				return b.failedResult(url, fmt.Sprintf("crawl cancelled: %v", ctx.Err()))
			case <-time.After(backoff):
			}
		}
	}

	return last
}

// failedResult builds a failed result tagged with this engine's name
func (b *baseEngine) failedResult(url, errMsg string) *models.CrawlResult {
	result := models.NewFailedResult(url, errMsg)
	result.Metadata.CrawlerUsed = b.name
	return result
}
