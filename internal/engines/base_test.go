package engines

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

func retryStrategy(maxRetries int) *models.CrawlStrategy {
	s := models.NewDefaultStrategy()
	s.MaxRetries = maxRetries
	s.WaitTime = time.Millisecond
	return s
}

// scriptedCrawl fails with errMsg until the given attempt succeeds
func scriptedCrawl(succeedOn int, errMsg string, calls *int) crawlFunc {
	return func(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
		*calls++
		if succeedOn > 0 && *calls >= succeedOn {
			return &models.CrawlResult{
				URL:    url,
				Text:   "recovered content",
				Status: models.CrawlStatusComplete,
			}
		}
		return models.NewFailedResult(url, errMsg)
	}
}

func TestCrawlWithRetryAttemptCount(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		succeedOn  int
		errMsg     string
		wantCalls  int
		wantOK     bool
	}{
		{"transient failure exhausts all attempts", 3, 0, "connection reset", 3, false},
		{"max_retries is the total attempt budget", 2, 0, "connection reset", 2, false},
		{"zero clamps to one attempt", 0, 0, "connection reset", 1, false},
		{"permanent error stops immediately", 3, 0, "HTTP 404 not found", 1, false},
		{"success on second attempt", 3, 2, "connection reset", 2, true},
		{"first-attempt success never retries", 3, 1, "", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newBaseEngine("requests", arbor.NewLogger())

			calls := 0
			result := base.crawlWithRetry(context.Background(), scriptedCrawl(tt.succeedOn, tt.errMsg, &calls), "https://example.com", retryStrategy(tt.maxRetries))

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantOK, result.IsSuccess())
		})
	}
}

func TestCrawlWithRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	base := newBaseEngine("requests", arbor.NewLogger())

	calls := 0
	result := base.crawlWithRetry(ctx, scriptedCrawl(1, "", &calls), "https://example.com", retryStrategy(3))

	assert.Equal(t, 0, calls)
	assert.False(t, result.IsSuccess())
	assert.Contains(t, result.Error, "crawl cancelled")
}
