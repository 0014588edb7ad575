package engines

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/httpclient"
	"github.com/ternarybob/scout/internal/models"
)

const (
	requestsBaseScore = 40
	readChunkSize     = 8 * 1024
)

// RequestsEngine is the plain HTTP engine: fast, no JavaScript execution.
// Body reads are chunked so a stalled transfer is cut off by the activity
// timeout while slow-but-moving transfers run to completion.
type RequestsEngine struct {
	baseEngine
	client *http.Client
	config *common.Config
}

// NewRequestsEngine creates the HTTP engine
func NewRequestsEngine(cfg *common.Config, logger arbor.ILogger) *RequestsEngine {
	return &RequestsEngine{
		baseEngine: newBaseEngine(models.EngineRequests, logger),
		config:     cfg,
	}
}

// Initialize prepares the shared HTTP client
func (e *RequestsEngine) Initialize(ctx context.Context) error {
	e.client = httpclient.NewCrawlClient(e.config.Crawler.RequestTimeout)
	return nil
}

// Cleanup releases idle connections
func (e *RequestsEngine) Cleanup() error {
	if e.client != nil {
		e.client.CloseIdleConnections()
	}
	return nil
}

// Capabilities lists what this engine can handle
func (e *RequestsEngine) Capabilities() []string {
	return []string{models.CapabilityFastStatic, models.CapabilityBulkProcessing}
}

// Crawl performs a single fetch attempt
func (e *RequestsEngine) Crawl(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}

	maxTotal := strategy.MaxTotalTime
	if maxTotal <= 0 {
		maxTotal = e.config.Crawler.MaxTotalTime
	}
	fetchCtx, cancel := context.WithTimeout(ctx, maxTotal)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return e.failedResult(url, fmt.Sprintf("invalid url: %v", err))
	}
	req.Header.Set("User-Agent", e.config.Crawler.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ko-KR;q=0.8,ko;q=0.7")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return e.failedResult(url, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return e.failedResult(url, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	activityTimeout := strategy.ActivityTimeout
	if activityTimeout <= 0 {
		activityTimeout = e.config.Crawler.ActivityTimeout
	}

	body, truncated := readWithActivity(fetchCtx, resp.Body, activityTimeout, e.config.Crawler.MaxBodySize)
	if len(body) == 0 {
		return e.failedResult(url, "empty response body")
	}
	if truncated {
		e.logger.Warn().
			Str("url", url).
			Int("bytes", len(body)).
			Msg("Body read cut short, using partial content")
	}

	page, err := parsePage(string(body), url)
	if err != nil {
		return e.failedResult(url, err.Error())
	}

	result := buildSuccessResult(e.name, url, page, requestsBaseScore, strategy)
	if result.IsSuccess() {
		result.Metadata.ProcessingTime = time.Since(start).Round(100 * time.Millisecond).String()
	}
	return result
}

// CrawlWithRetry wraps Crawl in the shared retry loop
func (e *RequestsEngine) CrawlWithRetry(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}
	return e.crawlWithRetry(ctx, e.Crawl, url, strategy)
}

// readWithActivity reads the body in 8KiB chunks. Each chunk resets the
// activity timer; a transfer that stalls past activityTimeout, overruns the
// context deadline or exceeds maxBytes returns the bytes received so far
// with truncated set. Partial content is worth parsing.
func readWithActivity(ctx context.Context, r io.Reader, activityTimeout time.Duration, maxBytes int) (data []byte, truncated bool) {
	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			buf := make([]byte, readChunkSize)
			n, err := r.Read(buf)
			select {
			case chunks <- chunk{data: buf[:n], err: err}:
			case <-done:
				// Read aborted; the caller closes the body, which unblocks
				// any in-flight Read
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(activityTimeout)
	defer timer.Stop()

	for {
		select {
		case c := <-chunks:
			data = append(data, c.data...)
			if c.err != nil {
				return data, c.err != io.EOF
			}
			if maxBytes > 0 && len(data) >= maxBytes {
				return data[:maxBytes], true
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(activityTimeout)
		case <-timer.C:
			return data, true
		case <-ctx.Done():
			return data, true
		}
	}
}
