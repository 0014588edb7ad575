package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/httpclient"
	"github.com/ternarybob/scout/internal/models"
)

const firecrawlBaseScore = 40

// FirecrawlEngine delegates crawling to the hosted Firecrawl scrape API.
// It requires an API key; without one the engine stays out of the registry.
type FirecrawlEngine struct {
	baseEngine
	config *common.FirecrawlConfig
	client *http.Client
}

// NewFirecrawlEngine creates the premium-service engine
func NewFirecrawlEngine(cfg *common.FirecrawlConfig, logger arbor.ILogger) *FirecrawlEngine {
	return &FirecrawlEngine{
		baseEngine: newBaseEngine(models.EngineFirecrawl, logger),
		config:     cfg,
	}
}

// Initialize validates the key and prepares the HTTP client
func (e *FirecrawlEngine) Initialize(ctx context.Context) error {
	if e.config.APIKey == "" {
		return fmt.Errorf("firecrawl api key not configured")
	}

	timeout := 90 * time.Second
	if d, err := time.ParseDuration(e.config.Timeout); err == nil && d > 0 {
		timeout = d
	}
	e.client = httpclient.NewDefaultHTTPClient(timeout)
	return nil
}

// Cleanup releases idle connections
func (e *FirecrawlEngine) Cleanup() error {
	if e.client != nil {
		e.client.CloseIdleConnections()
	}
	return nil
}

// Capabilities lists what this engine can handle
func (e *FirecrawlEngine) Capabilities() []string {
	return []string{
		models.CapabilityJavaScriptRendering,
		models.CapabilityAntiBotBypass,
		models.CapabilityPremiumService,
	}
}

type firecrawlScrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type firecrawlScrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown string   `json:"markdown"`
		HTML     string   `json:"html"`
		Links    []string `json:"links"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			OGTitle     string `json:"ogTitle"`
			StatusCode  int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

// Crawl performs a single scrape call
func (e *FirecrawlEngine) Crawl(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}

	start := time.Now()

	payload := firecrawlScrapeRequest{URL: url, Formats: []string{"markdown", "html"}}
	body, err := json.Marshal(payload)
	if err != nil {
		return e.failedResult(url, fmt.Sprintf("failed to encode scrape request: %v", err))
	}

	endpoint := strings.TrimRight(e.config.BaseURL, "/") + "/scrape"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return e.failedResult(url, fmt.Sprintf("invalid url: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return e.failedResult(url, fmt.Sprintf("firecrawl request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 20*1024*1024))
	if err != nil {
		return e.failedResult(url, fmt.Sprintf("firecrawl response read failed: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return e.failedResult(url, fmt.Sprintf("firecrawl HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var scrape firecrawlScrapeResponse
	if err := json.Unmarshal(raw, &scrape); err != nil {
		return e.failedResult(url, fmt.Sprintf("firecrawl response decode failed: %v", err))
	}
	if !scrape.Success {
		msg := scrape.Error
		if msg == "" {
			msg = "firecrawl reported failure without detail"
		}
		return e.failedResult(url, msg)
	}
	if scrape.Data.Metadata.StatusCode >= 400 {
		return e.failedResult(url, fmt.Sprintf("HTTP %d: %s", scrape.Data.Metadata.StatusCode, http.StatusText(scrape.Data.Metadata.StatusCode)))
	}

	markdown := strings.TrimSpace(scrape.Data.Markdown)
	if markdown == "" {
		return e.failedResult(url, "no content extracted")
	}

	title := scrape.Data.Metadata.Title
	if title == "" {
		title = scrape.Data.Metadata.OGTitle
	}

	page := &parsedPage{
		Title:        title,
		Markdown:     markdown,
		Description:  scrape.Data.Metadata.Description,
		HasOpenGraph: scrape.Data.Metadata.OGTitle != "",
		Links:        scrape.Data.Links,
	}

	result := buildSuccessResult(e.name, url, page, firecrawlBaseScore, strategy)
	if result.IsSuccess() {
		result.Metadata.ProcessingTime = time.Since(start).Round(100 * time.Millisecond).String()
	}
	return result
}

// CrawlWithRetry wraps Crawl in the shared retry loop
func (e *FirecrawlEngine) CrawlWithRetry(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}
	return e.crawlWithRetry(ctx, e.Crawl, url, strategy)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
