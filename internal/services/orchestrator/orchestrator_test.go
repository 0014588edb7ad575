package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/analyzer"
	"github.com/ternarybob/scout/internal/services/postprocess"
	"github.com/ternarybob/scout/internal/services/strategy"
)

// stubEngine returns canned results and counts its invocations
type stubEngine struct {
	name   string
	result *models.CrawlResult
	calls  int
}

func (e *stubEngine) Name() string                             { return e.name }
func (e *stubEngine) Initialize(ctx context.Context) error     { return nil }
func (e *stubEngine) Cleanup() error                           { return nil }
func (e *stubEngine) Capabilities() []string                   { return nil }
func (e *stubEngine) Stats() models.EngineStats                { return models.EngineStats{} }

func (e *stubEngine) Crawl(ctx context.Context, url string, s *models.CrawlStrategy) *models.CrawlResult {
	e.calls++
	return e.result
}

func (e *stubEngine) CrawlWithRetry(ctx context.Context, url string, s *models.CrawlStrategy) *models.CrawlResult {
	return e.Crawl(ctx, url, s)
}

// stubRegistry serves a fixed engine map in a fixed order
type stubRegistry struct {
	order   []string
	engines map[string]*stubEngine
}

func (r *stubRegistry) Get(name string) (interfaces.Engine, bool) {
	e, ok := r.engines[name]
	return e, ok
}

func (r *stubRegistry) Available(name string) bool {
	_, ok := r.engines[name]
	return ok
}

func (r *stubRegistry) Names() []string { return r.order }

func successResult(url, engine string) *models.CrawlResult {
	return &models.CrawlResult{
		URL:       url,
		Title:     "Title",
		Text:      "# Title\n\nsome crawled content",
		Hierarchy: models.NewHierarchy(),
		Status:    models.CrawlStatusComplete,
		Timestamp: time.Now().UTC(),
		Metadata:  models.ResultMetadata{CrawlerUsed: engine, QualityScore: 60},
	}
}

func newTestService(t *testing.T, registry EngineRegistry, cache interfaces.CacheStorage) *Service {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Crawler.RequestDelay = 0
	cfg.Debug.Dir = t.TempDir()

	logger := arbor.NewLogger()
	svc := NewService(cfg, registry, analyzer.NewService(cfg, logger), strategy.NewBuilder(logger), postprocess.NewProcessor(logger), nil, logger)
	svc.cache = cache
	return svc
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https", "https://example.com/page", false},
		{"valid http", "http://example.com", false},
		{"host with port", "https://example.com:8443/x", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"javascript scheme", "javascript:void(0)", true},
		{"mailto scheme", "mailto:someone@example.com", true},
		{"anchor only", "#section", true},
		{"ftp scheme", "ftp://example.com/file", true},
		{"missing host", "https://", true},
		{"bare path", "/relative/path", true},
		{"malformed domain", "https://exa mple.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCrawlInvalidURL(t *testing.T) {
	svc := newTestService(t, &stubRegistry{}, nil)

	result := svc.Crawl(context.Background(), "javascript:void(0)", nil)

	require.NotNil(t, result)
	assert.False(t, result.IsSuccess())
	assert.Contains(t, result.Error, "invalid url")
}

func TestCrawlFirstEngineSucceeds(t *testing.T) {
	url := "https://example.com"
	first := &stubEngine{name: "requests", result: successResult(url, "requests")}
	second := &stubEngine{name: "playwright", result: successResult(url, "playwright")}

	registry := &stubRegistry{
		order:   []string{"requests", "playwright"},
		engines: map[string]*stubEngine{"requests": first, "playwright": second},
	}

	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{"requests", "playwright"}

	svc := newTestService(t, registry, nil)
	result := svc.Crawl(context.Background(), url, override)

	require.True(t, result.IsSuccess())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, "requests", result.Metadata.EngineUsed)
	assert.Equal(t, []string{"requests"}, result.Metadata.AttemptedEngines)
	assert.Equal(t, 1, result.Metadata.SuccessfulEngineIndex)
	assert.Equal(t, 2, result.Metadata.TotalAvailableEngines)

	require.NotNil(t, result.Metadata.SelectionReason)
	assert.Equal(t, "requests", result.Metadata.SelectionReason.SelectedEngine)
	assert.Equal(t, []string{"playwright"}, result.Metadata.SelectionReason.FallbackEngines)
	assert.Equal(t, 1, result.Metadata.SelectionReason.TechnicalDetails.SuccessOnAttempt)
}

func TestCrawlFallsBackToNextEngine(t *testing.T) {
	url := "https://example.com"
	first := &stubEngine{name: "requests", result: models.NewFailedResult(url, "HTTP 403 Forbidden")}
	second := &stubEngine{name: "playwright", result: successResult(url, "playwright")}

	registry := &stubRegistry{
		order:   []string{"requests", "playwright"},
		engines: map[string]*stubEngine{"requests": first, "playwright": second},
	}

	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{"requests", "playwright"}

	svc := newTestService(t, registry, nil)
	result := svc.Crawl(context.Background(), url, override)

	require.True(t, result.IsSuccess())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, "playwright", result.Metadata.EngineUsed)
	assert.Equal(t, []string{"requests", "playwright"}, result.Metadata.AttemptedEngines)
	assert.Equal(t, 2, result.Metadata.SuccessfulEngineIndex)
}

func TestCrawlAllEnginesFail(t *testing.T) {
	url := "https://example.com"
	first := &stubEngine{name: "requests", result: models.NewFailedResult(url, "HTTP 403 Forbidden")}
	second := &stubEngine{name: "playwright", result: models.NewFailedResult(url, "navigation timed out")}

	registry := &stubRegistry{
		order:   []string{"requests", "playwright"},
		engines: map[string]*stubEngine{"requests": first, "playwright": second},
	}

	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{"requests", "playwright"}

	svc := newTestService(t, registry, nil)
	result := svc.Crawl(context.Background(), url, override)

	require.NotNil(t, result)
	assert.False(t, result.IsSuccess())
	assert.True(t, result.Metadata.AllEnginesFailed)
	assert.Equal(t, "navigation timed out", result.Error)
	assert.Equal(t, []string{"requests", "playwright"}, result.Metadata.AttemptedEngines)

	// Exhausted crawls leave a debug dump reference for the API layer
	require.NotNil(t, result.Metadata.Extra)
	assert.NotEmpty(t, result.Metadata.Extra["debug_file"])
}

func TestCrawlSkipsUnregisteredEngines(t *testing.T) {
	url := "https://example.com"
	engine := &stubEngine{name: "playwright", result: successResult(url, "playwright")}

	registry := &stubRegistry{
		order:   []string{"playwright"},
		engines: map[string]*stubEngine{"playwright": engine},
	}

	// Filter drops firecrawl before the loop; the loop never sees it
	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{"firecrawl", "playwright"}

	svc := newTestService(t, registry, nil)
	result := svc.Crawl(context.Background(), url, override)

	require.True(t, result.IsSuccess())
	assert.Equal(t, []string{"playwright"}, result.Metadata.AttemptedEngines)
}

// recordingCache is an in-memory CacheStorage for orchestration tests
type recordingCache struct {
	entries map[string]*models.CrawlResult
	sets    int
}

func (c *recordingCache) Get(ctx context.Context, url string) (*models.CrawlResult, bool) {
	r, ok := c.entries[url]
	return r, ok
}

func (c *recordingCache) Set(ctx context.Context, url string, result *models.CrawlResult, ttl time.Duration) error {
	c.entries[url] = result
	c.sets++
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, url string) error {
	delete(c.entries, url)
	return nil
}

func TestCrawlCacheHitSkipsEngines(t *testing.T) {
	url := "https://example.com"
	engine := &stubEngine{name: "requests", result: successResult(url, "requests")}

	registry := &stubRegistry{
		order:   []string{"requests"},
		engines: map[string]*stubEngine{"requests": engine},
	}

	cached := successResult(url, "requests")
	cache := &recordingCache{entries: map[string]*models.CrawlResult{url: cached}}

	svc := newTestService(t, registry, cache)

	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{"requests"}

	result := svc.Crawl(context.Background(), url, override)

	assert.Same(t, cached, result)
	assert.Equal(t, 0, engine.calls)
}

func TestCrawlStoresResultInCache(t *testing.T) {
	url := "https://example.com"
	engine := &stubEngine{name: "requests", result: successResult(url, "requests")}

	registry := &stubRegistry{
		order:   []string{"requests"},
		engines: map[string]*stubEngine{"requests": engine},
	}

	cache := &recordingCache{entries: map[string]*models.CrawlResult{}}
	svc := newTestService(t, registry, cache)

	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{"requests"}

	result := svc.Crawl(context.Background(), url, override)

	require.True(t, result.IsSuccess())
	assert.Equal(t, 1, cache.sets)
	_, ok := cache.entries[url]
	assert.True(t, ok)
}

func TestCrawlCleanedAppliesPostProcessing(t *testing.T) {
	url := "https://example.com"
	raw := successResult(url, "requests")
	raw.Text = "##### Deep Heading\n\n\n\ncontent   here"
	engine := &stubEngine{name: "requests", result: raw}

	registry := &stubRegistry{
		order:   []string{"requests"},
		engines: map[string]*stubEngine{"requests": engine},
	}

	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{"requests"}

	svc := newTestService(t, registry, nil)
	result := svc.CrawlCleaned(context.Background(), url, override, true)

	require.True(t, result.IsSuccess())
	assert.True(t, result.Metadata.PostProcessingApplied)
	assert.Contains(t, result.Text, "### Deep Heading")
}
