package engines

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/llm"
)

const (
	crawl4aiBaseScore = 50

	// Markdown beyond this is crawled fine but not sent for refinement
	refineInputLimit = 12000
)

const refineSystemPrompt = `You clean up markdown extracted from web pages.
Remove navigation menus, cookie banners, footers, advertising and other
boilerplate. Keep every heading and all main content verbatim, in the
original language. Return only the cleaned markdown, no commentary.`

// Crawl4AIEngine renders pages in headless Chrome and refines the extracted
// markdown through an LLM provider. When no provider is configured the
// engine still crawls, skipping the refinement step.
type Crawl4AIEngine struct {
	baseEngine
	runtime  *browserRuntime
	provider llm.Provider
}

// NewCrawl4AIEngine creates the AI-assisted engine. provider may be nil.
func NewCrawl4AIEngine(runtime *browserRuntime, provider llm.Provider, logger arbor.ILogger) *Crawl4AIEngine {
	return &Crawl4AIEngine{
		baseEngine: newBaseEngine(models.EngineCrawl4AI, logger),
		runtime:    runtime,
		provider:   provider,
	}
}

// Initialize starts the shared browser runtime
func (e *Crawl4AIEngine) Initialize(ctx context.Context) error {
	return e.runtime.start()
}

// Cleanup is a no-op: the shared runtime and the LLM provider are owned
// by the caller and shut down once, not per engine.
func (e *Crawl4AIEngine) Cleanup() error {
	return nil
}

// Capabilities lists what this engine can handle
func (e *Crawl4AIEngine) Capabilities() []string {
	caps := []string{
		models.CapabilityJavaScriptRendering,
		models.CapabilityInfiniteScroll,
	}
	if e.provider != nil {
		caps = append(caps, models.CapabilityAIExtraction)
	}
	return caps
}

// Crawl performs a single render-and-refine attempt
func (e *Crawl4AIEngine) Crawl(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}

	start := time.Now()
	html, err := e.runtime.render(ctx, url, strategy)
	if err != nil {
		return e.failedResult(url, err.Error())
	}

	parsed, err := parsePage(html, url)
	if err != nil {
		return e.failedResult(url, err.Error())
	}

	refined := e.refine(ctx, url, parsed.Markdown)
	if refined != "" {
		parsed.Markdown = refined
	}

	result := buildSuccessResult(e.name, url, parsed, crawl4aiBaseScore, strategy)
	if result.IsSuccess() {
		result.Metadata.ProcessingTime = time.Since(start).Round(100 * time.Millisecond).String()
		if refined != "" {
			result.Metadata.Extra = map[string]interface{}{
				"llm_provider": e.provider.Name(),
				"llm_refined":  true,
			}
		}
	}
	return result
}

// CrawlWithRetry wraps Crawl in the shared retry loop
func (e *Crawl4AIEngine) CrawlWithRetry(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}
	return e.crawlWithRetry(ctx, e.Crawl, url, strategy)
}

// refine asks the provider to strip boilerplate from the markdown. Any
// provider failure keeps the unrefined markdown; refinement never fails a
// crawl that already has content.
func (e *Crawl4AIEngine) refine(ctx context.Context, url, markdown string) string {
	if e.provider == nil || markdown == "" || len(markdown) > refineInputLimit {
		return ""
	}

	response, err := e.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: refineSystemPrompt},
		{Role: "user", Content: markdown},
	})
	if err != nil {
		e.logger.Warn().
			Str("url", url).
			Str("provider", e.provider.Name()).
			Err(err).
			Msg("LLM refinement failed, keeping raw extraction")
		return ""
	}

	response = strings.TrimSpace(response)
	// A drastically shrunken response means the model dropped content
	if response == "" || len(response) < len(markdown)/10 {
		return ""
	}
	return response
}
