package engines

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

const (
	playwrightBaseScore = 45

	// DOM growth below this between samples counts as idle
	activityGrowthBytes = 1024
	// Network must be quiet this long before the page counts as settled
	networkIdleWindow = 3 * time.Second
	activitySample    = 1 * time.Second
)

// stealthScript masks the most common headless-automation fingerprints.
// Injected on every new document when anti-bot mode is requested.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en', 'ko-KR'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`

// browserRuntime owns one headless Chrome allocator shared by the
// browser-backed engines. Each crawl gets a fresh tab so page state never
// leaks between URLs.
type browserRuntime struct {
	config *common.Config
	logger arbor.ILogger

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	initialized bool
}

func newBrowserRuntime(cfg *common.Config, logger arbor.ILogger) *browserRuntime {
	return &browserRuntime{config: cfg, logger: logger}
}

// start launches the allocator and verifies Chrome responds. Safe to call
// more than once; subsequent calls are no-ops.
func (rt *browserRuntime) start() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.initialized {
		return nil
	}
	if !rt.config.Engines.Browser.Enabled {
		return fmt.Errorf("browser engines disabled in configuration")
	}

	browser := rt.config.Engines.Browser
	userAgent := browser.UserAgent
	if userAgent == "" {
		userAgent = rt.config.Crawler.UserAgent
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", browser.Headless),
		chromedp.Flag("disable-gpu", browser.DisableGPU),
		chromedp.Flag("no-sandbox", browser.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	// Startup test on a throwaway tab
	testCtx, testCancel := chromedp.NewContext(allocCtx)
	defer testCancel()
	probeCtx, probeCancel := context.WithTimeout(testCtx, 30*time.Second)
	defer probeCancel()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		allocCancel()
		return fmt.Errorf("browser startup test failed: %w", err)
	}

	rt.allocCtx = allocCtx
	rt.allocCancel = allocCancel
	rt.initialized = true

	rt.logger.Info().
		Bool("headless", browser.Headless).
		Str("user_agent", userAgent).
		Msg("Browser runtime started")

	return nil
}

func (rt *browserRuntime) stop() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.initialized {
		return nil
	}
	rt.allocCancel()
	rt.allocCtx = nil
	rt.allocCancel = nil
	rt.initialized = false
	rt.logger.Info().Msg("Browser runtime stopped")
	return nil
}

func (rt *browserRuntime) ready() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.initialized
}

// render navigates a fresh tab to url and waits for the page to settle:
// DOM growth under 1KiB per sample for the activity timeout, network quiet
// for 3s, and readyState complete. The hard ceiling is MaxTotalTime; on
// overrun whatever rendered so far is captured and returned.
func (rt *browserRuntime) render(parent context.Context, url string, strategy *models.CrawlStrategy) (string, error) {
	rt.mu.Lock()
	if !rt.initialized {
		rt.mu.Unlock()
		return "", fmt.Errorf("browser runtime not initialized")
	}
	allocCtx := rt.allocCtx
	rt.mu.Unlock()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	maxTotal := strategy.MaxTotalTime
	if maxTotal <= 0 {
		maxTotal = rt.config.Crawler.MaxTotalTime
	}
	runCtx, cancelRun := context.WithTimeout(tabCtx, maxTotal)
	defer cancelRun()
	stop := context.AfterFunc(parent, cancelRun)
	defer stop()

	var lastNetwork atomic.Int64
	lastNetwork.Store(time.Now().UnixNano())
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent,
			*network.EventLoadingFinished,
			*network.EventLoadingFailed:
			lastNetwork.Store(time.Now().UnixNano())
		}
	})

	tasks := chromedp.Tasks{network.Enable()}
	if strategy.AntiBotMode {
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}))
	}
	tasks = append(tasks, chromedp.Navigate(url))

	if err := chromedp.Run(runCtx, tasks); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	activityTimeout := strategy.ActivityTimeout
	if activityTimeout <= 0 {
		activityTimeout = rt.config.Crawler.ActivityTimeout
	}

	rt.waitForSettle(runCtx, url, activityTimeout, &lastNetwork)

	// Capture outside runCtx so a ceiling overrun still yields partial content
	captureCtx, cancelCapture := context.WithTimeout(tabCtx, 10*time.Second)
	defer cancelCapture()

	var html string
	if err := chromedp.Run(captureCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to capture page: %w", err)
	}
	return html, nil
}

// waitForSettle samples the DOM once a second until the page is quiet or
// the context expires
func (rt *browserRuntime) waitForSettle(ctx context.Context, url string, activityTimeout time.Duration, lastNetwork *atomic.Int64) {
	ticker := time.NewTicker(activitySample)
	defer ticker.Stop()

	var lastLen int
	var idle time.Duration

	for {
		select {
		case <-ctx.Done():
			rt.logger.Warn().
				Str("url", url).
				Msg("Page never settled, capturing partial render")
			return
		case <-ticker.C:
		}

		var length int
		var state string
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`document.documentElement.outerHTML.length`, &length),
			chromedp.Evaluate(`document.readyState`, &state),
		)
		if err != nil {
			return
		}

		if length-lastLen > activityGrowthBytes {
			idle = 0
		} else {
			idle += activitySample
		}
		lastLen = length

		networkIdle := time.Since(time.Unix(0, lastNetwork.Load()))
		if idle >= activityTimeout && networkIdle >= networkIdleWindow && state == "complete" {
			return
		}
	}
}

// BrowserEngine renders pages in headless Chrome. It handles SPAs,
// JavaScript-dependent content and, with anti-bot mode, sites that block
// plain HTTP clients.
type BrowserEngine struct {
	baseEngine
	runtime *browserRuntime
}

// NewBrowserEngine creates the headless-browser engine over a shared runtime
func NewBrowserEngine(runtime *browserRuntime, logger arbor.ILogger) *BrowserEngine {
	return &BrowserEngine{
		baseEngine: newBaseEngine(models.EnginePlaywright, logger),
		runtime:    runtime,
	}
}

// Initialize starts the shared browser runtime
func (e *BrowserEngine) Initialize(ctx context.Context) error {
	return e.runtime.start()
}

// Cleanup shuts down the shared browser runtime
func (e *BrowserEngine) Cleanup() error {
	return e.runtime.stop()
}

// Capabilities lists what this engine can handle
func (e *BrowserEngine) Capabilities() []string {
	return []string{
		models.CapabilityJavaScriptRendering,
		models.CapabilityAntiBotBypass,
		models.CapabilityInfiniteScroll,
	}
}

// Crawl performs a single render attempt
func (e *BrowserEngine) Crawl(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
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

	result := buildSuccessResult(e.name, url, parsed, playwrightBaseScore, strategy)
	if result.IsSuccess() {
		result.Metadata.ProcessingTime = time.Since(start).Round(100 * time.Millisecond).String()
	}
	return result
}

// CrawlWithRetry wraps Crawl in the shared retry loop
func (e *BrowserEngine) CrawlWithRetry(ctx context.Context, url string, strategy *models.CrawlStrategy) *models.CrawlResult {
	if strategy == nil {
		strategy = models.NewDefaultStrategy()
	}
	return e.crawlWithRetry(ctx, e.Crawl, url, strategy)
}
