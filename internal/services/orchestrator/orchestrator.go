package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/analyzer"
	"github.com/ternarybob/scout/internal/services/postprocess"
	"github.com/ternarybob/scout/internal/services/ratelimit"
	"github.com/ternarybob/scout/internal/services/strategy"
)

// EngineRegistry is the engine lookup surface the orchestrator needs
type EngineRegistry interface {
	Get(name string) (interfaces.Engine, bool)
	Available(name string) bool
	Names() []string
}

// Service runs the full crawl pipeline: URL validation, strategy
// resolution, the engine fallback loop and post-processing.
type Service struct {
	registry  EngineRegistry
	analyzer  *analyzer.Service
	builder   *strategy.Builder
	processor *postprocess.Processor
	cache     interfaces.CacheStorage
	debug     *DebugRecorder
	limiter   *ratelimit.DomainLimiter
	cacheTTL  time.Duration
	logger    arbor.ILogger
}

// NewService wires the orchestrator. cache may be nil to disable caching.
func NewService(
	cfg *common.Config,
	registry EngineRegistry,
	siteAnalyzer *analyzer.Service,
	builder *strategy.Builder,
	processor *postprocess.Processor,
	cache interfaces.CacheStorage,
	logger arbor.ILogger,
) *Service {
	ttl := 15 * time.Minute
	if d, err := time.ParseDuration(cfg.Cache.TTL); err == nil && d > 0 {
		ttl = d
	}
	if !cfg.Cache.Enabled {
		cache = nil
	}

	return &Service{
		registry:  registry,
		analyzer:  siteAnalyzer,
		builder:   builder,
		processor: processor,
		cache:     cache,
		debug:     NewDebugRecorder(cfg.Debug.Dir, logger),
		limiter:   ratelimit.NewDomainLimiter(cfg.Crawler.RequestDelay),
		cacheTTL:  ttl,
		logger:    logger,
	}
}

var domainLabelRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidateURL rejects malformed and unsupported URLs before any engine
// spends time on them
func ValidateURL(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return fmt.Errorf("invalid url: empty")
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return fmt.Errorf("invalid url: unsupported scheme")
	}
	if strings.HasPrefix(trimmed, "#") {
		return fmt.Errorf("invalid url: anchor-only link")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("invalid url: unsupported scheme %q", parsed.Scheme)
	}
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("invalid url: missing host")
	}
	if !domainLabelRe.MatchString(host) {
		return fmt.Errorf("invalid url: malformed domain %q", host)
	}
	return nil
}

// Crawl runs the pipeline for one URL. override, when non-nil, skips
// analysis entirely. The returned result is always non-nil; failures are
// failed results, never errors.
func (s *Service) Crawl(ctx context.Context, rawURL string, override *models.CrawlStrategy) *models.CrawlResult {
	cleanText := override != nil && override.CleanText
	return s.CrawlCleaned(ctx, rawURL, override, cleanText)
}

// CrawlCleaned is Crawl with an explicit text-cleaning preference applied
// to whichever strategy the pipeline resolves
func (s *Service) CrawlCleaned(ctx context.Context, rawURL string, override *models.CrawlStrategy, cleanText bool) *models.CrawlResult {
	if err := ValidateURL(rawURL); err != nil {
		return models.NewFailedResult(rawURL, err.Error())
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, rawURL); ok {
			s.logger.Debug().Str("url", rawURL).Msg("Cache hit")
			return cached
		}
	}

	if err := s.limiter.Wait(ctx, rawURL); err != nil {
		return models.NewFailedResult(rawURL, "crawl cancelled")
	}

	crawlStrategy, analysis := s.resolveStrategy(ctx, rawURL, override)
	if cleanText {
		crawlStrategy.CleanText = true
	}
	crawlStrategy = s.builder.Filter(crawlStrategy, registryEngineSet{s.registry})

	result := s.runEngineLoop(ctx, rawURL, crawlStrategy, analysis)

	if result.IsSuccess() {
		if crawlStrategy.CleanText {
			result = s.processor.Process(result, true)
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, rawURL, result, s.cacheTTL); err != nil {
				s.logger.Warn().Str("url", rawURL).Err(err).Msg("Failed to cache result")
			}
		}
	}

	return result
}

// resolveStrategy picks the override, the analyzed strategy or the domain
// heuristic, in that order
func (s *Service) resolveStrategy(ctx context.Context, rawURL string, override *models.CrawlStrategy) (*models.CrawlStrategy, *models.SiteAnalysis) {
	if override != nil {
		return override, nil
	}

	analysis, err := s.analyzer.Analyze(ctx, rawURL, "")
	if err != nil {
		return s.builder.Fallback(rawURL), nil
	}
	return s.builder.FromAnalysis(analysis), analysis
}

// runEngineLoop tries every engine in priority order until one succeeds
func (s *Service) runEngineLoop(ctx context.Context, rawURL string, crawlStrategy *models.CrawlStrategy, analysis *models.SiteAnalysis) *models.CrawlResult {
	var attempted []string
	engineErrors := make(map[string]string)
	lastError := "no engines available"

	total := len(crawlStrategy.EnginePriority)

	for _, name := range crawlStrategy.EnginePriority {
		engine, ok := s.registry.Get(name)
		if !ok {
			s.logger.Warn().
				Str("engine", name).
				Str("url", rawURL).
				Msg("Engine not registered, skipping")
			continue
		}

		attempted = append(attempted, name)
		start := time.Now()

		s.logger.Info().
			Str("engine", name).
			Str("url", rawURL).
			Int("attempt", len(attempted)).
			Int("total_engines", total).
			Msg("Trying engine")

		result := engine.CrawlWithRetry(ctx, rawURL, crawlStrategy)
		elapsed := time.Since(start)

		if result != nil && result.IsSuccess() {
			s.decorateSuccess(result, crawlStrategy, analysis, attempted, total, name, elapsed)
			s.logger.Info().
				Str("engine", name).
				Str("url", rawURL).
				Int("quality_score", result.Metadata.QualityScore).
				Str("elapsed", elapsed.Round(time.Millisecond).String()).
				Msg("Crawl succeeded")
			return result
		}

		if result != nil && result.Error != "" {
			lastError = result.Error
		} else {
			lastError = fmt.Sprintf("engine %s returned no result", name)
		}
		engineErrors[name] = lastError

		s.logger.Warn().
			Str("engine", name).
			Str("url", rawURL).
			Str("error", lastError).
			Msg("Engine failed, trying next")
	}

	failed := models.NewFailedResult(rawURL, lastError)
	failed.Metadata.AttemptedEngines = attempted
	failed.Metadata.TotalAvailableEngines = total
	failed.Metadata.AllEnginesFailed = true
	if analysis != nil {
		failed.Metadata.SiteAnalysis = analysis
	}

	if dumpFile := s.debug.DumpFailure(rawURL, attempted, engineErrors, lastError); dumpFile != "" {
		failed.Metadata.Extra = map[string]interface{}{"debug_file": dumpFile}
	}

	return failed
}

// decorateSuccess attaches the orchestration metadata the API contract
// requires on every successful result
func (s *Service) decorateSuccess(result *models.CrawlResult, crawlStrategy *models.CrawlStrategy, analysis *models.SiteAnalysis, attempted []string, total int, engineUsed string, elapsed time.Duration) {
	result.Metadata.AttemptedEngines = attempted
	result.Metadata.SuccessfulEngineIndex = len(attempted)
	result.Metadata.TotalAvailableEngines = total
	result.Metadata.EngineUsed = engineUsed
	result.Metadata.ExecutionTime = elapsed.Seconds()
	if result.Metadata.ProcessingTime == "" {
		result.Metadata.ProcessingTime = elapsed.Round(100 * time.Millisecond).String()
	}
	if analysis != nil {
		result.Metadata.SiteAnalysis = analysis
	}
	result.Metadata.SelectionReason = buildSelectionReason(crawlStrategy, analysis, attempted, engineUsed)
}

// buildSelectionReason explains the engine choice for the caller's UI
func buildSelectionReason(crawlStrategy *models.CrawlStrategy, analysis *models.SiteAnalysis, attempted []string, engineUsed string) *models.EngineSelectionReason {
	method := "ai-driven"
	confidence := crawlStrategy.Confidence
	if crawlStrategy.IsFallback {
		method = "fallback"
		confidence = 0
	}

	reason := &models.EngineSelectionReason{
		SelectedEngine:   engineUsed,
		Confidence:       confidence,
		AnalysisMethod:   method,
		SelectionReasons: crawlStrategy.Reasons,
		TechnicalDetails: models.TechnicalDetails{
			AttemptedEngines: attempted,
			SuccessOnAttempt: len(attempted),
		},
	}

	for _, name := range crawlStrategy.EnginePriority {
		if name != engineUsed {
			reason.FallbackEngines = append(reason.FallbackEngines, name)
		}
	}

	if analysis != nil {
		reason.SiteCharacteristics = &models.SiteCharacteristics{
			SiteType:     analysis.SiteType,
			JSLevel:      analysis.JSComplexity,
			JSScore:      analysis.JSComplexityScore,
			AntiBotRisk:  analysis.AntiBotRisk,
			RequiresJS:   analysis.RequiresJS,
			LoadingStyle: analysis.ContentLoading,
		}
	} else if crawlStrategy.SiteType != "" {
		reason.SiteCharacteristics = &models.SiteCharacteristics{
			SiteType: crawlStrategy.SiteType,
		}
	}

	return reason
}

// registryEngineSet adapts the registry to the strategy builder's filter
type registryEngineSet struct {
	registry EngineRegistry
}

func (r registryEngineSet) Names() []string            { return r.registry.Names() }
func (r registryEngineSet) Available(name string) bool { return r.registry.Available(name) }
