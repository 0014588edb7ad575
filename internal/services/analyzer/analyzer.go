package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/httpclient"
	"github.com/ternarybob/scout/internal/models"
)

const (
	sampleFetchTimeout = 15 * time.Second
	sampleBodyLimit    = 512 * 1024

	probeRenderTimeout  = 20 * time.Second
	probeActivityWindow = 2 * time.Second
	// Rendered text must clear this floor and double the static sample
	// before the dynamic pass reclassifies
	probeTextFloor = 500
)

// DynamicProber renders a page in a browser for the second-pass sample
type DynamicProber interface {
	Probe(ctx context.Context, url string, strategy *models.CrawlStrategy) (string, error)
}

// Service classifies a site from a sample fetch: site type, JavaScript
// complexity, anti-bot risk and content-loading pattern. A failed sample
// fetch is returned verbatim so the strategy builder can fall back to its
// domain heuristic.
type Service struct {
	client    *http.Client
	userAgent string
	prober    DynamicProber
	logger    arbor.ILogger
}

// NewService creates the site analyzer
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		client:    httpclient.NewDefaultHTTPClient(sampleFetchTimeout),
		userAgent: cfg.Crawler.UserAgent,
		logger:    logger,
	}
}

var (
	frameworkRe = regexp.MustCompile(`(?i)react|vue|angular|svelte|__NEXT_DATA__|next\.js`)
	ssrStateRe  = regexp.MustCompile(`__NEXT_DATA__|__INITIAL_STATE__|__NUXT__|data-server-rendered`)

	frameworkNames = map[string]*regexp.Regexp{
		"react":   regexp.MustCompile(`(?i)react|__NEXT_DATA__`),
		"vue":     regexp.MustCompile(`(?i)vue|__NUXT__`),
		"angular": regexp.MustCompile(`(?i)angular|ng-app`),
		"svelte":  regexp.MustCompile(`(?i)svelte`),
	}

	jsComplexityRes = []*regexp.Regexp{
		regexp.MustCompile(`fetch\s*\(|XMLHttpRequest|axios|\$\.ajax`),
		regexp.MustCompile(`import\s*\(`),
		regexp.MustCompile(`addEventListener`),
		regexp.MustCompile(`createElement|appendChild|innerHTML|insertAdjacentHTML`),
		regexp.MustCompile(`async\s|await\s|Promise|setTimeout|setInterval`),
	}

	antiBotIndicators = map[string]*regexp.Regexp{
		"cloudflare":    regexp.MustCompile(`(?i)cloudflare|cf-ray|__cf_bm`),
		"recaptcha":     regexp.MustCompile(`(?i)recaptcha|g-recaptcha|hcaptcha`),
		"waf":           regexp.MustCompile(`(?i)datadome|perimeterx|incapsula|imperva|akamai`),
		"rate_limiting": regexp.MustCompile(`(?i)rate.?limit|too many requests|retry-after`),
		"js_challenge":  regexp.MustCompile(`(?i)checking your browser|challenge-platform|jschl`),
	}

	infiniteScrollRe = regexp.MustCompile(`(?i)infinite.?scroll|IntersectionObserver|load.?more`)
	paginationRe     = regexp.MustCompile(`(?i)pagination|paging|[?&]page=\d`)
	ajaxLoadRe       = regexp.MustCompile(`(?i)\.load\s*\(|loadContent|ajaxLoad`)
	interactionRe    = regexp.MustCompile(`(?i)onclick\s*=|data-toggle|aria-expanded`)
)

// Analyze classifies url. sampleHTML may be empty; the analyzer then
// fetches its own sample. A fetch failure is returned as the error.
func (s *Service) Analyze(ctx context.Context, url string, sampleHTML string) (*models.SiteAnalysis, error) {
	if sampleHTML == "" {
		fetched, err := s.fetchSample(ctx, url)
		if err != nil {
			s.logger.Warn().
				Str("url", url).
				Err(err).
				Msg("Sample fetch failed, analysis unavailable")
			return nil, err
		}
		sampleHTML = fetched
	}

	analysis := s.analyzeHTML(url, sampleHTML)

	// Borderline dynamic pages get a rendered second pass: when the
	// browser produces substantially more text than the static sample,
	// the content is client-rendered and the page is a full SPA.
	if s.prober != nil && analysis.SiteType == models.SiteTypeStandardDynamic {
		s.refineWithProbe(ctx, url, analysis, sampleHTML)
	}

	s.logger.Info().
		Str("url", url).
		Str("site_type", analysis.SiteType).
		Int("spa_score", analysis.SPAScore).
		Str("js_complexity", analysis.JSComplexity).
		Str("anti_bot_risk", analysis.AntiBotRisk).
		Msg("Site analysis complete")

	return analysis, nil
}

// UseProber enables the dynamic second-pass sample. Without one only the
// static sample is scored.
func (s *Service) UseProber(prober DynamicProber) {
	s.prober = prober
}

// refineWithProbe renders url and compares visible text against the
// static sample. A probe failure leaves the static classification alone.
func (s *Service) refineWithProbe(ctx context.Context, url string, analysis *models.SiteAnalysis, staticHTML string) {
	strategy := models.NewDefaultStrategy()
	strategy.MaxTotalTime = probeRenderTimeout
	strategy.ActivityTimeout = probeActivityWindow

	rendered, err := s.prober.Probe(ctx, url, strategy)
	if err != nil {
		s.logger.Debug().
			Str("url", url).
			Err(err).
			Msg("Dynamic sample unavailable, keeping static classification")
		return
	}

	staticText := visibleTextLen(staticHTML)
	renderedText := visibleTextLen(rendered)

	if renderedText >= probeTextFloor && renderedText >= staticText*2 {
		analysis.SiteType = models.SiteTypeComplexSPA
		analysis.SPAScore += 30
		analysis.Confidence = 0.9
		analysis.Reasons = append(analysis.Reasons,
			fmt.Sprintf("dynamic sample rendered %d chars vs %d static", renderedText, staticText))
	}
}

func visibleTextLen(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	doc.Find("script, style").Remove()
	return len(strings.TrimSpace(doc.Find("body").Text()))
}

func (s *Service) fetchSample(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sample fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sample fetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, sampleBodyLimit))
	if err != nil {
		return "", fmt.Errorf("sample read failed: %w", err)
	}
	return string(body), nil
}

func (s *Service) analyzeHTML(url, html string) *models.SiteAnalysis {
	analysis := &models.SiteAnalysis{
		URL:        url,
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))

	var reasons []string

	// SPA scoring
	spa := 0
	scriptCount := 0
	if docErr == nil {
		scriptCount = doc.Find("script").Length()
	}
	if scriptCount > 10 {
		spa += 30
		reasons = append(reasons, fmt.Sprintf("high script count (%d)", scriptCount))
	}
	if frameworkRe.MatchString(html) {
		spa += 40
		reasons = append(reasons, "framework fingerprint detected")
	}
	if ssrStateRe.MatchString(html) {
		spa += 50
		reasons = append(reasons, "serialized SSR state present")
	}
	if docErr == nil {
		visibleText := len(strings.TrimSpace(doc.Find("body").Text()))
		nodeCount := doc.Find("*").Length()
		if visibleText < 500 && nodeCount > 50 {
			spa += 30
			reasons = append(reasons, "sparse visible text in a large DOM")
		}
	}
	analysis.SPAScore = spa

	for name, re := range frameworkNames {
		if re.MatchString(html) {
			analysis.Frameworks = append(analysis.Frameworks, name)
		}
	}

	// JavaScript complexity
	jsScore := 0
	for _, re := range jsComplexityRes {
		jsScore += len(re.FindAllString(html, -1))
	}
	jsScore *= 2
	analysis.JSComplexityScore = jsScore
	switch {
	case jsScore > 100:
		analysis.JSComplexity = "very_high"
	case jsScore > 50:
		analysis.JSComplexity = "high"
	case jsScore > 20:
		analysis.JSComplexity = "medium"
	default:
		analysis.JSComplexity = "low"
	}

	// Anti-bot risk
	antiBot := 0
	for name, re := range antiBotIndicators {
		if re.MatchString(html) {
			antiBot += 25
			analysis.AntiBotIndicators = append(analysis.AntiBotIndicators, name)
		}
	}
	analysis.AntiBotScore = antiBot
	switch {
	case antiBot >= 75:
		analysis.AntiBotRisk = "very_high"
	case antiBot >= 50:
		analysis.AntiBotRisk = "high"
	case antiBot >= 25:
		analysis.AntiBotRisk = "medium"
	default:
		analysis.AntiBotRisk = "low"
	}

	// Content-loading pattern
	switch {
	case infiniteScrollRe.MatchString(html):
		analysis.ContentLoading = "infinite_scroll"
	case paginationRe.MatchString(html):
		analysis.ContentLoading = "pagination"
	case ajaxLoadRe.MatchString(html):
		analysis.ContentLoading = "ajax_load"
	case interactionRe.MatchString(html):
		analysis.ContentLoading = "requires_interaction"
	default:
		analysis.ContentLoading = "standard"
	}

	// Site type. Heavy bot protection dominates; otherwise the SPA score
	// decides. ai_analysis_needed is only assigned by the domain heuristic.
	switch {
	case antiBot >= 50:
		analysis.SiteType = models.SiteTypeAntiBotHeavy
		reasons = append(reasons, fmt.Sprintf("anti-bot score %d", antiBot))
	case spa >= 70:
		analysis.SiteType = models.SiteTypeComplexSPA
	case spa >= 40:
		analysis.SiteType = models.SiteTypeStandardDynamic
	default:
		analysis.SiteType = models.SiteTypeSimpleStatic
	}

	analysis.RequiresJS = spa >= 40 || analysis.JSComplexity == "high" || analysis.JSComplexity == "very_high"
	analysis.Reasons = reasons
	analysis.Confidence = analysisConfidence(spa, antiBot)

	return analysis
}

// analysisConfidence grows with the strength of the observed signals
func analysisConfidence(spaScore, antiBotScore int) float64 {
	confidence := 0.5
	if spaScore >= 70 || antiBotScore >= 50 {
		confidence = 0.9
	} else if spaScore >= 40 || antiBotScore >= 25 {
		confidence = 0.7
	}
	return confidence
}
