package models

import "time"

// Site-type classifications emitted by the analyzer
const (
	SiteTypeComplexSPA      = "complex_spa"
	SiteTypeStandardDynamic = "standard_dynamic"
	SiteTypeSimpleStatic    = "simple_static"
	SiteTypeAIAnalysis      = "ai_analysis_needed"
	SiteTypeAntiBotHeavy    = "anti_bot_heavy"
)

// Engine names as they appear in strategies and API payloads
const (
	EngineRequests   = "requests"
	EnginePlaywright = "playwright"
	EngineCrawl4AI   = "crawl4ai"
	EngineFirecrawl  = "firecrawl"
)

// CrawlStrategy is the input to an engine: ordered priority plus the
// timing parameters governing one fetch attempt.
type CrawlStrategy struct {
	EnginePriority  []string      `json:"engine_priority"`
	Timeout         time.Duration `json:"timeout"`          // Initial-connection bound
	MaxRetries      int           `json:"max_retries"`      // Per engine, >= 1
	WaitTime        time.Duration `json:"wait_time"`        // Retry back-off base
	ActivityTimeout time.Duration `json:"activity_timeout"` // Max mid-fetch silence
	MaxTotalTime    time.Duration `json:"max_total_time"`   // Hard ceiling
	AntiBotMode     bool          `json:"anti_bot_mode"`
	ExtractImages   bool          `json:"extract_images"`
	ExtractLinks    bool          `json:"extract_links"`
	CustomSelectors []string      `json:"custom_selectors,omitempty"`
	CleanText       bool          `json:"clean_text"`

	// Provenance, forwarded into result metadata
	SiteType   string  `json:"site_type,omitempty"`
	IsFallback bool    `json:"is_fallback,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`
}

// NewDefaultStrategy returns the strategy used when neither the caller nor
// the analyzer supplies one.
func NewDefaultStrategy() *CrawlStrategy {
	return &CrawlStrategy{
		EnginePriority:  []string{EngineRequests, EngineCrawl4AI, EngineFirecrawl, EnginePlaywright},
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		WaitTime:        2 * time.Second,
		ActivityTimeout: 15 * time.Second,
		MaxTotalTime:    300 * time.Second,
		ExtractLinks:    true,
	}
}

// SiteAnalysis is the analyzer verdict for one URL
type SiteAnalysis struct {
	URL               string   `json:"url"`
	SiteType          string   `json:"site_type"`
	SPAScore          int      `json:"spa_score"`
	JSComplexity      string   `json:"js_complexity"` // low / medium / high / very_high
	JSComplexityScore int      `json:"js_complexity_score"`
	AntiBotRisk       string   `json:"anti_bot_risk"` // low / medium / high / very_high
	AntiBotScore      int      `json:"anti_bot_score"`
	AntiBotIndicators []string `json:"anti_bot_indicators,omitempty"`
	ContentLoading    string   `json:"content_loading,omitempty"` // infinite_scroll / pagination / ajax_load / requires_interaction / standard
	RequiresJS        bool     `json:"requires_js"`
	Frameworks        []string `json:"frameworks,omitempty"`
	Confidence        float64  `json:"confidence"`
	Reasons           []string `json:"reasons,omitempty"`
	AnalyzedAt        string   `json:"analyzed_at,omitempty"`
}
