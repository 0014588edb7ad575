package models

import (
	"time"
)

const (
	// CrawlStatusComplete indicates a successful crawl with content
	CrawlStatusComplete = "complete"
	// CrawlStatusFailed indicates the crawl produced no usable content
	CrawlStatusFailed = "failed"
)

// Hierarchy is the three-level heading outline extracted from every crawl.
// Depth1 is the page H1 (or document title). Depth2 maps each H1 topic to
// its H2 sub-headings; Depth3 maps each H2 to its H3 children. Headings
// that appear without a parent land in an "other" bucket.
type Hierarchy struct {
	Depth1 string              `json:"depth1"`
	Depth2 map[string][]string `json:"depth2"`
	Depth3 map[string][]string `json:"depth3"`
}

// NewHierarchy creates an empty hierarchy with initialized maps
func NewHierarchy() Hierarchy {
	return Hierarchy{
		Depth2: make(map[string][]string),
		Depth3: make(map[string][]string),
	}
}

// IsEmpty reports whether no headings were extracted
func (h Hierarchy) IsEmpty() bool {
	return h.Depth1 == "" && len(h.Depth2) == 0 && len(h.Depth3) == 0
}

// ResultMetadata carries the required diagnostic keys every engine must set
// on success, plus a free-form extension map for engine-specific details.
type ResultMetadata struct {
	CrawlerUsed          string  `json:"crawler_used,omitempty"`
	ProcessingTime       string  `json:"processing_time,omitempty"` // "3.2s"
	ExecutionTime        float64 `json:"execution_time,omitempty"`  // Seconds
	QualityScore         int     `json:"quality_score,omitempty"`   // 0-100, intra-engine ordinal
	ContentQuality       string  `json:"content_quality,omitempty"` // low / medium / high
	ExtractionConfidence float64 `json:"extraction_confidence,omitempty"`
	TextLength           int     `json:"text_length,omitempty"`
	ErrorType            string  `json:"error_type,omitempty"`

	// Orchestration fields, attached by the crawl loop
	AttemptedEngines      []string               `json:"attempted_engines,omitempty"`
	SuccessfulEngineIndex int                    `json:"successful_engine_index,omitempty"` // 1-based
	TotalAvailableEngines int                    `json:"total_available_engines,omitempty"`
	EngineUsed            string                 `json:"engine_used,omitempty"`
	AllEnginesFailed      bool                   `json:"all_engines_failed,omitempty"`
	SiteAnalysis          *SiteAnalysis          `json:"mcp_analysis,omitempty"`
	SelectionReason       *EngineSelectionReason `json:"engine_selection_reason,omitempty"`

	// Post-processing fields
	PostProcessingApplied  bool    `json:"post_processing_applied,omitempty"`
	OriginalTextLength     int     `json:"original_text_length,omitempty"`
	ProcessedTextLength    int     `json:"processed_text_length,omitempty"`
	TextReductionRatio     float64 `json:"text_reduction_ratio,omitempty"`
	ProcessingQualityScore float64 `json:"processing_quality_score,omitempty"`

	// Engine-specific diagnostics that have no fixed schema
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// CrawlResult is the normalized output of every engine.
// Invariant: Status == complete implies Error == ""; Status == failed
// implies Text, Title and Hierarchy are empty and Error is set.
type CrawlResult struct {
	URL       string         `json:"url"`
	Title     string         `json:"title"`
	Text      string         `json:"text"`
	Hierarchy Hierarchy      `json:"hierarchy"`
	Metadata  ResultMetadata `json:"metadata"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
	Links     []string       `json:"links,omitempty"`
	Images    []string       `json:"images,omitempty"`
}

// NewFailedResult builds a failed CrawlResult honoring the status/error invariant
func NewFailedResult(url, errMsg string) *CrawlResult {
	return &CrawlResult{
		URL:       url,
		Hierarchy: NewHierarchy(),
		Status:    CrawlStatusFailed,
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// IsSuccess reports whether the crawl completed with content
func (r *CrawlResult) IsSuccess() bool {
	return r.Status == CrawlStatusComplete
}

// EngineSelectionReason explains why the orchestrator settled on an engine.
// This is part of the API contract, surfaced to callers for their UI.
type EngineSelectionReason struct {
	SelectedEngine      string               `json:"selected_engine"`
	Confidence          float64              `json:"confidence"`
	AnalysisMethod      string               `json:"analysis_method"` // "ai-driven" or "fallback"
	SiteCharacteristics *SiteCharacteristics `json:"site_characteristics,omitempty"`
	SelectionReasons    []string             `json:"selection_reasons"`
	TechnicalDetails    TechnicalDetails     `json:"technical_details"`
	FallbackEngines     []string             `json:"fallback_engines"`
}

// SiteCharacteristics summarizes the analyzer verdict for selection reporting
type SiteCharacteristics struct {
	SiteType     string `json:"site_type"`
	JSLevel      string `json:"js_complexity"`
	JSScore      int    `json:"js_score"`
	AntiBotRisk  string `json:"anti_bot_risk"`
	RequiresJS   bool   `json:"requires_js"`
	LoadingStyle string `json:"content_loading,omitempty"`
}

// TechnicalDetails records the attempt trail for selection reporting
type TechnicalDetails struct {
	AttemptedEngines []string `json:"attempted_engines"`
	SuccessOnAttempt int      `json:"success_on_attempt"` // 1-based; 0 when all failed
}
