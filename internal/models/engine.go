package models

// Engine capability tags consumed by the strategy builder
const (
	CapabilityJavaScriptRendering = "javascript_rendering"
	CapabilityAntiBotBypass       = "anti_bot_bypass"
	CapabilityFastStatic          = "fast_static"
	CapabilityBulkProcessing      = "bulk_processing"
	CapabilityPremiumService      = "premium_service"
	CapabilityInfiniteScroll      = "infinite_scroll"
	CapabilityAIExtraction        = "ai_extraction"
)

// EngineStats tracks rolling per-engine performance counters
type EngineStats struct {
	TotalCrawls     int     `json:"total_crawls"`
	SuccessCount    int     `json:"success_count"`
	FailureCount    int     `json:"failure_count"`
	AvgResponseTime float64 `json:"avg_response_time"` // Seconds, rolling average
}

// EngineStatus is the per-engine entry served by GET /engines/status
type EngineStatus struct {
	Name         string      `json:"name"`
	Available    bool        `json:"available"`
	Capabilities []string    `json:"capabilities"`
	Stats        EngineStats `json:"stats"`
	Description  string      `json:"description,omitempty"`
}
