package models

// Request types produced by the intent router
const (
	RequestTypeSingle        = "single"
	RequestTypeBulk          = "bulk"
	RequestTypeSelective     = "selective"
	RequestTypeBulkSelective = "bulk_selective"
	RequestTypeSearch        = "search"
	RequestTypeInvalid       = "invalid"
)

// UnifiedIntent is the classified shape of a free-text crawl request
type UnifiedIntent struct {
	RequestType   string                 `json:"request_type"`
	URLs          []string               `json:"urls"`
	TargetContent string                 `json:"target_content,omitempty"` // For selective: "title", "price", ...
	SearchQuery   string                 `json:"search_query,omitempty"`
	Platform      string                 `json:"platform,omitempty"`
	Confidence    float64                `json:"confidence"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
