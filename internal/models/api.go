package models

// SingleCrawlRequest is the body of POST /crawl/single
type SingleCrawlRequest struct {
	URL         string `json:"url" validate:"required,url"`
	Engine      string `json:"engine,omitempty" validate:"omitempty,oneof=requests playwright crawl4ai firecrawl"`
	Timeout     int    `json:"timeout,omitempty" validate:"omitempty,min=1,max=600"` // Seconds
	AntiBotMode bool   `json:"anti_bot_mode,omitempty"`
	CleanText   bool   `json:"clean_text,omitempty"`
	JobID       string `json:"job_id,omitempty"` // Progress hub correlation for live updates
}

// BulkCrawlRequest is the body of POST /crawl/bulk
type BulkCrawlRequest struct {
	URLs          []string `json:"urls" validate:"required,min=1,dive,url"`
	MaxConcurrent int      `json:"max_concurrent,omitempty" validate:"omitempty,min=1,max=16"`
	Timeout       int      `json:"timeout,omitempty" validate:"omitempty,min=1,max=600"`
	CleanText     bool     `json:"clean_text,omitempty"`
}

// BulkCrawlResponse acknowledges an accepted bulk job
type BulkCrawlResponse struct {
	JobID     string `json:"job_id"`
	TotalURLs int    `json:"total_urls"`
	Status    string `json:"status"` // Always "started"
}

// SmartCrawlRequest is the body of POST /crawl/smart
type SmartCrawlRequest struct {
	Text      string `json:"text" validate:"required"`
	Timeout   int    `json:"timeout,omitempty" validate:"omitempty,min=1,max=600"`
	CleanText bool   `json:"clean_text,omitempty"`
}

// UnifiedCrawlRequest is the body of POST /crawl/unified
type UnifiedCrawlRequest struct {
	Text      string `json:"text" validate:"required"`
	Engine    string `json:"engine,omitempty" validate:"omitempty,oneof=requests playwright crawl4ai firecrawl"`
	Timeout   int    `json:"timeout,omitempty" validate:"omitempty,min=1,max=600"`
	CleanText bool   `json:"clean_text,omitempty"`
	JobID     string `json:"job_id,omitempty"`
}

// CrawlErrorDetail is the 422 payload returned when every engine failed.
// DetailedError stays server-side friendly; the verbose original error is
// written to a debug file and referenced by path.
type CrawlErrorDetail struct {
	Message          string   `json:"message"`
	URL              string   `json:"url"`
	Error            string   `json:"error"`
	DetailedError    string   `json:"detailed_error,omitempty"`
	AttemptedEngines []string `json:"attempted_engines,omitempty"`
	DebugFile        string   `json:"debug_file,omitempty"`
}

// SelectiveResponse is returned by /crawl/smart and selective unified requests
type SelectiveResponse struct {
	URL           string      `json:"url"`
	TargetContent string      `json:"target_content"`
	ExtractedData interface{} `json:"extracted_data"`
	QualityScore  int         `json:"quality_score"`
	Confidence    float64     `json:"confidence"`
	Engine        string      `json:"engine,omitempty"`
}

// JobStatusResponse is served by GET /jobs/{id}/status
type JobStatusResponse struct {
	JobID     string  `json:"job_id"`
	Status    string  `json:"status"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Success   int     `json:"success"`
	Failed    int     `json:"failed"`
	Progress  int     `json:"progress"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// JobResultsResponse is served by GET /jobs/{id}/results once completed
type JobResultsResponse struct {
	Summary JobSummary     `json:"summary"`
	Results []*CrawlResult `json:"results"`
}
