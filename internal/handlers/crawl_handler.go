package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/bulk"
	"github.com/ternarybob/scout/internal/services/extract"
	"github.com/ternarybob/scout/internal/services/intent"
	"github.com/ternarybob/scout/internal/services/orchestrator"
)

// CrawlHandler serves the four crawl entry points: single, bulk, smart
// and unified
type CrawlHandler struct {
	crawler   *orchestrator.Service
	bulkMgr   *bulk.Manager
	router    *intent.Router
	extractor *extract.Extractor
	publisher interfaces.ProgressPublisher
	logger    arbor.ILogger
}

// NewCrawlHandler creates the crawl handler
func NewCrawlHandler(
	crawler *orchestrator.Service,
	bulkMgr *bulk.Manager,
	router *intent.Router,
	extractor *extract.Extractor,
	publisher interfaces.ProgressPublisher,
	logger arbor.ILogger,
) *CrawlHandler {
	if publisher == nil {
		publisher = interfaces.NopPublisher{}
	}
	return &CrawlHandler{
		crawler:   crawler,
		bulkMgr:   bulkMgr,
		router:    router,
		extractor: extractor,
		publisher: publisher,
		logger:    logger,
	}
}

// SingleHandler serves POST /crawl/single
func (h *CrawlHandler) SingleHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.SingleCrawlRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
		defer cancel()
	}

	override := buildOverride(req.Engine, req.Timeout, req.AntiBotMode)

	if req.JobID != "" {
		h.publisher.PublishProgress(models.ProgressEvent{
			JobID:    req.JobID,
			Step:     "processing",
			Progress: 10,
			Message:  req.URL,
		})
	}

	result := h.crawler.CrawlCleaned(ctx, req.URL, override, req.CleanText)

	if req.JobID != "" {
		if result.IsSuccess() {
			h.publisher.PublishComplete(req.JobID, result)
		} else {
			h.publisher.PublishError(req.JobID, result.Error)
		}
	}

	h.writeCrawlResult(w, result)
}

// BulkHandler serves POST /crawl/bulk. The job is accepted and executed
// asynchronously; progress flows through the WebSocket hub.
func (h *CrawlHandler) BulkHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.BulkCrawlRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	job, err := h.bulkMgr.Start(r.Context(), req.URLs, req.MaxConcurrent, req.CleanText)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, models.BulkCrawlResponse{
		JobID:     job.ID,
		TotalURLs: job.Total,
		Status:    "started",
	})
}

// SmartHandler serves POST /crawl/smart: free-text request, always the
// fetch-then-extract pipeline. One page is crawled and the requested
// content extracted; text without a usable URL is a 400.
func (h *CrawlHandler) SmartHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.SmartCrawlRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	parsed := h.router.Analyze(req.Text)
	if parsed.RequestType == models.RequestTypeInvalid || len(parsed.URLs) == 0 {
		WriteError(w, http.StatusBadRequest, "추출할 URL을 찾을 수 없습니다")
		return
	}

	ctx := r.Context()
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
		defer cancel()
	}

	result := h.crawler.CrawlCleaned(ctx, parsed.URLs[0], buildOverride("", req.Timeout, false), req.CleanText)
	if !result.IsSuccess() {
		h.writeCrawlResult(w, result)
		return
	}

	WriteJSON(w, http.StatusOK, h.extractor.Extract(result, parsed.TargetContent, parsed.Confidence))
}

// UnifiedHandler serves POST /crawl/unified: intent routing plus manual
// engine override and progress correlation
func (h *CrawlHandler) UnifiedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.UnifiedCrawlRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	h.dispatchIntent(w, r, req.Text, req.Engine, req.Timeout, req.CleanText, req.JobID)
}

// dispatchIntent classifies text and routes to the matching operation
func (h *CrawlHandler) dispatchIntent(w http.ResponseWriter, r *http.Request, text, engine string, timeout int, cleanText bool, jobID string) {
	parsed := h.router.Analyze(text)

	ctx := r.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	switch parsed.RequestType {
	case models.RequestTypeInvalid:
		msg := "URL 또는 검색 의도를 찾을 수 없습니다"
		if errVal, ok := parsed.Metadata["error"].(string); ok && errVal != "" {
			msg = errVal
		}
		WriteError(w, http.StatusBadRequest, msg)

	case models.RequestTypeSingle:
		override := buildOverride(engine, timeout, false)
		result := h.crawler.CrawlCleaned(ctx, parsed.URLs[0], override, cleanText)
		if jobID != "" {
			if result.IsSuccess() {
				h.publisher.PublishComplete(jobID, result)
			} else {
				h.publisher.PublishError(jobID, result.Error)
			}
		}
		h.writeCrawlResult(w, result)

	case models.RequestTypeSelective:
		override := buildOverride(engine, timeout, false)
		result := h.crawler.CrawlCleaned(ctx, parsed.URLs[0], override, cleanText)
		if !result.IsSuccess() {
			h.writeCrawlResult(w, result)
			return
		}
		WriteJSON(w, http.StatusOK, h.extractor.Extract(result, parsed.TargetContent, parsed.Confidence))

	case models.RequestTypeBulk:
		job, err := h.bulkMgr.Start(ctx, parsed.URLs, 0, cleanText)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, models.BulkCrawlResponse{
			JobID:     job.ID,
			TotalURLs: job.Total,
			Status:    "started",
		})

	case models.RequestTypeBulkSelective:
		WriteError(w, http.StatusNotImplemented, "여러 URL에서 선택 추출은 아직 지원되지 않습니다")

	case models.RequestTypeSearch:
		WriteError(w, http.StatusNotImplemented, "플랫폼 검색은 아직 지원되지 않습니다")

	default:
		WriteError(w, http.StatusBadRequest, "요청을 이해할 수 없습니다")
	}
}

// writeCrawlResult maps a crawl result to the HTTP contract: 200 for
// success, 422 with the formatted error detail when every engine failed,
// 400 for pre-engine validation failures.
func (h *CrawlHandler) writeCrawlResult(w http.ResponseWriter, result *models.CrawlResult) {
	if result.IsSuccess() {
		WriteJSON(w, http.StatusOK, result)
		return
	}

	if !result.Metadata.AllEnginesFailed {
		WriteError(w, http.StatusBadRequest, result.Error)
		return
	}

	formatted := orchestrator.FormatError(result.Error, result.Metadata.AttemptedEngines)
	detail := models.CrawlErrorDetail{
		Message:          orchestrator.FormatCrawlError(result.Error, result.Metadata.AttemptedEngines),
		URL:              result.URL,
		Error:            result.Error,
		DetailedError:    formatted.TechnicalSummary,
		AttemptedEngines: result.Metadata.AttemptedEngines,
	}
	if result.Metadata.Extra != nil {
		if debugFile, ok := result.Metadata.Extra["debug_file"].(string); ok {
			detail.DebugFile = debugFile
		}
	}

	WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": detail})
}

// buildOverride constructs a manual strategy when the caller pins an
// engine. Returns nil when no engine is pinned so analysis runs normally.
func buildOverride(engine string, timeout int, antiBot bool) *models.CrawlStrategy {
	if engine == "" {
		return nil
	}

	override := models.NewDefaultStrategy()
	override.EnginePriority = []string{engine}
	override.AntiBotMode = antiBot
	if timeout > 0 {
		override.MaxTotalTime = time.Duration(timeout) * time.Second
	}
	return override
}
