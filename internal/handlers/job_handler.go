package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/bulk"
)

// JobHandler serves the bulk-job endpoints: status, results, download
// and delete
type JobHandler struct {
	jobs      interfaces.JobStorage
	bulkMgr   *bulk.Manager
	reports   *bulk.ReportGenerator
	summaries *bulk.SummaryWriter
	logger    arbor.ILogger
}

// NewJobHandler creates the job handler
func NewJobHandler(
	jobs interfaces.JobStorage,
	bulkMgr *bulk.Manager,
	reports *bulk.ReportGenerator,
	summaries *bulk.SummaryWriter,
	logger arbor.ILogger,
) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		bulkMgr:   bulkMgr,
		reports:   reports,
		summaries: summaries,
		logger:    logger,
	}
}

// jobID extracts the {id} segment from /jobs/{id}/suffix paths
func jobID(path, suffix string) string {
	trimmed := strings.TrimPrefix(path, "/jobs/")
	trimmed = strings.TrimSuffix(trimmed, suffix)
	return strings.Trim(trimmed, "/")
}

// StatusHandler serves GET /jobs/{id}/status
func (h *JobHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := jobID(r.URL.Path, "/status")
	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := models.JobStatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Total:     job.Total,
		Completed: job.Completed,
		Success:   job.Success,
		Failed:    job.Failed,
		Progress:  job.Progress,
		StartTime: job.StartTime.Format(time.RFC3339),
		Error:     job.Error,
	}
	if job.EndTime != nil {
		resp.EndTime = job.EndTime.Format(time.RFC3339)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// ResultsHandler serves GET /jobs/{id}/results once the job completed
func (h *JobHandler) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := jobID(r.URL.Path, "/results")
	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if job.Status != models.JobStatusCompleted {
		WriteError(w, http.StatusConflict, fmt.Sprintf("job %s is %s, results are available once completed", id, job.Status))
		return
	}

	WriteJSON(w, http.StatusOK, models.JobResultsResponse{
		Summary: jobSummary(job),
		Results: job.Results,
	})
}

// DownloadHandler serves GET /jobs/{id}/download?format=json|pdf
func (h *JobHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := jobID(r.URL.Path, "/download")
	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if job.Status != models.JobStatusCompleted {
		WriteError(w, http.StatusConflict, fmt.Sprintf("job %s is %s, download is available once completed", id, job.Status))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	switch format {
	case "pdf":
		summary := jobSummary(job)
		data, err := h.reports.Generate(&summary)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", job.ID))
		w.Write(data)

	case "json":
		path, err := h.summaries.Path(job.ResultFile)
		if err != nil {
			// No summary file; serve the stored results directly
			WriteJSON(w, http.StatusOK, models.JobResultsResponse{
				Summary: jobSummary(job),
				Results: job.Results,
			})
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			WriteError(w, http.StatusNotFound, "summary file no longer available")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", job.ID))
		w.Write(data)

	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

// DeleteHandler serves DELETE /jobs/{id}. Only finished jobs can be
// purged; a job with a live worker pool is refused.
func (h *JobHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	id := jobID(r.URL.Path, "")
	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if h.bulkMgr.IsRunning(id) || !job.IsFinished() {
		WriteError(w, http.StatusConflict, fmt.Sprintf("job %s is still running", id))
		return
	}

	if err := h.jobs.DeleteJob(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Str("job_id", id).Msg("Job deleted")

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"job_id": id,
	})
}

func jobSummary(job *models.Job) models.JobSummary {
	summary := models.JobSummary{
		JobID:       job.ID,
		TotalURLs:   job.Total,
		Successful:  job.Success,
		Failed:      job.Failed,
		SuccessRate: job.SuccessRate(),
		StartTime:   job.StartTime,
		Results:     job.Results,
	}
	if job.EndTime != nil {
		summary.EndTime = *job.EndTime
	}
	return summary
}
