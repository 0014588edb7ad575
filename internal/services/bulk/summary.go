package bulk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// SummaryWriter persists finished-job summaries as JSON files under the
// results directory
type SummaryWriter struct {
	dir    string
	logger arbor.ILogger
}

// NewSummaryWriter creates the summary file writer
func NewSummaryWriter(dir string, logger arbor.ILogger) *SummaryWriter {
	return &SummaryWriter{dir: dir, logger: logger}
}

// Write persists the summary and returns the file name
func (w *SummaryWriter) Write(summary *models.JobSummary) (string, error) {
	if w.dir == "" {
		return "", fmt.Errorf("results directory not configured")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	name := fmt.Sprintf("bulk_%s_%s.json", summary.JobID, time.Now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	w.logger.Debug().
		Str("job_id", summary.JobID).
		Str("file", name).
		Msg("Summary file written")

	return name, nil
}

// Path resolves a summary file name inside the results directory,
// rejecting anything that escapes it
func (w *SummaryWriter) Path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no summary file recorded")
	}
	cleaned := filepath.Base(name)
	if cleaned != name {
		return "", fmt.Errorf("invalid summary file name")
	}
	return filepath.Join(w.dir, cleaned), nil
}
