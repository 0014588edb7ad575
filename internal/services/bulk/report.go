package bulk

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// ReportGenerator renders a finished-job summary as a PDF for download
type ReportGenerator struct {
	logger arbor.ILogger
}

// NewReportGenerator creates the PDF report generator
func NewReportGenerator(logger arbor.ILogger) *ReportGenerator {
	return &ReportGenerator{logger: logger}
}

// Generate renders the summary report and returns the PDF bytes
func (g *ReportGenerator) Generate(summary *models.JobSummary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Bulk Crawl Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Job ID", summary.JobID},
		{"Total URLs", fmt.Sprintf("%d", summary.TotalURLs)},
		{"Successful", fmt.Sprintf("%d", summary.Successful)},
		{"Failed", fmt.Sprintf("%d", summary.Failed)},
		{"Success rate", fmt.Sprintf("%.1f%%", summary.SuccessRate)},
		{"Started", summary.StartTime.Format("2006-01-02 15:04:05")},
		{"Finished", summary.EndTime.Format("2006-01-02 15:04:05")},
		{"Duration", summary.EndTime.Sub(summary.StartTime).Round(1e9).String()},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Per-URL results", "", 1, "L", false, 0, "")

	// Table header
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(95, 7, "URL", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Status", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Engine", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Quality", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, result := range summary.Results {
		if result == nil {
			continue
		}
		engine := result.Metadata.EngineUsed
		if engine == "" {
			engine = result.Metadata.CrawlerUsed
		}
		quality := ""
		if result.IsSuccess() {
			quality = fmt.Sprintf("%d", result.Metadata.QualityScore)
		}
		pdf.CellFormat(95, 6, clipCell(result.URL, 70), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, result.Status, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, engine, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, quality, "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error().Err(err).Msg("Failed to generate PDF report")
		return nil, fmt.Errorf("failed to generate PDF report: %w", err)
	}

	g.logger.Debug().
		Str("job_id", summary.JobID).
		Int("pdf_size", buf.Len()).
		Msg("PDF report generated")

	return buf.Bytes(), nil
}

func clipCell(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
