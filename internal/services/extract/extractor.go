package extract

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// Extractor pulls one content type out of a full crawl result for
// selective requests
type Extractor struct {
	logger arbor.ILogger
}

// NewExtractor creates the selective extractor
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{logger: logger}
}

var (
	priceRe = regexp.MustCompile(`(?:₩|\$|€|£|USD|KRW)\s?[\d,]+(?:\.\d+)?|[\d,]+(?:\.\d+)?\s?(?:원|달러|유로)`)
	dateRe  = regexp.MustCompile(`\d{4}[-./년]\s?\d{1,2}[-./월]\s?\d{1,2}일?|\d{1,2}/\d{1,2}/\d{4}`)

	reviewKeywords = []string{"리뷰", "후기", "평가", "댓글", "review", "comment", "rating"}

	headingLineRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
)

// Extract reduces result to the requested target. Supported targets:
// title, price, body, review, summary, image, link, date. Confidence
// reflects how directly the target was found in the crawled content.
func (e *Extractor) Extract(result *models.CrawlResult, target string, intentConfidence float64) *models.SelectiveResponse {
	response := &models.SelectiveResponse{
		URL:           result.URL,
		TargetContent: target,
		QualityScore:  result.Metadata.QualityScore,
		Confidence:    intentConfidence,
		Engine:        result.Metadata.EngineUsed,
	}
	if response.Engine == "" {
		response.Engine = result.Metadata.CrawlerUsed
	}

	var data interface{}
	found := true

	switch target {
	case "title":
		data = e.extractTitle(result)
	case "price":
		data, found = matchesOrNone(priceRe, result.Text)
	case "body":
		data = e.extractBody(result)
	case "review":
		data, found = e.extractReviews(result)
	case "summary":
		data = e.extractSummary(result)
	case "image":
		data, found = listOrNone(result.Images)
	case "link":
		data, found = listOrNone(result.Links)
	case "date":
		data, found = matchesOrNone(dateRe, result.Text)
	default:
		data = result.Text
	}

	response.ExtractedData = data
	if !found {
		response.Confidence = response.Confidence * 0.5
	}

	e.logger.Debug().
		Str("url", result.URL).
		Str("target", target).
		Bool("found", found).
		Msg("Selective extraction complete")

	return response
}

func (e *Extractor) extractTitle(result *models.CrawlResult) string {
	if result.Title != "" {
		return result.Title
	}
	return result.Hierarchy.Depth1
}

// extractBody strips heading markers and returns the running text
func (e *Extractor) extractBody(result *models.CrawlResult) string {
	body := headingLineRe.ReplaceAllString(result.Text, "")
	return strings.TrimSpace(body)
}

// extractReviews collects paragraphs mentioning review vocabulary
func (e *Extractor) extractReviews(result *models.CrawlResult) ([]string, bool) {
	var reviews []string
	for _, paragraph := range strings.Split(result.Text, "\n\n") {
		lower := strings.ToLower(paragraph)
		for _, keyword := range reviewKeywords {
			if strings.Contains(lower, keyword) {
				reviews = append(reviews, strings.TrimSpace(paragraph))
				break
			}
		}
	}
	return reviews, len(reviews) > 0
}

// extractSummary returns the leading paragraphs up to a modest length
func (e *Extractor) extractSummary(result *models.CrawlResult) string {
	const summaryLimit = 600

	var parts []string
	total := 0
	for _, paragraph := range strings.Split(result.Text, "\n\n") {
		trimmed := strings.TrimSpace(headingLineRe.ReplaceAllString(paragraph, ""))
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
		total += len(trimmed)
		if total >= summaryLimit {
			break
		}
	}
	return strings.Join(parts, "\n\n")
}

func matchesOrNone(re *regexp.Regexp, text string) ([]string, bool) {
	matches := re.FindAllString(text, -1)
	seen := make(map[string]bool)
	var unique []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if !seen[m] {
			seen[m] = true
			unique = append(unique, m)
		}
	}
	return unique, len(unique) > 0
}

func listOrNone(items []string) ([]string, bool) {
	return items, len(items) > 0
}
