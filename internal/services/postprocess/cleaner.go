package postprocess

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// Processor cleans crawled markdown: strips UI chrome and navigation
// blocks, collapses dead links while preserving their text, and normalizes
// list markers and blank-line runs. Cleaning is idempotent.
type Processor struct {
	logger arbor.ILogger
}

// NewProcessor creates a text post-processor
func NewProcessor(logger arbor.ILogger) *Processor {
	return &Processor{logger: logger}
}

var (
	escapedParenRe = regexp.MustCompile(`\\([()])`)

	// Dead links keep their text only
	jsLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\(javascript:[^)]*\)`)
	anchorLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(#[^)]*\)`)
	mailtoLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(mailto:[^)]*\)`)
	// Long HTTP links collapse to "text (scheme://host)"
	longLinkRe = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^/)]+)/[^)]*\)`)

	// UI chrome placeholder strings, Korean and English
	uiChromeRes = []*regexp.Regexp{
		regexp.MustCompile(`_[^_\n]*아이콘_`),
		regexp.MustCompile(`_[^_\n]*버튼_`),
		regexp.MustCompile(`_[^_\n]*링크_`),
		regexp.MustCompile(`(?m)\s*바로가기\s*$`),
		regexp.MustCompile(`(?m)\s*더보기\s*$`),
		regexp.MustCompile(`(?m)검색\s*$`),
		regexp.MustCompile(`(?m)로그인\s*$`),
		regexp.MustCompile(`\s*새창열림\s*`),
		regexp.MustCompile(`\s*펼치기\s*`),
		regexp.MustCompile(`(?mi)\s*skip to (?:main )?content\s*$`),
		regexp.MustCompile(`(?mi)^\s*(?:show|load) more\s*$`),
	}

	// Large navigation/footer blocks removed wholesale
	navigationBlockRes = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\*\*QUICK MENU\*\*.*?(?:\n\n|$)`),
		regexp.MustCompile(`(?s)\*\*인기메뉴\*\*.*?(?:\n\n|$)`),
		regexp.MustCompile(`(?m)Family Site.*$`),
		regexp.MustCompile(`(?i)Copyright.*?ALL RIGHTS RESERVED\.?`),
		regexp.MustCompile(`(?i)COPYRIGHTⓒ.*?ALL RIGHTS RESERVED\.?`),
	}

	excessHeaderRe   = regexp.MustCompile(`#{4,}`)
	separatorLineRe  = regexp.MustCompile(`(?m)^[*\-_]{3,}\s*$`)
	starListRe       = regexp.MustCompile(`(?m)^(\s*)\*\s+`)
	multiSpaceRe     = regexp.MustCompile(` {2,}`)
	trailingSpaceRe  = regexp.MustCompile(`(?m) +$`)
	blankRunRe       = regexp.MustCompile(`\n{3,}`)
	markdownNoiseRe  = regexp.MustCompile(`[#*\-]{2,}`)
	uiElementRe      = regexp.MustCompile(`_[^_\n]*_|아이콘|버튼`)
)

// CleanText normalizes crawled markdown. Applying it twice yields the
// same output as applying it once.
func (p *Processor) CleanText(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text

	// Literal escape sequences left over from serialized payloads
	cleaned = strings.ReplaceAll(cleaned, `\n`, "\n")
	cleaned = strings.ReplaceAll(cleaned, `\t`, "\t")
	cleaned = strings.ReplaceAll(cleaned, `\"`, `"`)
	cleaned = strings.ReplaceAll(cleaned, `\'`, `'`)
	cleaned = escapedParenRe.ReplaceAllString(cleaned, "$1")

	cleaned = jsLinkRe.ReplaceAllString(cleaned, "$1")
	cleaned = anchorLinkRe.ReplaceAllString(cleaned, "$1")
	cleaned = mailtoLinkRe.ReplaceAllString(cleaned, "$1")
	cleaned = longLinkRe.ReplaceAllString(cleaned, "$1 ($2)")

	for _, re := range uiChromeRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	for _, re := range navigationBlockRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	cleaned = excessHeaderRe.ReplaceAllString(cleaned, "###")
	cleaned = separatorLineRe.ReplaceAllString(cleaned, "")
	cleaned = starListRe.ReplaceAllString(cleaned, "$1- ")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	cleaned = trailingSpaceRe.ReplaceAllString(cleaned, "")
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")

	lines := strings.Split(cleaned, "\n")
	improved := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			improved = append(improved, "")
			continue
		}
		// Stray single markdown characters carry no content
		if len(line) == 1 && strings.ContainsAny(line, "#*-_") {
			continue
		}
		improved = append(improved, line)
	}

	result := strings.Join(improved, "\n")
	result = strings.TrimSpace(result)
	result = blankRunRe.ReplaceAllString(result, "\n\n")

	return result
}

// QualityScore blends content retention, markdown cleanup and chrome
// removal into a 0..1 score for the cleaning pass.
func (p *Processor) QualityScore(original, cleaned string) float64 {
	if original == "" || cleaned == "" {
		return 0
	}

	lengthRatio := float64(len(cleaned)) / float64(len(original))

	markdownBefore := len(markdownNoiseRe.FindAllString(original, -1))
	markdownAfter := len(markdownNoiseRe.FindAllString(cleaned, -1))
	markdownReduction := float64(markdownBefore-markdownAfter) / float64(max(markdownBefore, 1))

	uiBefore := len(uiElementRe.FindAllString(original, -1))
	uiAfter := len(uiElementRe.FindAllString(cleaned, -1))
	uiReduction := float64(uiBefore-uiAfter) / float64(max(uiBefore, 1))

	score := lengthRatio*0.4 + markdownReduction*0.3 + uiReduction*0.3

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Process applies cleaning to a successful crawl result in place and
// records the reduction metrics in metadata. Failed results and results
// without text pass through untouched.
func (p *Processor) Process(result *models.CrawlResult, cleanText bool) *models.CrawlResult {
	if !cleanText || result == nil || result.Text == "" {
		return result
	}

	original := result.Text
	cleaned := p.CleanText(original)
	quality := p.QualityScore(original, cleaned)

	result.Text = cleaned
	result.Metadata.PostProcessingApplied = true
	result.Metadata.OriginalTextLength = len(original)
	result.Metadata.ProcessedTextLength = len(cleaned)
	result.Metadata.TextReductionRatio = float64(len(cleaned)) / float64(len(original))
	result.Metadata.ProcessingQualityScore = quality
	result.Metadata.TextLength = len(cleaned)

	p.logger.Debug().
		Str("url", result.URL).
		Int("original_length", len(original)).
		Int("processed_length", len(cleaned)).
		Float64("quality", quality).
		Msg("Text post-processing applied")

	return result
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
