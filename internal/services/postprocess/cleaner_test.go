package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

func newTestProcessor() *Processor {
	return NewProcessor(arbor.NewLogger())
}

func TestCleanTextEmpty(t *testing.T) {
	p := newTestProcessor()
	assert.Equal(t, "", p.CleanText(""))
}

func TestCleanTextDeadLinks(t *testing.T) {
	p := newTestProcessor()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"javascript link keeps text",
			"[메뉴 열기](javascript:void(0))",
			"메뉴 열기",
		},
		{
			"anchor link keeps text",
			"[Section](#section-2)",
			"Section",
		},
		{
			"mailto link keeps text",
			"[문의하기](mailto:help@example.com)",
			"문의하기",
		},
		{
			"long link collapses to host",
			"[기사 제목](https://news.example.com/articles/2024/01/15/long-slug)",
			"기사 제목 (https://news.example.com)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.CleanText(tt.input))
		})
	}
}

func TestCleanTextEscapeSequences(t *testing.T) {
	p := newTestProcessor()

	cleaned := p.CleanText(`첫 줄\n둘째 줄 \"quoted\"`)
	assert.Equal(t, "첫 줄\n둘째 줄 \"quoted\"", cleaned)
}

func TestCleanTextUIChrome(t *testing.T) {
	p := newTestProcessor()

	// Surrounding whitespace is consumed with the placeholder
	cleaned := p.CleanText("본문 내용입니다 새창열림 이어집니다")
	assert.Equal(t, "본문 내용입니다이어집니다", cleaned)

	cleaned = p.CleanText("_검색 아이콘_ 실제 내용")
	assert.Equal(t, "실제 내용", cleaned)
}

func TestCleanTextNormalization(t *testing.T) {
	p := newTestProcessor()

	// Excess header depth collapses to h3, star lists become dashes,
	// blank-line runs collapse to one empty line
	input := "##### Deep Heading\n\n\n\n* item one\n*   item two\n\ntext   with   spaces"
	cleaned := p.CleanText(input)

	assert.Contains(t, cleaned, "### Deep Heading")
	assert.Contains(t, cleaned, "- item one")
	assert.Contains(t, cleaned, "- item two")
	assert.Contains(t, cleaned, "text with spaces")
	assert.NotContains(t, cleaned, "\n\n\n")
}

func TestCleanTextDropsStrayMarkers(t *testing.T) {
	p := newTestProcessor()

	cleaned := p.CleanText("content line\n#\n-\nmore content")
	assert.Equal(t, "content line\nmore content", cleaned)
}

func TestCleanTextIdempotent(t *testing.T) {
	p := newTestProcessor()

	input := "##### Heading\n\n[메뉴](javascript:void(0))\n\n* item\n\n\n\ntext   here  새창열림"
	once := p.CleanText(input)
	twice := p.CleanText(once)

	assert.Equal(t, once, twice)
}

func TestQualityScore(t *testing.T) {
	p := newTestProcessor()

	assert.Equal(t, 0.0, p.QualityScore("", "cleaned"))
	assert.Equal(t, 0.0, p.QualityScore("original", ""))

	// Unchanged text keeps full length ratio with no noise to remove
	score := p.QualityScore("plain text", "plain text")
	assert.InDelta(t, 0.4, score, 0.001)

	// Removing markdown noise and chrome raises the score
	original := "### noisy ### _아이콘_ content"
	cleaned := "content"
	score = p.QualityScore(original, cleaned)
	assert.Greater(t, score, 0.4)
	assert.LessOrEqual(t, score, 1.0)
}

func TestProcess(t *testing.T) {
	p := newTestProcessor()

	result := &models.CrawlResult{
		URL:    "https://example.com",
		Text:   "##### Heading\n\n\n\ncontent   here",
		Status: models.CrawlStatusComplete,
	}

	processed := p.Process(result, true)

	assert.True(t, processed.Metadata.PostProcessingApplied)
	assert.Equal(t, len("##### Heading\n\n\n\ncontent   here"), processed.Metadata.OriginalTextLength)
	assert.Equal(t, len(processed.Text), processed.Metadata.ProcessedTextLength)
	assert.Equal(t, len(processed.Text), processed.Metadata.TextLength)
	assert.Greater(t, processed.Metadata.ProcessingQualityScore, 0.0)
	assert.Contains(t, processed.Text, "### Heading")
}

func TestProcessSkips(t *testing.T) {
	p := newTestProcessor()

	result := &models.CrawlResult{Text: "  raw   text  "}
	same := p.Process(result, false)
	assert.Equal(t, "  raw   text  ", same.Text)
	assert.False(t, same.Metadata.PostProcessingApplied)

	assert.Nil(t, p.Process(nil, true))

	empty := &models.CrawlResult{}
	assert.False(t, p.Process(empty, true).Metadata.PostProcessingApplied)
}
