package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// stubEngineSet is a fixed registry view for filter tests
type stubEngineSet struct {
	names []string
}

func (s stubEngineSet) Names() []string { return s.names }

func (s stubEngineSet) Available(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

func newTestBuilder() *Builder {
	return NewBuilder(arbor.NewLogger())
}

func TestFromAnalysis(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		siteType    string
		priority    []string
		timeout     time.Duration
		antiBotMode bool
	}{
		{
			models.SiteTypeComplexSPA,
			[]string{"crawl4ai", "firecrawl", "playwright", "requests"},
			60 * time.Second,
			false,
		},
		{
			models.SiteTypeAIAnalysis,
			[]string{"crawl4ai", "firecrawl", "playwright", "requests"},
			45 * time.Second,
			false,
		},
		{
			models.SiteTypeAntiBotHeavy,
			[]string{"playwright", "firecrawl", "crawl4ai", "requests"},
			60 * time.Second,
			true,
		},
		{
			models.SiteTypeStandardDynamic,
			[]string{"playwright", "crawl4ai", "firecrawl", "requests"},
			40 * time.Second,
			false,
		},
		{
			models.SiteTypeSimpleStatic,
			[]string{"requests", "crawl4ai", "firecrawl", "playwright"},
			30 * time.Second,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.siteType, func(t *testing.T) {
			analysis := &models.SiteAnalysis{
				URL:        "https://example.com",
				SiteType:   tt.siteType,
				Confidence: 0.7,
				Reasons:    []string{"test reason"},
			}

			strategy := b.FromAnalysis(analysis)

			assert.Equal(t, tt.priority, strategy.EnginePriority)
			assert.Equal(t, tt.timeout, strategy.Timeout)
			assert.Equal(t, tt.antiBotMode, strategy.AntiBotMode)
			assert.Equal(t, tt.siteType, strategy.SiteType)
			assert.Equal(t, 0.7, strategy.Confidence)
			assert.Equal(t, []string{"test reason"}, strategy.Reasons)
			assert.False(t, strategy.IsFallback)
		})
	}
}

func TestFromAnalysisUnknownSiteType(t *testing.T) {
	b := newTestBuilder()

	strategy := b.FromAnalysis(&models.SiteAnalysis{SiteType: "mystery"})

	assert.Equal(t, models.SiteTypeSimpleStatic, strategy.SiteType)
	assert.Equal(t, "requests", strategy.EnginePriority[0])
	assert.Equal(t, 30*time.Second, strategy.Timeout)
}

func TestFallback(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		name     string
		url      string
		siteType string
	}{
		{"spa keyword", "https://react.dev/learn", models.SiteTypeComplexSPA},
		{"shopping keyword", "https://shop.example.com/item/1", models.SiteTypeAIAnalysis},
		{"security keyword", "https://protected.example.com", models.SiteTypeAntiBotHeavy},
		{"dynamic keyword", "https://portal.example.com", models.SiteTypeStandardDynamic},
		{"no keyword", "https://example.com", models.SiteTypeSimpleStatic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := b.Fallback(tt.url)

			assert.Equal(t, tt.siteType, strategy.SiteType)
			assert.True(t, strategy.IsFallback)
			assert.Equal(t, 0.0, strategy.Confidence)
			assert.Equal(t, tt.siteType == models.SiteTypeAntiBotHeavy, strategy.AntiBotMode)
			assert.Len(t, strategy.Reasons, 1)
			assert.Contains(t, strategy.Reasons[0], tt.siteType)
		})
	}
}

func TestFallbackKeywordOrder(t *testing.T) {
	b := newTestBuilder()

	// SPA keywords win over shopping keywords when both match
	strategy := b.Fallback("https://spa.shop.example.com")
	assert.Equal(t, models.SiteTypeComplexSPA, strategy.SiteType)
}

func TestFilter(t *testing.T) {
	b := newTestBuilder()

	strategy := models.NewDefaultStrategy()
	strategy.EnginePriority = []string{"crawl4ai", "firecrawl", "playwright", "requests"}

	filtered := b.Filter(strategy, stubEngineSet{names: []string{"requests", "playwright"}})

	assert.Equal(t, []string{"playwright", "requests"}, filtered.EnginePriority)
}

func TestFilterEmptyIntersectionSubstitutesRegistry(t *testing.T) {
	b := newTestBuilder()

	strategy := models.NewDefaultStrategy()
	strategy.EnginePriority = []string{"firecrawl"}

	filtered := b.Filter(strategy, stubEngineSet{names: []string{"requests", "playwright"}})

	assert.Equal(t, []string{"requests", "playwright"}, filtered.EnginePriority)
}
