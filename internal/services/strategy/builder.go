package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// enginePlan pairs a primary engine with its fallback order
type enginePlan struct {
	primary  string
	fallback []string
}

// sitePlans maps each site type to its engine priority
var sitePlans = map[string]enginePlan{
	models.SiteTypeComplexSPA: {
		primary:  models.EngineCrawl4AI,
		fallback: []string{models.EngineFirecrawl, models.EnginePlaywright, models.EngineRequests},
	},
	models.SiteTypeAIAnalysis: {
		primary:  models.EngineCrawl4AI,
		fallback: []string{models.EngineFirecrawl, models.EnginePlaywright, models.EngineRequests},
	},
	models.SiteTypeAntiBotHeavy: {
		primary:  models.EnginePlaywright,
		fallback: []string{models.EngineFirecrawl, models.EngineCrawl4AI, models.EngineRequests},
	},
	models.SiteTypeStandardDynamic: {
		primary:  models.EnginePlaywright,
		fallback: []string{models.EngineCrawl4AI, models.EngineFirecrawl, models.EngineRequests},
	},
	models.SiteTypeSimpleStatic: {
		primary:  models.EngineRequests,
		fallback: []string{models.EngineCrawl4AI, models.EngineFirecrawl, models.EnginePlaywright},
	},
}

// siteTimeouts are the per-type timeout hints in seconds
var siteTimeouts = map[string]time.Duration{
	models.SiteTypeComplexSPA:      60 * time.Second,
	models.SiteTypeAIAnalysis:      45 * time.Second,
	models.SiteTypeAntiBotHeavy:    60 * time.Second,
	models.SiteTypeStandardDynamic: 40 * time.Second,
	models.SiteTypeSimpleStatic:    30 * time.Second,
}

// Domain keywords for the heuristic fallback, checked in order
var (
	spaKeywords      = []string{"react.dev", "vue", "angular", "spa"}
	shoppingKeywords = []string{"shopping", "ecommerce", "store", "shop."}
	securityKeywords = []string{"cloudflare", "protected", "secure"}
	dynamicKeywords  = []string{"dynamic", "app", "portal"}
)

// EngineSet is the registry view the builder filters against
type EngineSet interface {
	Names() []string
	Available(name string) bool
}

// Builder turns analyzer verdicts into crawl strategies, with a domain
// heuristic for when the analyzer is unreachable.
type Builder struct {
	logger arbor.ILogger
}

// NewBuilder creates the strategy builder
func NewBuilder(logger arbor.ILogger) *Builder {
	return &Builder{logger: logger}
}

// FromAnalysis builds the strategy for an analyzer verdict
func (b *Builder) FromAnalysis(analysis *models.SiteAnalysis) *models.CrawlStrategy {
	siteType := analysis.SiteType
	plan, ok := sitePlans[siteType]
	if !ok {
		siteType = models.SiteTypeSimpleStatic
		plan = sitePlans[siteType]
	}

	strategy := models.NewDefaultStrategy()
	strategy.EnginePriority = append([]string{plan.primary}, plan.fallback...)
	strategy.Timeout = siteTimeouts[siteType]
	strategy.AntiBotMode = siteType == models.SiteTypeAntiBotHeavy
	strategy.SiteType = siteType
	strategy.Confidence = analysis.Confidence
	strategy.Reasons = analysis.Reasons

	b.logger.Debug().
		Str("url", analysis.URL).
		Str("site_type", siteType).
		Strs("engine_priority", strategy.EnginePriority).
		Msg("Strategy built from analysis")

	return strategy
}

// Fallback builds a strategy from domain keywords alone. The result
// carries is_fallback so callers can tell the heuristic path apart from
// the analyzed one.
func (b *Builder) Fallback(url string) *models.CrawlStrategy {
	domain := strings.ToLower(url)

	siteType := models.SiteTypeSimpleStatic
	switch {
	case containsAny(domain, spaKeywords):
		siteType = models.SiteTypeComplexSPA
	case containsAny(domain, shoppingKeywords):
		siteType = models.SiteTypeAIAnalysis
	case containsAny(domain, securityKeywords):
		siteType = models.SiteTypeAntiBotHeavy
	case containsAny(domain, dynamicKeywords):
		siteType = models.SiteTypeStandardDynamic
	}

	plan := sitePlans[siteType]
	strategy := models.NewDefaultStrategy()
	strategy.EnginePriority = append([]string{plan.primary}, plan.fallback...)
	strategy.Timeout = siteTimeouts[siteType]
	strategy.AntiBotMode = siteType == models.SiteTypeAntiBotHeavy
	strategy.SiteType = siteType
	strategy.IsFallback = true
	strategy.Confidence = 0
	strategy.Reasons = []string{fmt.Sprintf("domain heuristic classified site as %s", siteType)}

	b.logger.Warn().
		Str("url", url).
		Str("site_type", siteType).
		Msg("Analyzer unavailable, using heuristic fallback strategy")

	return strategy
}

// Filter intersects the strategy's priority list with the registry. An
// empty intersection substitutes the full registry order instead of
// failing; some engine is always better than none.
func (b *Builder) Filter(strategy *models.CrawlStrategy, engines EngineSet) *models.CrawlStrategy {
	var available []string
	for _, name := range strategy.EnginePriority {
		if engines.Available(name) {
			available = append(available, name)
		}
	}

	if len(available) == 0 {
		available = engines.Names()
		b.logger.Warn().
			Strs("requested", strategy.EnginePriority).
			Strs("substituted", available).
			Msg("No requested engine registered, substituting full registry")
	}

	strategy.EnginePriority = available
	return strategy
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
