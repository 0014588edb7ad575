package intent

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// Vocabulary is the keyword table driving intent classification
type Vocabulary struct {
	Targets         map[string][]string `yaml:"targets"`
	ExtractionVerbs []string            `yaml:"extraction_verbs"`
	SearchVerbs     []string            `yaml:"search_verbs"`
	Platforms       []string            `yaml:"platforms"`
}

// LoadVocabulary reads the keyword table from path, or the embedded
// defaults when path is empty
func LoadVocabulary(path string) (*Vocabulary, error) {
	data := defaultKeywords
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read keywords file %s: %w", path, err)
		}
		data = fileData
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse keywords: %w", err)
	}
	if len(vocab.Targets) == 0 {
		return nil, fmt.Errorf("keywords table has no targets")
	}
	return &vocab, nil
}

var (
	fullURLRe = regexp.MustCompile(`https?://[a-zA-Z0-9$\-_@.&+!*(),%/?=#:~]+`)
	domainRe  = regexp.MustCompile(`(?:www\.)?[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}`)

	searchQueryRes = []*regexp.Regexp{
		regexp.MustCompile(`에서\s+(.+?)\s+찾아줘`),
		regexp.MustCompile(`에서\s+(.+?)\s+검색`),
		regexp.MustCompile(`(.+?)\s+정보\s+찾아줘`),
	}
)

// Router reduces free-text crawl requests to a UnifiedIntent
type Router struct {
	vocab  *Vocabulary
	logger arbor.ILogger
}

// NewRouter creates the intent router
func NewRouter(vocab *Vocabulary, logger arbor.ILogger) *Router {
	return &Router{vocab: vocab, logger: logger}
}

// ExtractURLs pulls full URLs and bare domains out of text. Bare domains
// are normalized to https://www.<domain>. Order of first appearance is
// preserved; duplicates are dropped.
func (r *Router) ExtractURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string

	fullURLs := fullURLRe.FindAllString(text, -1)
	for _, u := range fullURLs {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, domain := range domainRe.FindAllString(text, -1) {
		contained := false
		for _, u := range fullURLs {
			if strings.Contains(u, domain) {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		if !strings.HasPrefix(domain, "www.") {
			domain = "www." + domain
		}
		normalized := "https://" + domain
		if !seen[normalized] {
			seen[normalized] = true
			urls = append(urls, normalized)
		}
	}

	return urls
}

// DetectTarget finds the extraction target named in text and scores the
// match: keyword+"만" ("only") 0.8, plain keyword 0.5, +0.2 when an
// extraction verb co-occurs, clamped to [0, 1]. Returns ("", 0) when no
// keyword matches.
func (r *Router) DetectTarget(text string) (string, float64) {
	lower := strings.ToLower(text)

	bestTarget := ""
	bestConfidence := 0.0

	hasVerb := containsAny(lower, r.vocab.ExtractionVerbs)

	for target, keywords := range r.vocab.Targets {
		confidence := 0.0
		for _, keyword := range keywords {
			if !strings.Contains(lower, keyword) {
				continue
			}
			if strings.Contains(lower, keyword+"만") || strings.Contains(lower, keyword+" 만") {
				confidence = maxFloat(confidence, 0.8)
			} else {
				confidence = maxFloat(confidence, 0.5)
			}
		}
		if confidence > 0 && hasVerb {
			confidence += 0.2
		}
		if confidence > 1 {
			confidence = 1
		}
		if confidence > bestConfidence {
			bestConfidence = confidence
			bestTarget = target
		}
	}

	return bestTarget, bestConfidence
}

// Analyze classifies text into the unified intent. URL substrings are
// masked before keyword detection so a URL containing "link" or "date"
// never triggers selective extraction by itself.
func (r *Router) Analyze(text string) *models.UnifiedIntent {
	urls := r.ExtractURLs(text)

	masked := text
	for _, u := range urls {
		masked = strings.ReplaceAll(masked, u, " ")
	}
	masked = fullURLRe.ReplaceAllString(masked, " ")
	masked = domainRe.ReplaceAllString(masked, " ")

	target, targetConfidence := r.DetectTarget(masked)

	lowerMasked := strings.ToLower(masked)
	hasSearchVerb := containsAny(lowerMasked, r.vocab.SearchVerbs)
	platform := r.detectPlatform(lowerMasked)

	var intent *models.UnifiedIntent

	switch {
	case len(urls) == 0 && platform != "" && hasSearchVerb:
		intent = r.searchIntent(text, platform)

	case len(urls) == 0:
		intent = &models.UnifiedIntent{
			RequestType: models.RequestTypeInvalid,
			URLs:        []string{},
			Confidence:  0,
			Metadata:    map[string]interface{}{"error": "URL 또는 검색 의도를 찾을 수 없습니다"},
		}

	case len(urls) == 1 && target == "":
		intent = &models.UnifiedIntent{
			RequestType: models.RequestTypeSingle,
			URLs:        urls,
			Confidence:  0.9,
			Metadata:    map[string]interface{}{"processing_type": "full_crawl"},
		}

	case len(urls) == 1:
		intent = &models.UnifiedIntent{
			RequestType:   models.RequestTypeSelective,
			URLs:          urls,
			TargetContent: target,
			Confidence:    targetConfidence,
			Metadata:      map[string]interface{}{"processing_type": "selective_crawl"},
		}

	case target == "":
		intent = &models.UnifiedIntent{
			RequestType: models.RequestTypeBulk,
			URLs:        urls,
			Confidence:  0.8,
			Metadata: map[string]interface{}{
				"processing_type": "bulk_crawl",
				"url_count":       len(urls),
			},
		}

	default:
		confidence := 0.6 + 0.2
		intent = &models.UnifiedIntent{
			RequestType:   models.RequestTypeBulkSelective,
			URLs:          urls,
			TargetContent: target,
			Confidence:    minFloat(confidence, 1.0),
			Metadata: map[string]interface{}{
				"processing_type":         "bulk_selective_crawl",
				"url_count":               len(urls),
				"requires_implementation": true,
			},
		}
	}

	r.logger.Info().
		Str("request_type", intent.RequestType).
		Int("url_count", len(intent.URLs)).
		Str("target", intent.TargetContent).
		Float64("confidence", intent.Confidence).
		Msg("Intent analyzed")

	return intent
}

func (r *Router) searchIntent(text, platform string) *models.UnifiedIntent {
	query := ""
	for _, re := range searchQueryRes {
		if m := re.FindStringSubmatch(text); m != nil {
			query = strings.TrimSpace(m[1])
			break
		}
	}

	confidence := 0.3
	if platform != "" && query != "" {
		confidence = 0.7
	}

	return &models.UnifiedIntent{
		RequestType: models.RequestTypeSearch,
		URLs:        []string{},
		SearchQuery: query,
		Platform:    platform,
		Confidence:  confidence,
		Metadata: map[string]interface{}{
			"processing_type":         "platform_search",
			"requires_implementation": true,
		},
	}
}

func (r *Router) detectPlatform(lower string) string {
	for _, platform := range r.vocab.Platforms {
		if strings.Contains(lower, strings.ToLower(platform)) {
			return platform
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
