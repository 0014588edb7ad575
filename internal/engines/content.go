package engines

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/scout/internal/models"
	"github.com/ternarybob/scout/internal/services/postprocess"
)

// parsedPage is the normalized extraction from one HTML document
type parsedPage struct {
	Title        string
	Markdown     string
	Description  string
	HasOpenGraph bool
	Links        []string
	Images       []string
}

// parsePage extracts title, markdown, metadata, links and images from raw
// HTML. Scripts, styles and noscript blocks are pruned before conversion.
func parsePage(rawHTML, pageURL string) (*parsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &parsedPage{}

	page.Title = extractTitle(doc)
	page.Description = extractDescription(doc)
	page.HasOpenGraph = doc.Find("meta[property^='og:']").Length() > 0

	base, _ := url.Parse(pageURL)
	page.Links = extractLinks(doc, base)
	page.Images = extractImages(doc, base)

	doc.Find("script, style, noscript, iframe").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cleaned HTML: %w", err)
	}

	domain := ""
	if base != nil {
		domain = base.Host
	}
	converter := md.NewConverter(domain, true, nil)
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	page.Markdown = strings.TrimSpace(markdown)

	// Some pages convert to nothing (all content behind scripts); fall back
	// to visible text so callers can still judge emptiness
	if page.Markdown == "" {
		page.Markdown = strings.TrimSpace(doc.Find("body").Text())
	}

	return page, nil
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
		if og = strings.TrimSpace(og); og != "" {
			return og
		}
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if desc, exists := doc.Find("meta[name='description']").Attr("content"); exists {
		if desc = strings.TrimSpace(desc); desc != "" {
			return desc
		}
	}
	if og, exists := doc.Find("meta[property='og:description']").Attr("content"); exists {
		return strings.TrimSpace(og)
	}
	return ""
}

func extractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})

	return links
}

func extractImages(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var images []string

	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}

		resolved := resolveURL(base, src)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		images = append(images, resolved)
	})

	return images
}

// buildSuccessResult assembles the normalized result from a parsed page.
// An empty markdown payload yields a failed result so the orchestrator
// can fall back to a rendering engine.
func buildSuccessResult(engine, pageURL string, page *parsedPage, baseScore int, strategy *models.CrawlStrategy) *models.CrawlResult {
	if page.Markdown == "" {
		result := models.NewFailedResult(pageURL, "no content extracted")
		result.Metadata.CrawlerUsed = engine
		return result
	}

	score := scoreQuality(qualityInput{
		Base:         baseScore,
		Text:         page.Markdown,
		Title:        page.Title,
		Description:  page.Description,
		HasOpenGraph: page.HasOpenGraph,
		LinkCount:    len(page.Links),
	})

	result := &models.CrawlResult{
		URL:       pageURL,
		Title:     page.Title,
		Text:      page.Markdown,
		Hierarchy: postprocess.ExtractHierarchy(page.Markdown, page.Title),
		Status:    models.CrawlStatusComplete,
		Timestamp: time.Now().UTC(),
		Metadata: models.ResultMetadata{
			CrawlerUsed:          engine,
			QualityScore:         score,
			ContentQuality:       contentQuality(score),
			ExtractionConfidence: float64(score) / 100,
			TextLength:           len(page.Markdown),
		},
	}

	if strategy == nil || strategy.ExtractLinks {
		result.Links = page.Links
	}
	if strategy != nil && strategy.ExtractImages {
		result.Images = page.Images
	}

	return result
}

func resolveURL(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}
