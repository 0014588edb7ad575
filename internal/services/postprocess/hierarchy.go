package postprocess

import (
	"strings"

	"github.com/ternarybob/scout/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// otherBucket collects headings that appear before any parent heading
const otherBucket = "other"

// ExtractHierarchy derives the three-level outline from markdown headings.
// Depth1 is the first H1 (or fallbackTitle when the document has none).
// Depth2 maps each H1 to its H2 children; Depth3 maps each H2 (or the
// current H1 when no H2 has been seen) to its H3 children.
func ExtractHierarchy(markdown string, fallbackTitle string) models.Hierarchy {
	hierarchy := models.NewHierarchy()

	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var currentH1, currentH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		title := strings.TrimSpace(string(heading.Text(source)))
		if title == "" {
			return ast.WalkContinue, nil
		}

		switch heading.Level {
		case 1:
			currentH1 = title
			currentH2 = ""
			if hierarchy.Depth1 == "" {
				hierarchy.Depth1 = title
			}
			if _, exists := hierarchy.Depth2[title]; !exists {
				hierarchy.Depth2[title] = []string{}
			}
		case 2:
			currentH2 = title
			parent := currentH1
			if parent == "" {
				parent = otherBucket
			}
			hierarchy.Depth2[parent] = append(hierarchy.Depth2[parent], title)
			if _, exists := hierarchy.Depth3[title]; !exists {
				hierarchy.Depth3[title] = []string{}
			}
		case 3:
			parent := currentH2
			if parent == "" {
				parent = currentH1
			}
			if parent == "" {
				parent = otherBucket
			}
			hierarchy.Depth3[parent] = append(hierarchy.Depth3[parent], title)
		}

		return ast.WalkSkipChildren, nil
	})

	if hierarchy.Depth1 == "" {
		hierarchy.Depth1 = fallbackTitle
	}

	return hierarchy
}
