package engines

import (
	"strings"
)

// qualityInput carries the signals feeding the per-engine quality score
type qualityInput struct {
	Base        int    // Engine-dependent floor
	Text        string // Primary markdown payload
	Title       string
	Description string
	HasOpenGraph bool
	LinkCount   int
}

// scoreQuality computes the advisory 0-100 quality score: base floor plus
// text-length tiers, structural bonus, metadata-richness bonus and a small
// size bonus, clamped to 100. Scores are ordinal within one engine only.
func scoreQuality(in qualityInput) int {
	score := in.Base

	// Text length tiers
	textLen := len(in.Text)
	switch {
	case textLen > 3000:
		score += 25
	case textLen > 1000:
		score += 15
	case textLen > 300:
		score += 10
	case textLen > 50:
		score += 5
	}

	// Structural bonus, capped at 20
	structure := 0
	if strings.Contains(in.Text, "# ") || strings.Contains(in.Text, "## ") {
		structure += 8
	}
	if strings.Contains(in.Text, "- ") || strings.Contains(in.Text, "* ") {
		structure += 6
	}
	if strings.Contains(in.Text, "](") {
		structure += 6
	}
	if structure > 20 {
		structure = 20
	}
	score += structure

	// Metadata richness, capped at 10
	meta := 0
	if in.Title != "" {
		meta += 4
	}
	if in.Description != "" {
		meta += 3
	}
	if in.HasOpenGraph {
		meta += 3
	}
	if meta > 10 {
		meta = 10
	}
	score += meta

	// Size bonus for link-rich pages, capped at 5
	if in.LinkCount > 20 {
		score += 5
	} else if in.LinkCount > 5 {
		score += 3
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// contentQuality derives the coarse label from a quality score
func contentQuality(score int) string {
	switch {
	case score > 80:
		return "high"
	case score > 50:
		return "medium"
	default:
		return "low"
	}
}
