package scrape

import "strings"

// Maturity levels for a class page's documented content.
const (
	MaturityPreAlpha     = "pre_alpha"
	MaturityRevisedTier5 = "revised_through_tier_5"
	MaturityUnknown      = "unknown"
)

// ClassifyMaturity classifies a page's documentation readiness from its full
// text. Pure text heuristics; the source carries no structured marker.
func ClassifyMaturity(pageText string) string {
	t := strings.ToLower(pageText)
	switch {
	case strings.Contains(t, "pre-alpha"):
		return MaturityPreAlpha
	case strings.Contains(t, "beyond tier 5") && strings.Contains(t, "not yet been revised"):
		return MaturityRevisedTier5
	default:
		return MaturityUnknown
	}
}
