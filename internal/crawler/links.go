package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productscout/helpers"
)

// maxFallbackTitle bounds titles taken from raw anchor text
const maxFallbackTitle = 200

// LinkPatternStrategy accepts any anchor whose href looks like a product
// page. Candidates are low confidence and carry no price.
type LinkPatternStrategy struct {
	Patterns []string
}

// Name identifies the strategy in logs
func (l *LinkPatternStrategy) Name() string {
	return "link-pattern"
}

// Extract scans at most 5×max anchors
func (l *LinkPatternStrategy) Extract(doc *goquery.Document, max int) []RawCandidate {
	var out []RawCandidate
	seen := make(map[string]bool)

	anchors := doc.Find("a")
	anchors.Slice(0, min(anchors.Length(), max*5)).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		text := helpers.CollapseSpaces(s.Text())
		if href == "" || text == "" || seen[href] || !l.matches(href) {
			return true
		}
		seen[href] = true
		out = append(out, RawCandidate{
			Title:         helpers.Truncate(text, maxFallbackTitle),
			URL:           href,
			LowConfidence: true,
		})
		return len(out) < max
	})
	return out
}

func (l *LinkPatternStrategy) matches(href string) bool {
	for _, p := range l.Patterns {
		if strings.Contains(href, p) {
			return true
		}
	}
	return false
}
