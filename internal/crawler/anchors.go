package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AnchorTitleStrategy treats titled anchors as listings and searches the
// anchor's ancestors for a nearby price.
type AnchorTitleStrategy struct {
	// PriceMarker must appear in a price element's text
	PriceMarker string

	// MinRelativeHref drops short site-relative links (navigation, filters)
	MinRelativeHref int

	// AncestorDepth bounds the upward price search
	AncestorDepth int
}

// Name identifies the strategy in logs
func (a *AnchorTitleStrategy) Name() string {
	return "anchor-title"
}

// Extract scans at most 3×max titled anchors
func (a *AnchorTitleStrategy) Extract(doc *goquery.Document, max int) []RawCandidate {
	var out []RawCandidate
	seen := make(map[string]bool)

	anchors := doc.Find("a[title]")
	anchors.Slice(0, min(anchors.Length(), max*3)).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || seen[href] {
			return true
		}
		title := strings.TrimSpace(s.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(s.Text())
		}
		if title == "" {
			return true
		}
		if strings.HasPrefix(href, "/") && len(href) < a.MinRelativeHref {
			return true
		}

		seen[href] = true
		out = append(out, RawCandidate{
			Title:     title,
			URL:       href,
			PriceText: a.nearbyPrice(s),
		})
		return len(out) < max
	})
	return out
}

// nearbyPrice walks up to AncestorDepth parents and returns the shortest
// div/span text under that ancestor containing PriceMarker.
func (a *AnchorTitleStrategy) nearbyPrice(s *goquery.Selection) string {
	parent := s.Parent()
	for depth := 0; depth < a.AncestorDepth && parent.Length() > 0; depth++ {
		best := ""
		parent.Find("div, span").Each(func(_ int, el *goquery.Selection) {
			text := strings.TrimSpace(el.Text())
			if !strings.Contains(text, a.PriceMarker) {
				return
			}
			if best == "" || len(text) < len(best) {
				best = text
			}
		})
		if best != "" {
			return best
		}
		parent = parent.Parent()
	}
	return ""
}
