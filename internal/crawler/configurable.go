package crawler

import (
	"github.com/PuerkitoBio/goquery"
)

// Selectors configures a ContainerStrategy. Each field chain is tried in
// order and the first non-empty value wins.
type Selectors struct {
	Container string
	Title     []ElementHandler
	Link      []ElementHandler
	Price     []ElementHandler
	Rating    []ElementHandler
}

// ContainerStrategy reads one candidate per marketplace result container
type ContainerStrategy struct {
	name      string
	selectors Selectors
}

// NewContainerStrategy creates a selector-configured strategy
func NewContainerStrategy(name string, selectors Selectors) *ContainerStrategy {
	return &ContainerStrategy{name: name, selectors: selectors}
}

// Name identifies the strategy in logs
func (c *ContainerStrategy) Name() string {
	return c.name
}

// Extract reads title, link, price and rating from each container. Missing
// fields stay empty; containers with neither title nor link are skipped.
func (c *ContainerStrategy) Extract(doc *goquery.Document, max int) []RawCandidate {
	var out []RawCandidate
	doc.Find(c.selectors.Container).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		cand := RawCandidate{
			Title:      applyHandlers(s, c.selectors.Title),
			URL:        applyHandlers(s, c.selectors.Link),
			PriceText:  applyHandlers(s, c.selectors.Price),
			RatingText: applyHandlers(s, c.selectors.Rating),
		}
		if cand.Title == "" && cand.URL == "" {
			return true
		}
		out = append(out, cand)
		return len(out) < max
	})
	return out
}
