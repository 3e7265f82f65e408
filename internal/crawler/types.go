package crawler

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Platform identifies a marketplace
type Platform string

const (
	PlatformAmazonIN Platform = "AMAZON_IN"
	PlatformFlipkart Platform = "FLIPKART"
)

// DisplayName returns the human-readable marketplace name
func (p Platform) DisplayName() string {
	switch p {
	case PlatformAmazonIN:
		return "Amazon.in"
	case PlatformFlipkart:
		return "Flipkart"
	default:
		return string(p)
	}
}

// RawCandidate is one listing extracted from a search-results page
type RawCandidate struct {
	Platform      Platform `json:"platform"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PriceText     string   `json:"price_text"`
	RatingText    string   `json:"rating_text"`
	SourceURL     string   `json:"source_url"`
	LowConfidence bool     `json:"low_confidence,omitempty"`
}

// Strategy extracts candidates from a parsed page. Implementations must
// not panic on unexpected markup; they return fewer or weaker candidates.
type Strategy interface {
	// Name identifies the strategy in logs
	Name() string

	// Extract returns at most max candidates in page order
	Extract(doc *goquery.Document, max int) []RawCandidate
}

// FetchRequest describes one page to fetch
type FetchRequest struct {
	URL string

	// ReadySelector is waited for by browser-backed fetchers
	ReadySelector string

	// CacheKey blocks further requests to a site after it rate limits us
	CacheKey string
}

// Fetcher returns rendered page content. Callers bound each call with a
// context deadline.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (io.Reader, error)
}

// ElementHandler extracts one value from a selection, "" when absent
type ElementHandler func(*goquery.Selection) string
