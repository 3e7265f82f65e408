package crawler

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productscout/logger"
	scouterrors "sjsage522/productscout/pkg/errors"
)

// Adapter extracts listings from one marketplace's search-results page by
// trying a ranked list of strategies until one yields candidates.
type Adapter struct {
	Platform Platform
	BaseURL  string

	// SearchPath is formatted with the query-escaped search phrase
	SearchPath string

	// ReadySelector is the element browser fetchers wait for
	ReadySelector string

	// CacheKey blocks the site after it rate limits us
	CacheKey string

	Strategies []Strategy

	// Canonicalize rewrites an absolute listing URL (optional)
	Canonicalize func(string) string
}

// SearchURL returns the search-results URL for query
func (a *Adapter) SearchURL(query string) string {
	return a.BaseURL + fmt.Sprintf(a.SearchPath, url.QueryEscape(query))
}

// Extract returns at most max candidates from page content. Malformed or
// unexpected markup yields fewer candidates, never an error.
func (a *Adapter) Extract(r io.Reader, sourceURL string, max int) []RawCandidate {
	log := logger.ForSite(string(a.Platform))
	if max <= 0 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		log.Warn().Err(scouterrors.NewParsing(string(a.Platform), "unparseable page content", err)).
			Str("source_url", sourceURL).
			Msg("Skipping page")
		return nil
	}

	for _, strategy := range a.Strategies {
		found := a.run(strategy, doc, max)
		out := a.finish(found, sourceURL, max)
		if len(out) > 0 {
			log.Debug().Str("strategy", strategy.Name()).Int("count", len(out)).Msg("Extracted candidates")
			return out
		}
		log.Debug().Str("strategy", strategy.Name()).Msg("Strategy found nothing")
	}
	return nil
}

// run isolates a strategy so a panic on odd markup only skips that strategy
func (a *Adapter) run(strategy Strategy, doc *goquery.Document, max int) (found []RawCandidate) {
	defer func() {
		if r := recover(); r != nil {
			logger.ForSite(string(a.Platform)).Warn().
				Str("strategy", strategy.Name()).
				Interface("panic", r).
				Msg("Extraction strategy panicked")
			found = nil
		}
	}()
	return strategy.Extract(doc, max)
}

func (a *Adapter) finish(found []RawCandidate, sourceURL string, max int) []RawCandidate {
	out := make([]RawCandidate, 0, len(found))
	for _, cand := range found {
		cand.Platform = a.Platform
		cand.SourceURL = sourceURL
		cand.URL = resolveURL(a.BaseURL, cand.URL)
		if cand.URL != "" && a.Canonicalize != nil {
			cand.URL = a.Canonicalize(cand.URL)
		}
		if cand.URL == "" && cand.Title == "" {
			continue
		}
		out = append(out, cand)
		if len(out) == max {
			break
		}
	}
	return out
}

// Collect fetches the search page for query and extracts candidates
func (a *Adapter) Collect(ctx context.Context, fetcher Fetcher, query string, max int) ([]RawCandidate, error) {
	searchURL := a.SearchURL(query)
	body, err := fetcher.Fetch(ctx, FetchRequest{
		URL:           searchURL,
		ReadySelector: a.ReadySelector,
		CacheKey:      a.CacheKey,
	})
	if err != nil {
		return nil, scouterrors.NewCollection(string(a.Platform), fmt.Sprintf("fetch %q", query), err)
	}
	return a.Extract(body, searchURL, max), nil
}
