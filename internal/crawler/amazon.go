package crawler

import (
	"strings"

	"sjsage522/productscout/helpers"
)

// NewAmazonAdapter creates the Amazon.in adapter
func NewAmazonAdapter(baseURL string) *Adapter {
	return &Adapter{
		Platform:      PlatformAmazonIN,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		SearchPath:    "/s?k=%s",
		ReadySelector: "div.s-main-slot",
		CacheKey:      "amazon_in_rate_limited",
		Strategies: []Strategy{
			NewContainerStrategy("search-result-cards", Selectors{
				Container: "div.s-main-slot div[data-component-type='s-search-result']",
				Title:     []ElementHandler{TextOf("h2 a span"), TextOf("h2 span"), AttrOf("h2", "aria-label")},
				Link:      []ElementHandler{AttrOf("h2 a", "href"), AttrOf("a.a-link-normal", "href")},
				Price:     []ElementHandler{TextOf("span.a-price span.a-offscreen"), TextOf("span.a-offscreen")},
				Rating:    []ElementHandler{TextOf("span.a-icon-alt")},
			}),
			&LinkPatternStrategy{Patterns: []string{"/dp/", "/gp/product/"}},
		},
		Canonicalize: canonicalAmazonURL,
	}
}

// canonicalAmazonURL strips tracking segments: .../dp/<ASIN>/ref=...?... -> <host>/dp/<ASIN>
func canonicalAmazonURL(link string) string {
	idx := strings.Index(link, "/dp/")
	if idx < 0 {
		return link
	}
	asin, err := helpers.GetSplitPart(link[idx+len("/dp/"):], "/", 0)
	if err != nil {
		return link
	}
	asin, _, _ = strings.Cut(asin, "?")
	if asin == "" {
		return link
	}

	host := link[:idx]
	if scheme := strings.Index(host, "://"); scheme >= 0 {
		if slash := strings.Index(host[scheme+3:], "/"); slash >= 0 {
			host = host[:scheme+3+slash]
		}
	}
	return host + "/dp/" + asin
}
