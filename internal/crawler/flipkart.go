package crawler

import "strings"

// NewFlipkartAdapter creates the Flipkart adapter
func NewFlipkartAdapter(baseURL string) *Adapter {
	return &Adapter{
		Platform:      PlatformFlipkart,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		SearchPath:    "/search?q=%s",
		ReadySelector: "a[title]",
		CacheKey:      "flipkart_rate_limited",
		Strategies: []Strategy{
			&AnchorTitleStrategy{
				PriceMarker:     "₹",
				MinRelativeHref: 30,
				AncestorDepth:   4,
			},
			&LinkPatternStrategy{Patterns: []string{"/p/", "itm"}},
		},
	}
}
