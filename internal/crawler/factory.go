package crawler

import (
	"sjsage522/productscout/config"
	"sjsage522/productscout/logger"
)

// DefaultSites returns the marketplace adapters in collection order
func DefaultSites(cfg *config.Config) []*Adapter {
	sites := []*Adapter{
		NewAmazonAdapter(cfg.AmazonURL),
		NewFlipkartAdapter(cfg.FlipkartURL),
	}
	for _, s := range sites {
		logger.ForSite(string(s.Platform)).Debug().
			Str("base_url", s.BaseURL).
			Int("strategies", len(s.Strategies)).
			Msg("Registered site")
	}
	return sites
}
