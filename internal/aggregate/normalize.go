package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"sjsage522/productscout/config"
	"sjsage522/productscout/internal/crawler"
	"sjsage522/productscout/internal/price"
	"sjsage522/productscout/internal/rates"
)

// NormalizedCandidate is a raw candidate with its price projected into the
// reference currency. ReferenceAmount is nil when the amount or a usable
// rate is missing.
type NormalizedCandidate struct {
	crawler.RawCandidate
	Amount                 *float64 `json:"amount"`
	Currency               string   `json:"currency"`
	ReferenceAmount        *float64 `json:"reference_amount"`
	ReferenceAmountDisplay *string  `json:"reference_amount_display"`
}

// Normalizer parses candidate prices and converts them with a rate cache
type Normalizer struct {
	parser    *price.Parser
	hints     map[string]string
	reference string
	symbol    string
}

// NewNormalizer builds a normalizer from the configured lookup tables
func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{
		parser:    price.NewParser(cfg.CurrencySymbols),
		hints:     cfg.DomainHints,
		reference: strings.ToUpper(cfg.ReferenceCurrency),
		symbol:    cfg.ReferenceSymbol,
	}
}

// Parse parses a candidate's price text. The domain hint comes from the
// listing url, falling back to the search url.
func (n *Normalizer) Parse(c crawler.RawCandidate) price.Parsed {
	hint := price.DomainHint(c.URL, n.hints)
	if hint == "" {
		hint = price.DomainHint(c.SourceURL, n.hints)
	}
	return n.parser.Parse(c.PriceText, hint)
}

// Currencies returns the sorted distinct currency codes of candidates that
// carry an amount.
func (n *Normalizer) Currencies(cands []crawler.RawCandidate) []string {
	set := make(map[string]struct{})
	for _, c := range cands {
		p := n.Parse(c)
		if p.Amount == nil || p.Currency == "" {
			continue
		}
		set[p.Currency] = struct{}{}
	}
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Normalize projects every candidate into the reference currency
func (n *Normalizer) Normalize(cands []crawler.RawCandidate, cache *rates.Cache) []NormalizedCandidate {
	out := make([]NormalizedCandidate, 0, len(cands))
	for _, c := range cands {
		p := n.Parse(c)
		nc := NormalizedCandidate{
			RawCandidate: c,
			Amount:       p.Amount,
			Currency:     p.Currency,
		}
		if ref, ok := n.convert(p, cache); ok {
			display := price.Format(n.symbol, ref)
			nc.ReferenceAmount = &ref
			nc.ReferenceAmountDisplay = &display
		}
		out = append(out, nc)
	}
	return out
}

// convert never defaults a missing rate or currency
func (n *Normalizer) convert(p price.Parsed, cache *rates.Cache) (float64, bool) {
	if p.Amount == nil || p.Currency == "" {
		return 0, false
	}
	amount := decimal.NewFromFloat(*p.Amount)
	if strings.EqualFold(p.Currency, n.reference) {
		v, _ := amount.Round(2).Float64()
		return v, true
	}
	if cache == nil {
		return 0, false
	}
	rate, ok := cache.Rate(p.Currency)
	if !ok {
		return 0, false
	}
	v, _ := amount.Mul(decimal.NewFromFloat(rate)).Round(2).Float64()
	return v, true
}
