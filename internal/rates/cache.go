// Package rates resolves currency multipliers into the reference currency.
package rates

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"sjsage522/productscout/logger"
)

// Cache maps currency codes to their multiplier into the reference
// currency. The reference maps to 1.0. Codes whose lookup failed are listed
// in Unresolved and never appear in Rates.
type Cache struct {
	Reference  string             `json:"reference"`
	Rates      map[string]float64 `json:"rates"`
	Unresolved []string           `json:"unresolved"`
}

// NewCache returns a cache holding only the reference currency
func NewCache(reference string) *Cache {
	reference = strings.ToUpper(reference)
	return &Cache{
		Reference:  reference,
		Rates:      map[string]float64{reference: 1.0},
		Unresolved: []string{},
	}
}

// Rate returns the multiplier for code and whether it is usable
func (c *Cache) Rate(code string) (float64, bool) {
	if code == "" {
		return 0, false
	}
	r, ok := c.Rates[strings.ToUpper(code)]
	return r, ok
}

// Builder resolves a Cache from the currencies observed in one run
type Builder struct {
	reference   string
	lookup      Lookup
	concurrency int
	log         *logger.Logger
}

// NewBuilder creates a builder issuing at most concurrency lookups at once
func NewBuilder(reference string, lookup Lookup, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Builder{
		reference:   strings.ToUpper(reference),
		lookup:      lookup,
		concurrency: concurrency,
		log:         logger.ForRates(),
	}
}

// Build looks up every distinct code once. A failed lookup marks only that
// code unresolved.
func (b *Builder) Build(ctx context.Context, codes []string) *Cache {
	rc := NewCache(b.reference)

	seen := make(map[string]bool)
	var pending []string
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || code == b.reference || seen[code] {
			continue
		}
		seen[code] = true
		pending = append(pending, code)
	}
	if len(pending) == 0 || b.lookup == nil {
		rc.Unresolved = append(rc.Unresolved, pending...)
		sort.Strings(rc.Unresolved)
		return rc
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)

	for _, code := range pending {
		g.Go(func() error {
			r, err := b.lookup.LookupRate(ctx, code)

			mu.Lock()
			defer mu.Unlock()
			if err != nil || r <= 0 {
				b.log.Warn().Err(err).Str("currency", code).Msg("Rate unresolved; candidates in this currency keep no reference amount")
				rc.Unresolved = append(rc.Unresolved, code)
				return nil
			}
			rc.Rates[code] = r
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(rc.Unresolved)
	b.log.Info().
		Int("resolved", len(rc.Rates)-1).
		Strs("unresolved", rc.Unresolved).
		Msg("Rate cache built")
	return rc
}
