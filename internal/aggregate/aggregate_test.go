package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/productscout/config"
	"sjsage522/productscout/internal/crawler"
	"sjsage522/productscout/internal/price"
	"sjsage522/productscout/internal/rates"
)

func ptr(v float64) *float64 { return &v }

func TestAggregateKeepsFirstOccurrence(t *testing.T) {
	first := crawler.RawCandidate{Platform: crawler.PlatformAmazonIN, Title: "Clock A", URL: "https://www.amazon.in/dp/B01", PriceText: "₹999"}
	dup := crawler.RawCandidate{Platform: crawler.PlatformAmazonIN, Title: "Clock A (renamed)", URL: "https://www.amazon.in/dp/B01", PriceText: "₹1,099"}
	other := crawler.RawCandidate{Platform: crawler.PlatformFlipkart, Title: "Clock B", URL: "https://www.flipkart.com/p/itm1"}

	got := Aggregate([]crawler.RawCandidate{first, other}, []crawler.RawCandidate{dup})
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, other, got[1])
}

func TestAggregateIdentityFallbacks(t *testing.T) {
	got := Aggregate([]crawler.RawCandidate{
		{Title: "Brass Lamp"},
		{Title: "Brass Lamp", PriceText: "₹10"},
		{PriceText: "₹1"},
		{PriceText: "₹1"},
		// A url equal to another record's title is a different identity
		{URL: "Brass Lamp"},
	})
	require.Len(t, got, 4)
	assert.Empty(t, got[0].PriceText)
	assert.Equal(t, "₹1", got[1].PriceText)
	assert.Equal(t, "₹1", got[2].PriceText)
	assert.Equal(t, "Brass Lamp", got[3].URL)
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(config.Default())
	cache := rates.NewCache("INR")
	cache.Rates["USD"] = 83.25
	cache.Unresolved = []string{"EUR"}

	cands := []crawler.RawCandidate{
		{Title: "inr", URL: "https://www.amazon.in/dp/B01", PriceText: "₹1,299"},
		{Title: "usd by hint", URL: "https://www.amazon.com/dp/B02", PriceText: "19.99"},
		{Title: "eur unresolved", URL: "https://shop.example/x", PriceText: "€25"},
		{Title: "no price", URL: "https://www.flipkart.com/p/itm3"},
		{Title: "no currency", URL: "https://shop.example/y", PriceText: "450", SourceURL: "https://shop.example/s?q=x"},
		{Title: "hint from source", URL: "/relative", PriceText: "300", SourceURL: "https://www.flipkart.com/search?q=x"},
	}

	got := n.Normalize(cands, cache)
	require.Len(t, got, len(cands))

	require.NotNil(t, got[0].ReferenceAmount)
	assert.Equal(t, 1299.0, *got[0].ReferenceAmount)
	assert.Equal(t, "₹1,299.00", *got[0].ReferenceAmountDisplay)
	assert.Equal(t, "INR", got[0].Currency)

	assert.Equal(t, "USD", got[1].Currency)
	require.NotNil(t, got[1].ReferenceAmount)
	assert.InDelta(t, 1664.17, *got[1].ReferenceAmount, 0.001)

	// Unresolved rate is never defaulted
	assert.Equal(t, "EUR", got[2].Currency)
	require.NotNil(t, got[2].Amount)
	assert.Nil(t, got[2].ReferenceAmount)
	assert.Nil(t, got[2].ReferenceAmountDisplay)

	assert.Nil(t, got[3].Amount)
	assert.Equal(t, "INR", got[3].Currency)
	assert.Nil(t, got[3].ReferenceAmount)

	// Amount with no currency at all stays unconverted
	require.NotNil(t, got[4].Amount)
	assert.Empty(t, got[4].Currency)
	assert.Nil(t, got[4].ReferenceAmount)

	assert.Equal(t, "INR", got[5].Currency)
	require.NotNil(t, got[5].ReferenceAmount)
	assert.Equal(t, 300.0, *got[5].ReferenceAmount)
}

func TestNormalizeDisplayRoundTrips(t *testing.T) {
	n := NewNormalizer(config.Default())
	parser := price.NewParser(config.DefaultCurrencySymbols())
	cache := rates.NewCache("INR")
	cache.Rates["GBP"] = 104.4567

	for _, text := range []string{"₹1,299", "£12.34", "₹1,00,000", "Rs. 45.5"} {
		got := n.Normalize([]crawler.RawCandidate{{Title: text, PriceText: text}}, cache)
		require.NotNil(t, got[0].ReferenceAmountDisplay, text)

		reparsed := parser.Parse(*got[0].ReferenceAmountDisplay, "")
		require.NotNil(t, reparsed.Amount, text)
		assert.InDelta(t, *got[0].ReferenceAmount, *reparsed.Amount, 0.005, text)
	}
}

func TestCurrencies(t *testing.T) {
	n := NewNormalizer(config.Default())
	codes := n.Currencies([]crawler.RawCandidate{
		{PriceText: "$5"},
		{PriceText: "₹10"},
		{PriceText: "US$ 7"},
		{PriceText: "€"},
		{PriceText: "12"},
	})
	assert.Equal(t, []string{"INR", "USD"}, codes)
}

func normalized(amounts ...*float64) []NormalizedCandidate {
	out := make([]NormalizedCandidate, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, NormalizedCandidate{
			RawCandidate:    crawler.RawCandidate{Title: string(rune('A' + i))},
			ReferenceAmount: a,
		})
	}
	return out
}

func titles(cands []NormalizedCandidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Title)
	}
	return out
}

func TestFilterAndRankOrdering(t *testing.T) {
	cands := normalized(ptr(500), nil, ptr(100), ptr(500), ptr(250))

	got := FilterAndRank(cands, nil, nil)
	// Unresolved amounts never rank; ties keep input order
	assert.Equal(t, []string{"C", "E", "A", "D"}, titles(got))
}

func TestFilterAndRankBoundsInclusive(t *testing.T) {
	cands := normalized(ptr(99.99), ptr(100), ptr(250), ptr(500), ptr(500.01), nil)

	got := FilterAndRank(cands, ptr(100), ptr(500))
	assert.Equal(t, []string{"B", "C", "D"}, titles(got))

	got = FilterAndRank(cands, ptr(250), nil)
	assert.Equal(t, []string{"C", "D", "E"}, titles(got))

	got = FilterAndRank(cands, nil, ptr(100))
	assert.Equal(t, []string{"A", "B"}, titles(got))
}

func TestFilterAndRankProperties(t *testing.T) {
	amounts := []float64{42, 7.5, 1200, 7.5, 300, 0, 999.99, 64, 64, 15}
	var cands []NormalizedCandidate
	for _, a := range amounts {
		cands = append(cands, normalized(ptr(a))...)
	}
	lo, hi := 7.5, 999.99

	got := FilterAndRank(cands, &lo, &hi)
	require.NotEmpty(t, got)
	for i, c := range got {
		assert.GreaterOrEqual(t, *c.ReferenceAmount, lo)
		assert.LessOrEqual(t, *c.ReferenceAmount, hi)
		if i > 0 {
			assert.LessOrEqual(t, *got[i-1].ReferenceAmount, *c.ReferenceAmount)
		}
	}
}

func TestFilterAndRankEmpty(t *testing.T) {
	got := FilterAndRank(nil, ptr(1), ptr(2))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
