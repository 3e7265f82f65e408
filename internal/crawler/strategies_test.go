package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestContainerStrategy(t *testing.T) {
	s := NewContainerStrategy("cards", Selectors{
		Container: "div.item",
		Title:     []ElementHandler{TextOf("h2")},
		Link:      []ElementHandler{AttrOf("a", "href")},
		Price:     []ElementHandler{TextOf("span.price")},
		Rating:    []ElementHandler{TextOf("span.rating")},
	})
	doc := mustDoc(t, `<body>
		<div class="item"><h2>Lamp</h2><a href="/p/1">x</a><span class="price">₹499</span><span class="rating">4.1</span></div>
		<div class="item"><h2>Rug</h2><a href="/p/2">x</a></div>
		<div class="item"><span class="price">₹10</span></div>
		<div class="item"><h2>Vase</h2><a href="/p/3">x</a></div>
	</body>`)

	got := s.Extract(doc, 10)
	require.Len(t, got, 3)
	assert.Equal(t, RawCandidate{Title: "Lamp", URL: "/p/1", PriceText: "₹499", RatingText: "4.1"}, got[0])
	// Missing price is still emitted
	assert.Equal(t, "Rug", got[1].Title)
	assert.Empty(t, got[1].PriceText)
	assert.Equal(t, "Vase", got[2].Title)

	assert.Len(t, s.Extract(doc, 2), 2)
	assert.Equal(t, "cards", s.Name())
}

func TestAnchorTitleStrategy(t *testing.T) {
	s := &AnchorTitleStrategy{PriceMarker: "₹", MinRelativeHref: 30, AncestorDepth: 4}
	doc := mustDoc(t, `<body>
		<header><a title="Login" href="/account/login">Login</a></header>
		<div class="card">
			<div class="inner">
				<a title="Decorative Wall Clock" href="/decorative-wall-clock/p/itmabc123456789xyz?pid=CLK1">img</a>
			</div>
			<div class="price"><div>₹799</div><div>₹1,499</div><span>47% off</span></div>
		</div>
		<div class="card">
			<a title="Decorative Wall Clock again" href="/decorative-wall-clock/p/itmabc123456789xyz?pid=CLK1">dup</a>
		</div>
		<section><div><div><div class="card">
			<a title="" href="https://www.flipkart.com/vintage-clock/p/itm999">Vintage Clock</a>
		</div></div></div></section>
	</body>`)

	got := s.Extract(doc, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "Decorative Wall Clock", got[0].Title)
	assert.Equal(t, "/decorative-wall-clock/p/itmabc123456789xyz?pid=CLK1", got[0].URL)
	assert.Equal(t, "₹799", got[0].PriceText)

	// Empty title attribute falls back to anchor text; no price within 4 levels
	assert.Equal(t, "Vintage Clock", got[1].Title)
	assert.Empty(t, got[1].PriceText)
}

func TestLinkPatternStrategy(t *testing.T) {
	s := &LinkPatternStrategy{Patterns: []string{"/dp/", "/gp/product/"}}
	long := strings.Repeat("x", 250)
	doc := mustDoc(t, `<body>
		<a href="/help">Help</a>
		<a href="/gp/product/B0ZZZ">  Brass
			Clock </a>
		<a href="/gp/product/B0ZZZ">Brass Clock duplicate</a>
		<a href="/dp/B0YYY"></a>
		<a href="/dp/B0LONG">`+long+`</a>
	</body>`)

	got := s.Extract(doc, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "Brass Clock", got[0].Title)
	assert.Equal(t, "/gp/product/B0ZZZ", got[0].URL)
	assert.True(t, got[0].LowConfidence)
	assert.Empty(t, got[0].PriceText)
	assert.Len(t, []rune(got[1].Title), maxFallbackTitle)
}

func TestLinkPatternStrategyScanBound(t *testing.T) {
	s := &LinkPatternStrategy{Patterns: []string{"/p/"}}
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString(`<a href="/nav">nav</a>`)
	}
	b.WriteString(`<a href="/p/late">Late Product</a>`)

	// Only the first 5×max anchors are considered
	assert.Empty(t, s.Extract(mustDoc(t, b.String()), 1))
	assert.Len(t, s.Extract(mustDoc(t, b.String()), 2), 1)
}
