package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "sjsage522/productscout/pkg/errors"
)

// Mimics an Amazon.in search results page
const testAmazonHTML = `
<!DOCTYPE html>
<html>
<head><title>Amazon.in : wall clock</title></head>
<body>
  <div class="s-main-slot">
    <div data-component-type="s-search-result" data-asin="B01">
      <h2><a class="a-link-normal" href="/Vintage-Wall-Clock/dp/B01/ref=sr_1_1"><span>Vintage Wall Clock</span></a></h2>
      <span class="a-price"><span class="a-offscreen">₹1,299</span></span>
      <span class="a-icon-alt">4.2 out of 5 stars</span>
    </div>
    <div data-component-type="s-search-result" data-asin="B02">
      <h2><a class="a-link-normal" href="/Imported-Wall-Clock/dp/B02/ref=sr_1_2"><span>Imported Wall Clock</span></a></h2>
      <span class="a-price"><span class="a-offscreen">$15.00</span></span>
    </div>
  </div>
</body>
</html>
`

// Mimics a Flipkart search results page
const testFlipkartHTML = `
<!DOCTYPE html>
<html>
<head><title>Flipkart</title></head>
<body>
  <a title="Flipkart" href="/">Flipkart</a>
  <div class="grid">
    <div class="tile">
      <a title="Rustic Wooden Wall Clock" href="/rustic-wooden-wall-clock/p/itm0123456789abcd?pid=CLK1">
        <img src="/img/1.jpg" alt="clock" />
      </a>
      <div class="prices"><div>₹799</div><div>₹1,999</div><span>60% off</span></div>
    </div>
  </div>
</body>
</html>
`

func newMarketServer(t *testing.T) (*httptest.Server, *int32) {
	var rateCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/s", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testAmazonHTML))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testFlipkartHTML))
	})
	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&rateCalls, 1)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "INR", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"rates":{"INR":83.5}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &rateCalls
}

func setTestEnv(t *testing.T, base string) {
	t.Setenv("FETCH_MODE", "http")
	t.Setenv("AMAZON_URL", base)
	t.Setenv("FLIPKART_URL", base)
	t.Setenv("EXCHANGE_API_BASE", base)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MEMCACHE_ADDR", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MAX_QUERIES", "2")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "10")
}

func TestEndToEnd(t *testing.T) {
	srv, rateCalls := newMarketServer(t)
	setTestEnv(t, srv.URL)

	out := filepath.Join(t.TempDir(), "results.json")
	var stdout bytes.Buffer
	err := run([]string{"-q", "wall clock", "-max", "1260", "-out", out}, &stdout)
	require.NoError(t, err)

	// One lookup for the one foreign currency observed
	assert.Equal(t, int32(1), atomic.LoadInt32(rateCalls))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc struct {
		QueriesUsed   []string `json:"queries_used"`
		RawCandidates []struct {
			Platform string `json:"platform"`
			URL      string `json:"url"`
		} `json:"raw_candidates"`
		RatesCache struct {
			Rates map[string]float64 `json:"rates"`
		} `json:"rates_cache"`
		Results []struct {
			Platform               string   `json:"platform"`
			Title                  string   `json:"title"`
			URL                    string   `json:"url"`
			PriceText              string   `json:"price_text"`
			Currency               string   `json:"currency"`
			ReferenceAmount        *float64 `json:"reference_amount"`
			ReferenceAmountDisplay *string  `json:"reference_amount_display"`
			SourceURL              string   `json:"source_url"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, []string{"wall clock", "wall clock for home decor"}, doc.QueriesUsed)
	assert.Len(t, doc.RawCandidates, 3)
	assert.Equal(t, map[string]float64{"INR": 1, "USD": 83.5}, doc.RatesCache.Rates)

	require.Len(t, doc.Results, 2)
	assert.Equal(t, "FLIPKART", doc.Results[0].Platform)
	assert.Equal(t, 799.0, *doc.Results[0].ReferenceAmount)
	assert.Equal(t, srv.URL+"/rustic-wooden-wall-clock/p/itm0123456789abcd?pid=CLK1", doc.Results[0].URL)

	assert.Equal(t, "AMAZON_IN", doc.Results[1].Platform)
	assert.Equal(t, "USD", doc.Results[1].Currency)
	assert.Equal(t, 1252.5, *doc.Results[1].ReferenceAmount)
	assert.Equal(t, "₹1,252.50", *doc.Results[1].ReferenceAmountDisplay)
	assert.Equal(t, srv.URL+"/dp/B02", doc.Results[1].URL)
	assert.Equal(t, srv.URL+"/s?k=wall+clock", doc.Results[1].SourceURL)

	summary := stdout.String()
	assert.Contains(t, summary, "[done] 2 results saved to "+out)
	assert.Contains(t, summary, "[1] Rustic Wooden Wall Clock")
	assert.Contains(t, summary, "price    : $15.00  -> ₹1,252.50")
}

func TestEndToEndEmptyResult(t *testing.T) {
	srv, _ := newMarketServer(t)
	setTestEnv(t, srv.URL)

	out := filepath.Join(t.TempDir(), "results.json")
	var stdout bytes.Buffer
	require.NoError(t, run([]string{"-q", "wall clock", "-min", "5000", "-out", out}, &stdout))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results": []`)
	assert.Contains(t, stdout.String(), "[note] No results after filtering")
}

func TestEndToEndSiteDown(t *testing.T) {
	srv, _ := newMarketServer(t)
	setTestEnv(t, srv.URL)
	t.Setenv("FLIPKART_URL", "http://127.0.0.1:1")

	out := filepath.Join(t.TempDir(), "results.json")
	var stdout bytes.Buffer
	require.NoError(t, run([]string{"-q", "wall clock", "-out", out}, &stdout))

	var doc struct {
		Results  []map[string]interface{} `json:"results"`
		Warnings []string                 `json:"warnings"`
	}
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Results, 2)
	assert.Len(t, doc.Warnings, 2)
}

func TestEndToEndMissingQuery(t *testing.T) {
	srv, _ := newMarketServer(t)
	setTestEnv(t, srv.URL)

	err := run([]string{"-out", filepath.Join(t.TempDir(), "x.json")}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, scouterrors.Is(err, scouterrors.ErrorTypeConfiguration))
}
