package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sjsage522/productscout/helpers"
	"sjsage522/productscout/logger"
	scouterrors "sjsage522/productscout/pkg/errors"
	"sjsage522/productscout/services/cache"
)

// ChromeDBStrategy is one way of asking a browserless instance for a page
type ChromeDBStrategy struct {
	Name      string
	WaitUntil string
	TimeoutMS int
}

// DefaultChromeDBStrategies are tried in order; the first HTML answer wins
var DefaultChromeDBStrategies = []ChromeDBStrategy{
	// Network idle (best for dynamic content)
	{Name: "networkidle-content", WaitUntil: "networkidle0", TimeoutMS: 45000},
	// Basic load (faster, works for static content)
	{Name: "basic-content", WaitUntil: "load", TimeoutMS: 20000},
}

// ChromeDBFetcher renders pages through a remote browserless /content endpoint
type ChromeDBFetcher struct {
	Addr       string
	Strategies []ChromeDBStrategy
	CacheSvc   cache.CacheService
	BlockTime  time.Duration
	client     *http.Client
}

// NewChromeDBFetcher creates a fetcher for the browserless instance at addr
func NewChromeDBFetcher(addr string, cacheSvc cache.CacheService, blockTime time.Duration) *ChromeDBFetcher {
	return &ChromeDBFetcher{
		Addr:       strings.TrimRight(addr, "/"),
		Strategies: DefaultChromeDBStrategies,
		CacheSvc:   cacheSvc,
		BlockTime:  blockTime,
		client:     &http.Client{},
	}
}

// Fetch implements Fetcher
func (c *ChromeDBFetcher) Fetch(ctx context.Context, req FetchRequest) (io.Reader, error) {
	if blocked(c.CacheSvc, req.CacheKey) {
		return nil, scouterrors.NewRateLimit(req.CacheKey, c.BlockTime)
	}

	log := logger.ForFetcher("chromedb").WithField("url", req.URL)
	var lastErr error
	for i, strategy := range c.Strategies {
		log.Debug().Str("strategy", strategy.Name).Msgf("Trying ChromeDB strategy %d/%d", i+1, len(c.Strategies))

		reader, err := c.executeStrategy(ctx, req, strategy)
		if err == nil {
			return reader, nil
		}
		lastErr = err
		if scouterrors.Is(err, scouterrors.ErrorTypeRateLimit) {
			block(c.CacheSvc, req.CacheKey, c.BlockTime)
			return nil, err
		}
		if ctx.Err() != nil {
			break
		}
		log.Debug().Err(err).Str("strategy", strategy.Name).Msg("ChromeDB strategy failed")
	}

	return nil, scouterrors.NewNetwork(req.URL, "all ChromeDB strategies failed", lastErr)
}

// executeStrategy executes a single ChromeDB strategy
func (c *ChromeDBFetcher) executeStrategy(ctx context.Context, req FetchRequest, strategy ChromeDBStrategy) (io.Reader, error) {
	payload := map[string]interface{}{
		"url": req.URL,
		"gotoOptions": map[string]interface{}{
			"waitUntil": strategy.WaitUntil,
			"timeout":   strategy.TimeoutMS,
		},
		"userAgent": helpers.RandomUserAgent(),
	}
	if req.ReadySelector != "" {
		payload["waitForSelector"] = map[string]interface{}{
			"selector": req.ReadySelector,
			"timeout":  strategy.TimeoutMS,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Addr+"/content", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, scouterrors.NewRateLimit(req.CacheKey, c.BlockTime)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !looksLikeHTML(body) {
		return nil, fmt.Errorf("response doesn't appear to be valid HTML (%d bytes)", len(body))
	}
	return helpers.ToUTF8(body, resp.Header.Get("Content-Type"))
}

func looksLikeHTML(data []byte) bool {
	if len(data) < 50 {
		return false
	}
	lower := strings.ToLower(string(data))
	return strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<!doctype") ||
		strings.Contains(lower, "<body")
}
