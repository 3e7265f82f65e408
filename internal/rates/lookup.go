package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sjsage522/productscout/helpers"
	"sjsage522/productscout/logger"
	scouterrors "sjsage522/productscout/pkg/errors"
	"sjsage522/productscout/services/cache"
)

// Lookup resolves the multiplier that converts one unit of code into the
// reference currency.
type Lookup interface {
	LookupRate(ctx context.Context, code string) (float64, error)
}

// ExchangeHostClient queries an exchangerate.host compatible API
type ExchangeHostClient struct {
	httpClient  *http.Client
	baseURL     string
	reference   string
	timeout     time.Duration
	rateLimiter *rate.Limiter
}

// NewExchangeHostClient creates a client paced at perSecond requests per second
func NewExchangeHostClient(baseURL, reference string, timeout time.Duration, perSecond float64) *ExchangeHostClient {
	if perSecond <= 0 {
		perSecond = 10
	}
	return &ExchangeHostClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		reference:   strings.ToUpper(reference),
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

type convertResponse struct {
	Result *float64 `json:"result"`
}

// LookupRate tries /latest first and falls back to /convert when the
// reference currency is missing from the response.
func (c *ExchangeHostClient) LookupRate(ctx context.Context, code string) (float64, error) {
	code = strings.ToUpper(code)

	params := url.Values{}
	params.Add("base", code)
	params.Add("symbols", c.reference)
	params.Add("places", "6")

	var latest latestResponse
	if err := c.getJSON(ctx, "/latest", params, &latest); err != nil {
		return 0, scouterrors.NewConversion(code, "latest rate request failed", err)
	}
	if r, ok := latest.Rates[c.reference]; ok && r > 0 {
		return r, nil
	}

	params = url.Values{}
	params.Add("from", code)
	params.Add("to", c.reference)
	params.Add("amount", "1")

	var converted convertResponse
	if err := c.getJSON(ctx, "/convert", params, &converted); err != nil {
		return 0, scouterrors.NewConversion(code, "convert request failed", err)
	}
	if converted.Result == nil || *converted.Result <= 0 {
		return 0, scouterrors.NewConversion(code, "no rate in response", nil)
	}
	return *converted.Result, nil
}

func (c *ExchangeHostClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	// Wait for rate limiter
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", helpers.RandomUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scouterrors.NewNetwork(path, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CachedLookup memoizes another Lookup in a CacheService. Cache failures
// fall through to the wrapped lookup.
type CachedLookup struct {
	next      Lookup
	cache     cache.CacheService
	reference string
	ttl       time.Duration
	log       *logger.Logger
}

// NewCachedLookup wraps next with memoization under keys fx:<CODE>:<REF>
func NewCachedLookup(next Lookup, cacheSvc cache.CacheService, reference string, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:      next,
		cache:     cacheSvc,
		reference: strings.ToUpper(reference),
		ttl:       ttl,
		log:       logger.ForCache(),
	}
}

func (c *CachedLookup) key(code string) string {
	return "fx:" + strings.ToUpper(code) + ":" + c.reference
}

// LookupRate returns the memoized rate or resolves and stores it
func (c *CachedLookup) LookupRate(ctx context.Context, code string) (float64, error) {
	key := c.key(code)
	if data, err := c.cache.Get(key); err == nil {
		if r, perr := strconv.ParseFloat(string(data), 64); perr == nil && r > 0 {
			return r, nil
		}
	}

	r, err := c.next.LookupRate(ctx, code)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(key, []byte(strconv.FormatFloat(r, 'f', -1, 64)), c.ttl); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("Failed to memoize rate")
	}
	return r, nil
}
