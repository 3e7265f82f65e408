package crawler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"sjsage522/productscout/helpers"
	"sjsage522/productscout/logger"
	scouterrors "sjsage522/productscout/pkg/errors"
	"sjsage522/productscout/services/cache"
)

// HTTPFetcher fetches pages with plain HTTP and browser-like headers. A site
// that answers 429 is blocked for BlockTime under its cache key.
type HTTPFetcher struct {
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// NewHTTPFetcher creates an HTTP fetcher; cacheSvc may be nil
func NewHTTPFetcher(cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{CacheSvc: cacheSvc, BlockTime: blockTime}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, req FetchRequest) (io.Reader, error) {
	if blocked(f.CacheSvc, req.CacheKey) {
		return nil, scouterrors.NewRateLimit(req.CacheKey, f.BlockTime)
	}

	body, err := helpers.FetchWithRandomHeaders(ctx, req.URL)
	if err != nil {
		if strings.HasPrefix(err.Error(), helpers.ErrRateLimited) {
			block(f.CacheSvc, req.CacheKey, f.BlockTime)
			return nil, scouterrors.NewRateLimit(req.CacheKey, f.BlockTime)
		}
		return nil, scouterrors.NewNetwork(req.URL, "http fetch failed", err)
	}
	return body, nil
}

// blocked reports whether key is currently set in the cache
func blocked(cacheSvc cache.CacheService, key string) bool {
	if cacheSvc == nil || key == "" {
		return false
	}
	_, err := cacheSvc.Get(key)
	return err == nil
}

func block(cacheSvc cache.CacheService, key string, d time.Duration) {
	if cacheSvc == nil || key == "" || d <= 0 {
		return
	}
	if err := cacheSvc.Set(key, []byte(fmt.Sprintf("%d", d/time.Second)), d); err != nil {
		logger.ForCache().Warn().Err(err).Str("key", key).Msg("Failed to set rate limit block")
		return
	}
	logger.ForCache().Info().Str("key", key).Dur("block_time", d).Msg("Site rate limited, blocking")
}
