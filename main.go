package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sjsage522/productscout/config"
	"sjsage522/productscout/internal/crawler"
	"sjsage522/productscout/internal/pipeline"
	"sjsage522/productscout/internal/rates"
	"sjsage522/productscout/logger"
	scouterrors "sjsage522/productscout/pkg/errors"
	"sjsage522/productscout/services/cache"
	"sjsage522/productscout/services/publisher"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Fatal("Product search failed: %v", err)
	}
}

// options are the command line inputs of one run
type options struct {
	query    string
	min      *float64
	max      *float64
	headless bool
	out      string
}

// parseFlags parses args; HEADLESS from the environment sets the default
// for -headless.
func parseFlags(args []string, cfg *config.Config) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("productscout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.query, "query", "", "Item name to search for")
	fs.StringVar(&opts.query, "q", "", "Item name to search for (shorthand)")
	fs.Func("min", "Minimum price in the reference currency", floatFlag(&opts.min))
	fs.Func("max", "Maximum price in the reference currency", floatFlag(&opts.max))
	fs.BoolVar(&opts.headless, "headless", cfg.Headless, "Run the browser headless (default: visible)")
	fs.StringVar(&opts.out, "out", "results.json", "Output JSON file")

	if err := fs.Parse(args); err != nil {
		return nil, scouterrors.NewConfiguration("invalid arguments", err)
	}
	if opts.query == "" {
		return nil, scouterrors.NewConfiguration("--query is required", nil)
	}
	return opts, nil
}

func floatFlag(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%q is not a finite number", s)
		}
		*dst = &v
		return nil
	}
}

func run(args []string, stdout io.Writer) error {
	log := logger.ForPipeline()

	// Load and validate configuration
	cfg := config.LoadConfig()
	opts, err := parseFlags(args, cfg)
	if err != nil {
		return err
	}
	cfg.Headless = opts.headless
	if err := cfg.Validate(); err != nil {
		return scouterrors.NewConfiguration("invalid configuration", err)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("fetch_mode", cfg.FetchMode).
		Bool("headless", cfg.Headless).
		Bool("language_model", cfg.HasLanguageModel()).
		Msg("Starting product search")

	// Set up context with cancellation on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	p := pipeline.New(cfg, pipeline.Deps{
		Fetcher:   services.Fetcher,
		Rates:     services.Rates,
		Publisher: services.Publisher,
	})

	start := time.Now()
	result, err := p.Run(ctx, pipeline.Request{Item: opts.query, Min: opts.min, Max: opts.max})
	if err != nil {
		return err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("Pipeline completed")

	if err := pipeline.WriteJSON(opts.out, result); err != nil {
		return err
	}
	pipeline.PrintSummary(stdout, result, opts.out)
	return nil
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Fetcher   crawler.Fetcher
	Rates     pipeline.RateBuilder
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if closer, ok := s.Fetcher.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close fetcher: %v", err)
		}
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices wires the optional backends. Memcache and Redis are
// best effort: an unreachable server downgrades to the in-memory cache or
// no publishing.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	// Initialize cache service
	services.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr, time.Second)
		if err := memcacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-memory cache")
		} else {
			services.Cache = memcacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	services.Fetcher = newFetcher(cfg, services.Cache)

	lookup := rates.NewCachedLookup(
		rates.NewExchangeHostClient(cfg.ExchangeAPIBase, cfg.ReferenceCurrency, cfg.RateTimeout, cfg.RateLookupsPerSec),
		services.Cache,
		cfg.ReferenceCurrency,
		cfg.RateMemoTTL,
	)
	services.Rates = rates.NewBuilder(cfg.ReferenceCurrency, lookup, cfg.Workers)

	// Initialize publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, results will not be published")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}

func newFetcher(cfg *config.Config, cacheSvc cache.CacheService) crawler.Fetcher {
	switch cfg.FetchMode {
	case config.FetchModeHTTP:
		return crawler.NewHTTPFetcher(cacheSvc, cfg.SiteBlockTime)
	case config.FetchModeChromeDB:
		return crawler.NewChromeDBFetcher(cfg.ChromeDBAddr, cacheSvc, cfg.SiteBlockTime)
	default:
		return crawler.NewRodFetcher(cfg.Headless)
	}
}

