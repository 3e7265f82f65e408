package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CurrencySymbol maps a symbol or code found in price text to a currency code
type CurrencySymbol struct {
	Symbol string
	Code   string
}

// Synonym maps a substring of the base phrase to replacement words
type Synonym struct {
	Word         string
	Replacements []string
}

// Config represents the application configuration
type Config struct {
	// Reference currency all amounts are normalized to
	ReferenceCurrency string
	ReferenceSymbol   string

	// Query expansion
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	MaxVariants   int

	// Collection
	MaxQueries        int
	MaxResultsPerSite int
	Workers           int
	FetchTimeout      time.Duration
	FetchMode         string
	Headless          bool
	ChromeDBAddr      string
	AmazonURL         string
	FlipkartURL       string
	RetryFailedCells  bool
	SiteBlockTime     time.Duration

	// Exchange rates
	ExchangeAPIBase   string
	RateTimeout       time.Duration
	RateLookupsPerSec float64
	RateMemoTTL       time.Duration

	// Memcache configuration (optional)
	MemcacheAddr string

	// Redis configuration (optional)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Fixed lookup tables
	CurrencySymbols []CurrencySymbol
	DomainHints     map[string]string
	Suffixes        []string
	Synonyms        []Synonym

	// Environment
	Environment string
}

// Fetch modes
const (
	FetchModeRod      = "rod"
	FetchModeHTTP     = "http"
	FetchModeChromeDB = "chromedb"
)

// Default returns a configuration populated with defaults only
func Default() *Config {
	return &Config{
		ReferenceCurrency:    "INR",
		ReferenceSymbol:      "₹",
		OpenAIModel:          "gpt-3.5-turbo",
		MaxVariants:          6,
		MaxQueries:           3,
		MaxResultsPerSite:    6,
		Workers:              4,
		FetchTimeout:         60 * time.Second,
		FetchMode:            FetchModeRod,
		Headless:             false,
		AmazonURL:            "https://www.amazon.in",
		FlipkartURL:          "https://www.flipkart.com",
		SiteBlockTime:        300 * time.Second,
		ExchangeAPIBase:      "https://api.exchangerate.host",
		RateTimeout:          8 * time.Second,
		RateLookupsPerSec:    10,
		RateMemoTTL:          time.Hour,
		RedisStream:          "productscout",
		RedisStreamMaxLength: 1000,
		CurrencySymbols:      DefaultCurrencySymbols(),
		DomainHints:          DefaultDomainHints(),
		Suffixes:             DefaultSuffixes(),
		Synonyms:             DefaultSynonyms(),
		Environment:          "development",
	}
}

// DefaultCurrencySymbols returns the symbol table in match priority order
func DefaultCurrencySymbols() []CurrencySymbol {
	return []CurrencySymbol{
		{Symbol: "₹", Code: "INR"},
		{Symbol: "Rs", Code: "INR"},
		{Symbol: "INR", Code: "INR"},
		{Symbol: "$", Code: "USD"},
		{Symbol: "USD", Code: "USD"},
		{Symbol: "US$", Code: "USD"},
		{Symbol: "£", Code: "GBP"},
		{Symbol: "GBP", Code: "GBP"},
		{Symbol: "€", Code: "EUR"},
		{Symbol: "EUR", Code: "EUR"},
	}
}

// DefaultDomainHints returns the host to currency hints
func DefaultDomainHints() map[string]string {
	return map[string]string{
		"amazon.in":        "INR",
		"www.amazon.in":    "INR",
		"amazon.com":       "USD",
		"www.amazon.com":   "USD",
		"flipkart.com":     "INR",
		"www.flipkart.com": "INR",
	}
}

// DefaultSuffixes returns the heuristic expansion suffixes
func DefaultSuffixes() []string {
	return []string{"for home decor", "for living room", "decorative", "handmade", "rustic", "vintage", "modern"}
}

// DefaultSynonyms returns the heuristic synonym table
func DefaultSynonyms() []Synonym {
	return []Synonym{
		{Word: "sofa", Replacements: []string{"couch"}},
		{Word: "rug", Replacements: []string{"carpet"}},
		{Word: "mirror", Replacements: []string{"wall mirror"}},
		{Word: "lamp", Replacements: []string{"table lamp", "floor lamp"}},
		{Word: "clock", Replacements: []string{"wall clock", "decorative clock"}},
	}
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	cfg := Default()

	cfg.ReferenceCurrency = strings.ToUpper(getEnv("REFERENCE_CURRENCY", cfg.ReferenceCurrency))
	cfg.ReferenceSymbol = getEnv("REFERENCE_SYMBOL", cfg.ReferenceSymbol)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.MaxVariants = getEnvInt("MAX_VARIANTS", cfg.MaxVariants)
	cfg.MaxQueries = getEnvInt("MAX_QUERIES", cfg.MaxQueries)
	cfg.MaxResultsPerSite = getEnvInt("MAX_RESULTS_PER_SITE", cfg.MaxResultsPerSite)
	cfg.Workers = getEnvInt("WORKERS", cfg.Workers)
	cfg.FetchTimeout = time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", int(cfg.FetchTimeout/time.Second))) * time.Second
	cfg.FetchMode = strings.ToLower(getEnv("FETCH_MODE", cfg.FetchMode))
	cfg.Headless = getEnvBool("HEADLESS", cfg.Headless)
	cfg.ChromeDBAddr = getEnv("CHROMEDB_ADDR", "")
	cfg.AmazonURL = getEnv("AMAZON_URL", cfg.AmazonURL)
	cfg.FlipkartURL = getEnv("FLIPKART_URL", cfg.FlipkartURL)
	cfg.RetryFailedCells = getEnvBool("RETRY_FAILED_CELLS", cfg.RetryFailedCells)
	cfg.SiteBlockTime = time.Duration(getEnvInt("SITE_BLOCK_SECONDS", int(cfg.SiteBlockTime/time.Second))) * time.Second
	cfg.ExchangeAPIBase = getEnv("EXCHANGE_API_BASE", cfg.ExchangeAPIBase)
	cfg.RateTimeout = time.Duration(getEnvInt("RATE_TIMEOUT_SECONDS", int(cfg.RateTimeout/time.Second))) * time.Second
	cfg.RateLookupsPerSec = getEnvFloat("RATE_LOOKUPS_PER_SECOND", cfg.RateLookupsPerSec)
	cfg.RateMemoTTL = time.Duration(getEnvInt("RATE_MEMO_TTL_SECONDS", int(cfg.RateMemoTTL/time.Second))) * time.Second
	cfg.MemcacheAddr = getEnv("MEMCACHE_ADDR", "")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.RedisStream = getEnv("REDIS_STREAM", cfg.RedisStream)
	cfg.RedisStreamMaxLength = getEnvInt("REDIS_STREAM_MAX_LENGTH", cfg.RedisStreamMaxLength)
	cfg.Environment = getEnv("SCOUT_ENVIRONMENT", cfg.Environment)

	return cfg
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if len(c.ReferenceCurrency) != 3 {
		return fmt.Errorf("reference currency must be a 3-letter code, got %q", c.ReferenceCurrency)
	}
	if c.MaxVariants <= 0 {
		return fmt.Errorf("MAX_VARIANTS must be positive, got %d", c.MaxVariants)
	}
	if c.MaxQueries <= 0 {
		return fmt.Errorf("MAX_QUERIES must be positive, got %d", c.MaxQueries)
	}
	if c.MaxResultsPerSite <= 0 {
		return fmt.Errorf("MAX_RESULTS_PER_SITE must be positive, got %d", c.MaxResultsPerSite)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if c.FetchTimeout <= 0 || c.RateTimeout <= 0 {
		return fmt.Errorf("fetch and rate timeouts must be positive")
	}
	switch c.FetchMode {
	case FetchModeRod, FetchModeHTTP:
	case FetchModeChromeDB:
		if c.ChromeDBAddr == "" {
			return fmt.Errorf("CHROMEDB_ADDR is required when FETCH_MODE is %q", FetchModeChromeDB)
		}
	default:
		return fmt.Errorf("unknown FETCH_MODE %q", c.FetchMode)
	}
	return nil
}

// HasLanguageModel reports whether remote query expansion is configured
func (c *Config) HasLanguageModel() bool {
	return c.OpenAIAPIKey != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
