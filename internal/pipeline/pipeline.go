// Package pipeline sequences expansion, collection, conversion and ranking
// for one item name.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"sjsage522/productscout/config"
	"sjsage522/productscout/internal/aggregate"
	"sjsage522/productscout/internal/crawler"
	"sjsage522/productscout/internal/expand"
	"sjsage522/productscout/internal/rates"
	"sjsage522/productscout/logger"
	scouterrors "sjsage522/productscout/pkg/errors"
	"sjsage522/productscout/services/publisher"
	"sjsage522/productscout/services/worker"
)

// State is a pipeline run state
type State string

const (
	StateInit       State = "INIT"
	StateExpanding  State = "EXPANDING"
	StateCollecting State = "COLLECTING"
	StateConverting State = "CONVERTING"
	StateRanking    State = "RANKING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// publishKey is the stream field carrying the base64 result document
const publishKey = "b64_results"

// QueryExpander produces the search phrases for an item
type QueryExpander interface {
	Expand(ctx context.Context, item string, max int) []string
}

// RateBuilder resolves the rate cache for the observed currencies
type RateBuilder interface {
	Build(ctx context.Context, codes []string) *rates.Cache
}

// Request is one pipeline invocation. Nil bounds are open.
type Request struct {
	Item string
	Min  *float64
	Max  *float64
}

// Result is the document written at the end of a run
type Result struct {
	Item          string                          `json:"item"`
	QueriesUsed   []string                        `json:"queries_used"`
	RawCandidates []crawler.RawCandidate          `json:"raw_candidates"`
	RatesCache    *rates.Cache                    `json:"rates_cache"`
	Results       []aggregate.NormalizedCandidate `json:"results"`
	Warnings      []string                        `json:"warnings"`
}

// Deps are the collaborators of a Pipeline. Nil fields get defaults built
// from the configuration, except Publisher which stays disabled.
type Deps struct {
	Expander  QueryExpander
	Sites     []*crawler.Adapter
	Fetcher   crawler.Fetcher
	Rates     RateBuilder
	Publisher publisher.Publisher
}

// Pipeline runs the discovery pipeline with an injected configuration
type Pipeline struct {
	cfg        *config.Config
	expander   QueryExpander
	sites      []*crawler.Adapter
	fetcher    crawler.Fetcher
	rates      RateBuilder
	publisher  publisher.Publisher
	normalizer *aggregate.Normalizer
	pool       *worker.Pool
	log        *logger.Logger

	mu    sync.Mutex
	state State
}

// New creates a pipeline
func New(cfg *config.Config, deps Deps) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		expander:   deps.Expander,
		sites:      deps.Sites,
		fetcher:    deps.Fetcher,
		rates:      deps.Rates,
		publisher:  deps.Publisher,
		normalizer: aggregate.NewNormalizer(cfg),
		pool:       worker.NewPool(cfg.Workers),
		log:        logger.ForPipeline(),
		state:      StateInit,
	}
	if p.expander == nil {
		p.expander = expand.NewEngineFromConfig(cfg)
	}
	if p.sites == nil {
		p.sites = crawler.DefaultSites(cfg)
	}
	if p.fetcher == nil {
		p.fetcher = crawler.NewHTTPFetcher(nil, cfg.SiteBlockTime)
	}
	if p.rates == nil {
		lookup := rates.NewExchangeHostClient(cfg.ExchangeAPIBase, cfg.ReferenceCurrency, cfg.RateTimeout, cfg.RateLookupsPerSec)
		p.rates = rates.NewBuilder(cfg.ReferenceCurrency, lookup, cfg.Workers)
	}
	return p
}

// State returns the current run state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) transition(s State) {
	p.mu.Lock()
	from := p.state
	p.state = s
	p.mu.Unlock()
	p.log.Debug().Str("from", string(from)).Str("to", string(s)).Msg("State transition")
}

// Run executes one pipeline invocation. Only configuration errors are
// returned; every collection or conversion failure degrades the result.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	p.transition(StateInit)
	item := strings.TrimSpace(req.Item)
	if err := p.validate(item, req); err != nil {
		p.transition(StateFailed)
		return nil, err
	}

	res := &Result{
		Item:          item,
		QueriesUsed:   []string{},
		RawCandidates: []crawler.RawCandidate{},
		Results:       []aggregate.NormalizedCandidate{},
		Warnings:      []string{},
	}
	var warnMu sync.Mutex
	warn := func(msg string) {
		warnMu.Lock()
		res.Warnings = append(res.Warnings, msg)
		warnMu.Unlock()
	}

	p.transition(StateExpanding)
	queries := p.expander.Expand(ctx, item, p.cfg.MaxVariants)
	if len(queries) > p.cfg.MaxQueries {
		queries = queries[:p.cfg.MaxQueries]
	}
	res.QueriesUsed = append(res.QueriesUsed, queries...)
	p.log.Info().Strs("queries", res.QueriesUsed).Msg("Queries expanded")

	p.transition(StateCollecting)
	res.RawCandidates = aggregate.Aggregate(p.collect(ctx, queries, warn)...)
	p.log.Info().Int("unique", len(res.RawCandidates)).Msg("Candidates collected")

	p.transition(StateConverting)
	codes := p.normalizer.Currencies(res.RawCandidates)
	res.RatesCache = p.rates.Build(ctx, codes)
	for _, code := range res.RatesCache.Unresolved {
		warn(fmt.Sprintf("exchange rate for %s unresolved", code))
	}
	normalized := p.normalizer.Normalize(res.RawCandidates, res.RatesCache)

	p.transition(StateRanking)
	res.Results = aggregate.FilterAndRank(normalized, req.Min, req.Max)

	p.transition(StateDone)
	p.log.Info().
		Int("results", len(res.Results)).
		Int("warnings", len(res.Warnings)).
		Msg("Pipeline finished")

	p.publish(ctx, res)
	return res, nil
}

func (p *Pipeline) validate(item string, req Request) error {
	if item == "" {
		return scouterrors.NewConfiguration("item name is required", nil)
	}
	if err := p.cfg.Validate(); err != nil {
		return scouterrors.NewConfiguration("invalid configuration", err)
	}
	if !finiteBound(req.Min) || !finiteBound(req.Max) {
		return scouterrors.NewConfiguration("price bounds must be finite numbers", nil)
	}
	if (req.Min != nil && *req.Min < 0) || (req.Max != nil && *req.Max < 0) {
		return scouterrors.NewConfiguration("price bounds must be non-negative", nil)
	}
	if req.Min != nil && req.Max != nil && *req.Min > *req.Max {
		return scouterrors.NewConfiguration(fmt.Sprintf("min %.2f exceeds max %.2f", *req.Min, *req.Max), nil)
	}
	return nil
}

func finiteBound(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}

// collect runs the (query × site) matrix. Results are returned in
// query-major order regardless of completion order. Every failed slot,
// including panicked and never-started cells, is reported through warn.
func (p *Pipeline) collect(ctx context.Context, queries []string, warn func(string)) [][]crawler.RawCandidate {
	cells := make([][]crawler.RawCandidate, len(queries)*len(p.sites))
	tasks := make([]worker.Task, 0, len(cells))

	for _, query := range queries {
		for _, site := range p.sites {
			slot := len(tasks)
			tasks = append(tasks, worker.Task{
				Name: fmt.Sprintf("%s/%s", site.Platform, query),
				Run: func(ctx context.Context) error {
					found, err := p.collectCell(ctx, site, query)
					if err != nil {
						return err
					}
					logger.ForSite(string(site.Platform)).Info().
						Str("query", query).
						Int("candidates", len(found)).
						Msg("Cell collected")
					cells[slot] = found
					return nil
				},
			})
		}
	}

	errs := p.pool.Run(ctx, tasks)
	for slot, err := range errs {
		if err == nil {
			continue
		}
		site := p.sites[slot%len(p.sites)]
		query := queries[slot/len(p.sites)]
		logger.ForSite(string(site.Platform)).Warn().
			Err(err).
			Str("query", query).
			Msg("Cell failed, contributing no candidates")
		warn(fmt.Sprintf("%s failed for %q: %v", site.Platform.DisplayName(), query, err))
	}
	return cells
}

// collectCell fetches one cell under its own timeout, retrying once when
// enabled and the failure is worth retrying.
func (p *Pipeline) collectCell(ctx context.Context, site *crawler.Adapter, query string) ([]crawler.RawCandidate, error) {
	found, err := p.attempt(ctx, site, query)
	if err == nil || !p.cfg.RetryFailedCells || ctx.Err() != nil || !retryable(err) {
		return found, err
	}
	logger.ForSite(string(site.Platform)).Debug().Err(err).Str("query", query).Msg("Retrying cell once")
	return p.attempt(ctx, site, query)
}

func (p *Pipeline) attempt(ctx context.Context, site *crawler.Adapter, query string) ([]crawler.RawCandidate, error) {
	cellCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()
	return site.Collect(cellCtx, p.fetcher, query, p.cfg.MaxResultsPerSite)
}

// retryable is false when any ScoutError in the chain is not retryable
func retryable(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if se, ok := e.(*scouterrors.ScoutError); ok && !se.IsRetryable() {
			return false
		}
	}
	return true
}

func (p *Pipeline) publish(ctx context.Context, res *Result) {
	if p.publisher == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to encode result for publishing")
		return
	}
	if err := p.publisher.Publish(ctx, publishKey, data); err != nil {
		logger.LogError("publisher", err, "Failed to publish result for %q", res.Item)
		return
	}
	if err := p.publisher.TrimStreams(ctx); err != nil {
		logger.ForPublisher().Warn().Err(err).Msg("Failed to trim stream")
	}
}
