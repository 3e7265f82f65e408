// Package expand turns one item name into several search phrases.
package expand

import (
	"context"
	"strings"

	"sjsage522/productscout/config"
	"sjsage522/productscout/helpers"
	"sjsage522/productscout/logger"
)

// Expander produces search phrases for an item name
type Expander interface {
	Expand(ctx context.Context, item string, max int) ([]string, error)
}

// Engine tries the remote expander first and falls back to the heuristic
// one on any failure. It never returns an error.
type Engine struct {
	remote    Expander
	heuristic *HeuristicExpander
	log       *logger.Logger
}

// NewEngine creates an engine. remote may be nil.
func NewEngine(remote Expander, heuristic *HeuristicExpander) *Engine {
	return &Engine{
		remote:    remote,
		heuristic: heuristic,
		log:       logger.ForExpander(),
	}
}

// NewEngineFromConfig selects the remote expander when a credential is set
func NewEngineFromConfig(cfg *config.Config) *Engine {
	heuristic := NewHeuristicExpander(cfg.Suffixes, cfg.Synonyms)
	if !cfg.HasLanguageModel() {
		return NewEngine(nil, heuristic)
	}
	return NewEngine(NewOpenAIExpander(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), heuristic)
}

// Expand returns at most max distinct phrases, the first being item itself
func (e *Engine) Expand(ctx context.Context, item string, max int) []string {
	base := helpers.CollapseSpaces(item)
	if base == "" || max <= 0 {
		return []string{}
	}

	if e.remote != nil {
		phrases, err := e.remote.Expand(ctx, base, max)
		if err == nil && len(phrases) > 0 {
			return Dedupe(append([]string{base}, phrases...), max)
		}
		e.log.Warn().Err(err).Str("item", base).Msg("Remote expansion failed, falling back to heuristic")
	} else {
		e.log.Info().Msg("No language model configured, using heuristic query expansion")
	}

	phrases, _ := e.heuristic.Expand(ctx, base, max)
	return phrases
}

// Dedupe collapses whitespace, drops empty and repeated phrases keeping
// first-seen order, and caps the result at max.
func Dedupe(phrases []string, max int) []string {
	seen := make(map[string]bool, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = helpers.CollapseSpaces(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		out = append(out, p)
		if len(out) >= max {
			break
		}
	}
	return out
}
