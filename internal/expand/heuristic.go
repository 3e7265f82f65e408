package expand

import (
	"context"
	"strings"

	"sjsage522/productscout/config"
)

// HeuristicExpander decorates the item name with fixed suffixes and
// substitutes synonyms found in it.
type HeuristicExpander struct {
	suffixes []string
	synonyms []config.Synonym
}

// NewHeuristicExpander creates a heuristic expander from lookup tables
func NewHeuristicExpander(suffixes []string, synonyms []config.Synonym) *HeuristicExpander {
	return &HeuristicExpander{suffixes: suffixes, synonyms: synonyms}
}

// Expand is deterministic and never fails
func (h *HeuristicExpander) Expand(_ context.Context, item string, max int) ([]string, error) {
	base := strings.TrimSpace(item)
	variants := []string{base}

	for _, suffix := range h.suffixes {
		variants = append(variants, base+" "+suffix)
	}

	lower := strings.ToLower(base)
	for _, syn := range h.synonyms {
		if !strings.Contains(lower, syn.Word) {
			continue
		}
		for _, replacement := range syn.Replacements {
			variants = append(variants, strings.ReplaceAll(lower, syn.Word, replacement))
		}
	}

	return Dedupe(variants, max), nil
}
