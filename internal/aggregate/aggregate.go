// Package aggregate merges collected candidates, projects their prices into
// the reference currency and ranks them.
package aggregate

import (
	"strings"

	"github.com/google/uuid"

	"sjsage522/productscout/internal/crawler"
)

// Aggregate merges candidate lists into a unique list in first-seen order.
// Identity is the url when present, else the title; records with neither
// get a synthetic key and are always kept.
func Aggregate(lists ...[]crawler.RawCandidate) []crawler.RawCandidate {
	seen := make(map[string]bool)
	out := []crawler.RawCandidate{}
	for _, list := range lists {
		for _, c := range list {
			key := identity(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

func identity(c crawler.RawCandidate) string {
	if u := strings.TrimSpace(c.URL); u != "" {
		return "url:" + u
	}
	if t := strings.TrimSpace(c.Title); t != "" {
		return "title:" + t
	}
	return "synthetic:" + uuid.NewString()
}
