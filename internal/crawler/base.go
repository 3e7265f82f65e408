package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// applyHandlers returns the first non-empty handler result
func applyHandlers(s *goquery.Selection, handlers []ElementHandler) string {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if result := strings.TrimSpace(handler(s)); result != "" {
			return result
		}
	}
	return ""
}

// TextOf returns the trimmed text of the first element matching selector
func TextOf(selector string) ElementHandler {
	return func(s *goquery.Selection) string {
		return strings.TrimSpace(s.Find(selector).First().Text())
	}
}

// AttrOf returns attr of the first element matching selector
func AttrOf(selector, attr string) ElementHandler {
	return func(s *goquery.Selection) string {
		v, _ := s.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

// resolveURL makes href absolute against baseURL
func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return href
	}
	return base.ResolveReference(ref).String()
}
