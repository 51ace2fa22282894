// Package search implements the multi-engine web search chain: Google
// Custom Search and Brave when keys exist, then DuckDuckGo scraping in
// several flavors, then a parallel stealth sweep of DDG, Bing, and
// Ecosia. Results are normalized and deduplicated across engines.
package search

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"webpeel/internal/content"
	"webpeel/internal/model"
)

const (
	maxTitleLen   = 200
	maxSnippetLen = 500
)

// DecodeRedirect unwraps engine redirect wrappers: DDG's uddg parameter
// and Google's /url?q= indirection. Other URLs pass through.
func DecodeRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// Protocol-relative DDG links.
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if strings.Contains(u.Host, "duckduckgo.com") {
		if uddg := u.Query().Get("uddg"); uddg != "" {
			if decoded, err := url.QueryUnescape(uddg); err == nil {
				return decoded
			}
			return uddg
		}
	}
	if strings.Contains(u.Host, "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	}
	return raw
}

// Normalize validates and clamps a raw hit. It returns false for
// non-http(s) or empty URLs.
func Normalize(title, rawURL, snippet string) (model.SearchResult, bool) {
	decoded := DecodeRedirect(rawURL)
	u, err := url.Parse(decoded)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.SearchResult{}, false
	}

	title = clamp(strings.TrimSpace(title), maxTitleLen)

	snippet = strings.TrimSpace(snippet)
	snippet = strings.Trim(snippet, "…")
	snippet = strings.TrimPrefix(snippet, "...")
	snippet = strings.TrimSuffix(snippet, "...")
	snippet = clamp(strings.TrimSpace(snippet), maxSnippetLen)

	return model.SearchResult{Title: title, URL: u.String(), Snippet: snippet}, true
}

// clamp bounds s to max bytes, backing the cut up so a multi-byte rune
// is never split.
func clamp(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Dedupe drops results sharing a normalized URL key, preserving order
// so earlier engines dominate ties.
func Dedupe(results []model.SearchResult) []model.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		key := content.NormalizeURL(r.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
