package search

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// CachedPage is search-as-proxy output: whatever the search engines
// retained about a blocked URL, never suitable as primary content.
type CachedPage struct {
	Title         string
	CachedContent string
	Source        string
}

// FetchCached attempts to reconstruct a blocked page from search engine
// caches. The top three result titles and snippets are concatenated
// into a minimal markdown document. Returns nil when every engine came
// up empty.
func (c *Chain) FetchCached(ctx context.Context, rawURL string) *CachedPage {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	query := cacheQuery(u)
	results := c.SearchWeb(ctx, query, 3)
	if len(results) == 0 {
		// Bare host fallback when the path-scoped query found nothing.
		results = c.SearchWeb(ctx, strings.TrimPrefix(u.Hostname(), "www."), 3)
	}
	if len(results) == 0 {
		return nil
	}

	var b strings.Builder
	title := results[0].Title
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, r := range results {
		fmt.Fprintf(&b, "## %s\n%s\n\n", r.Title, r.Snippet)
	}

	return &CachedPage{
		Title:         title,
		CachedContent: strings.TrimSpace(b.String()),
		Source:        "search-engine-cache",
	}
}

// cacheQuery builds a site-scoped query from the URL's host and the
// path with its extension stripped.
func cacheQuery(u *url.URL) string {
	host := strings.TrimPrefix(u.Hostname(), "www.")
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return "site:" + host
	}
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.NewReplacer("/", " ", "-", " ", "_", " ").Replace(p)
	return fmt.Sprintf("site:%s %s", host, strings.TrimSpace(p))
}
