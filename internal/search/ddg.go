package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const (
	ddgHTMLBase = "https://html.duckduckgo.com/html/"
	ddgLiteBase = "https://lite.duckduckgo.com/lite/"

	chromeSearchUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	firefoxSearchUA = "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0"
)

// compound-word suffixes tried by the split-suffix query rewrite.
var splitSuffixes = []string{"ai", "app", "hub", "lab", "labs", "io", "web", "cloud"}

// RewriteQueries produces up to six query variants tried in order until
// one returns results: the original, a quoted form, site-scoped and
// "website" forms, a bare-domain guess, and a compound-word split.
func RewriteQueries(query string) []string {
	query = strings.TrimSpace(query)
	out := []string{query}

	add := func(q string) {
		if len(out) >= 6 {
			return
		}
		for _, existing := range out {
			if existing == q {
				return
			}
		}
		out = append(out, q)
	}

	if !strings.HasPrefix(query, `"`) {
		add(`"` + query + `"`)
	}
	add(query + " site:*")
	add(query + " website")

	if !strings.ContainsAny(query, " .") {
		add(query + ".com")
		lower := strings.ToLower(query)
		for _, suffix := range splitSuffixes {
			if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix)+2 {
				add(lower[:len(lower)-len(suffix)] + " " + suffix)
				break
			}
		}
	}

	return out
}

// ddgProvider scrapes the HTML or Lite flavor of DuckDuckGo, retrying
// rewritten queries until one produces hits.
type ddgProvider struct {
	name      string
	baseURL   string
	lite      bool
	userAgent string
	client    *http.Client
}

func newDDGProvider(timeout time.Duration) *ddgProvider {
	return &ddgProvider{
		name:      "ddg-html",
		baseURL:   ddgHTMLBase,
		userAgent: chromeSearchUA,
		client:    &http.Client{Timeout: timeout},
	}
}

func newDDGLiteProvider(timeout time.Duration) *ddgProvider {
	return &ddgProvider{
		name:      "ddg-lite",
		baseURL:   ddgLiteBase,
		lite:      true,
		userAgent: chromeSearchUA,
		client:    &http.Client{Timeout: timeout},
	}
}

// newFirefoxDDGProvider re-runs the DDG HTML scrape under a Firefox
// fingerprint, which bypasses Chromium-specific IP blocks.
func newFirefoxDDGProvider(timeout time.Duration) *ddgProvider {
	return &ddgProvider{
		name:      "ddg-firefox",
		baseURL:   ddgHTMLBase,
		userAgent: firefoxSearchUA,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *ddgProvider) Name() string { return p.name }

func (p *ddgProvider) Search(ctx context.Context, query string, count int) ([]rawHit, error) {
	var lastErr error
	for _, q := range RewriteQueries(query) {
		hits, err := p.searchOnce(ctx, q, count)
		if err != nil {
			lastErr = err
			continue
		}
		if len(hits) > 0 {
			return hits, nil
		}
		log.Debug().Str("engine", p.name).Str("query", q).Msg("no results, trying next rewrite")
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

func (p *ddgProvider) searchOnce(ctx context.Context, query string, count int) ([]rawHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", p.name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	if p.lite {
		return parseDDGLite(doc, count), nil
	}
	return parseDDGHTML(doc, count), nil
}

func parseDDGHTML(doc *goquery.Document, count int) []rawHit {
	var hits []rawHit
	doc.Find(".result__body").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())
		if href != "" && title != "" {
			hits = append(hits, rawHit{Title: title, URL: href, Snippet: snippet})
		}
		return count <= 0 || len(hits) < count
	})
	return hits
}

// parseDDGLite handles the table-layout variant: result links and
// snippet rows alternate inside a shared table.
func parseDDGLite(doc *goquery.Document, count int) []rawHit {
	var hits []rawHit
	doc.Find("a.result-link").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(link.Text())
		snippet := ""
		if row := link.Closest("tr"); row.Length() > 0 {
			snippet = strings.TrimSpace(row.NextFiltered("tr").Find(".result-snippet").Text())
			if snippet == "" {
				snippet = strings.TrimSpace(row.NextFiltered("tr").Text())
			}
		}
		if href != "" && title != "" {
			hits = append(hits, rawHit{Title: title, URL: href, Snippet: snippet})
		}
		return count <= 0 || len(hits) < count
	})
	return hits
}
