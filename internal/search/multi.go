package search

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"webpeel/internal/fetch"
)

// serpEngine describes one scrapeable results page for the parallel
// stealth sweep. Engines are declared in priority order; aggregation
// preserves that order so earlier engines dominate dedup ties.
type serpEngine struct {
	name  string
	url   func(query string) string
	parse func(doc *goquery.Document, count int) []rawHit
}

var stealthEngines = []serpEngine{
	{
		name:  "ddg",
		url:   func(q string) string { return ddgHTMLBase + "?q=" + url.QueryEscape(q) },
		parse: parseDDGHTML,
	},
	{
		name:  "bing",
		url:   func(q string) string { return "https://www.bing.com/search?q=" + url.QueryEscape(q) },
		parse: parseBing,
	},
	{
		name:  "ecosia",
		url:   func(q string) string { return "https://www.ecosia.org/search?q=" + url.QueryEscape(q) },
		parse: parseEcosia,
	},
}

// multiProvider fans out to DDG, Bing, and Ecosia through the stealth
// browser tier, collects every engine that succeeded, and merges in
// declaration order. One engine failing never aborts the others.
type multiProvider struct {
	engine        *fetch.Engine
	perEngineTime time.Duration
}

func newMultiProvider(engine *fetch.Engine, perEngineTime time.Duration) *multiProvider {
	if perEngineTime <= 0 {
		perEngineTime = 15 * time.Second
	}
	return &multiProvider{engine: engine, perEngineTime: perEngineTime}
}

func (p *multiProvider) Name() string { return "stealth-multi" }

func (p *multiProvider) Search(ctx context.Context, query string, count int) ([]rawHit, error) {
	if p.engine == nil {
		return nil, nil
	}

	results := make([][]rawHit, len(stealthEngines))

	// all-settled semantics: errors are logged per engine, never
	// propagated through the group.
	g, gctx := errgroup.WithContext(ctx)
	for i, eng := range stealthEngines {
		i, eng := i, eng
		g.Go(func() error {
			hits, err := p.scrapeOne(gctx, eng, query, count)
			if err != nil {
				log.Debug().Err(err).Str("engine", eng.name).Msg("stealth engine failed")
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	var merged []rawHit
	for _, hits := range results {
		merged = append(merged, hits...)
	}
	return merged, nil
}

func (p *multiProvider) scrapeOne(ctx context.Context, eng serpEngine, query string, count int) ([]rawHit, error) {
	ctx, cancel := context.WithTimeout(ctx, p.perEngineTime)
	defer cancel()

	res, err := p.engine.Fetch(ctx, fetch.Request{
		URL:       eng.url(query),
		Stealth:   true,
		TimeoutMs: int(p.perEngineTime.Milliseconds()),
	})
	if err != nil {
		return nil, err
	}
	defer res.Release()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML()))
	if err != nil {
		return nil, err
	}
	return eng.parse(doc, count), nil
}

func parseBing(doc *goquery.Document, count int) []rawHit {
	var hits []rawHit
	doc.Find("li.b_algo").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("h2 a").First()
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(sel.Find(".b_caption p").First().Text())
		if snippet == "" {
			snippet = strings.TrimSpace(sel.Find("p").First().Text())
		}
		if href != "" && title != "" {
			hits = append(hits, rawHit{Title: title, URL: href, Snippet: snippet})
		}
		return count <= 0 || len(hits) < count
	})
	return hits
}

func parseEcosia(doc *goquery.Document, count int) []rawHit {
	var hits []rawHit
	doc.Find("div.result, article.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__link, a[data-test-id=result-link]").First()
		if link.Length() == 0 {
			link = sel.Find("a[href]").First()
		}
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(sel.Find(".result__title, h2").First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		snippet := strings.TrimSpace(sel.Find(".result__snippet, .result-snippet, p").First().Text())
		if href != "" && title != "" {
			hits = append(hits, rawHit{Title: title, URL: href, Snippet: snippet})
		}
		return count <= 0 || len(hits) < count
	})
	return hits
}

// googleScrapeProvider scrapes Google's result DOM through the stealth
// tier. It is the first choice when no API keys are configured.
type googleScrapeProvider struct {
	engine        *fetch.Engine
	perEngineTime time.Duration
}

func newGoogleScrapeProvider(engine *fetch.Engine, perEngineTime time.Duration) *googleScrapeProvider {
	if perEngineTime <= 0 {
		perEngineTime = 15 * time.Second
	}
	return &googleScrapeProvider{engine: engine, perEngineTime: perEngineTime}
}

func (p *googleScrapeProvider) Name() string { return "google-scrape" }

func (p *googleScrapeProvider) Search(ctx context.Context, query string, count int) ([]rawHit, error) {
	if p.engine == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.perEngineTime)
	defer cancel()

	res, err := p.engine.Fetch(ctx, fetch.Request{
		URL:       "https://www.google.com/search?q=" + url.QueryEscape(query),
		Stealth:   true,
		TimeoutMs: int(p.perEngineTime.Milliseconds()),
	})
	if err != nil {
		return nil, err
	}
	defer res.Release()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML()))
	if err != nil {
		return nil, err
	}

	var hits []rawHit
	doc.Find("div.g, div[data-sokoban-container]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a[href]").First()
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(sel.Find("h3").First().Text())
		snippet := strings.TrimSpace(sel.Find("div[data-sncf], .VwiC3b, span").Last().Text())
		if href != "" && title != "" {
			hits = append(hits, rawHit{Title: title, URL: href, Snippet: snippet})
		}
		return count <= 0 || len(hits) < count
	})
	return hits, nil
}
