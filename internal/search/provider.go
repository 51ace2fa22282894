package search

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"webpeel/internal/config"
	"webpeel/internal/fetch"
	"webpeel/internal/model"
)

// rawHit is an un-normalized engine result.
type rawHit struct {
	Title   string
	URL     string
	Snippet string
}

// provider is one engine in the fallback chain.
type provider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]rawHit, error)
}

// Chain runs providers in order until one yields results. Authoritative
// API providers (Google CSE, Brave) short-circuit the scraping tiers.
// A single engine failing never surfaces as an error; only an entirely
// dry chain returns an empty slice.
type Chain struct {
	providers []provider
	cache     *lru.LRU[string, []model.SearchResult]
	limit     int
}

// NewChain assembles the provider chain from configuration. The fetch
// engine powers the stealth scraping tiers and may be nil, which
// disables them.
func NewChain(cfg *config.Config, engine *fetch.Engine) *Chain {
	timeout := time.Duration(cfg.Search.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	engineTime := time.Duration(cfg.Search.EngineTimeoutMs) * time.Millisecond

	var providers []provider
	hasKeys := false
	if cfg.Search.Google.Key != "" && cfg.Search.Google.CX != "" {
		providers = append(providers, newGoogleProvider(cfg.Search.Google.Key, cfg.Search.Google.CX, timeout))
		hasKeys = true
	}
	if cfg.Search.BraveKey != "" {
		providers = append(providers, newBraveProvider(cfg.Search.BraveKey, timeout))
		hasKeys = true
	}
	if !hasKeys && engine != nil {
		providers = append(providers, newGoogleScrapeProvider(engine, engineTime))
	}
	providers = append(providers,
		newDDGProvider(timeout),
		newDDGLiteProvider(timeout),
		newFirefoxDDGProvider(timeout),
	)
	if engine != nil {
		providers = append(providers, newMultiProvider(engine, engineTime))
	}

	size := cfg.Search.CacheSize
	if size <= 0 {
		size = 512
	}
	ttl := time.Duration(cfg.Search.CacheTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	limit := cfg.Search.MaxResults
	if limit <= 0 {
		limit = 10
	}

	return &Chain{
		providers: providers,
		cache:     lru.NewLRU[string, []model.SearchResult](size, nil, ttl),
		limit:     limit,
	}
}

// SearchWeb returns normalized, deduplicated results for the query.
// It never returns an error for individual engine failures; an empty
// slice means every tier came up dry.
func (c *Chain) SearchWeb(ctx context.Context, query string, count int) []model.SearchResult {
	if count <= 0 || count > c.limit {
		count = c.limit
	}

	cacheKey := query
	if cached, ok := c.cache.Get(cacheKey); ok {
		if len(cached) >= count {
			return cached[:count]
		}
		return cached
	}

	for _, p := range c.providers {
		if ctx.Err() != nil {
			return nil
		}

		hits, err := p.Search(ctx, query, count)
		if err != nil {
			log.Debug().Err(err).Str("provider", p.Name()).Msg("search provider failed, falling through")
			continue
		}
		if len(hits) == 0 {
			continue
		}

		results := make([]model.SearchResult, 0, len(hits))
		for _, h := range hits {
			if r, ok := Normalize(h.Title, h.URL, h.Snippet); ok {
				results = append(results, r)
			}
		}
		results = Dedupe(results)
		if len(results) == 0 {
			continue
		}
		if len(results) > count {
			results = results[:count]
		}

		c.cache.Add(cacheKey, results)
		return results
	}

	return nil
}
