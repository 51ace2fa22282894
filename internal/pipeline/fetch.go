package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"webpeel/internal/domains"
	"webpeel/internal/fetch"
	"webpeel/internal/model"
)

// minDomainContent is the least content a domain extractor must return
// before the pipeline trusts it over a real fetch.
const minDomainContent = 50

// handleSpecialURL is stage 2: YouTube watch URLs short-circuit into
// transcript extraction. Failure falls through to a normal fetch.
func (p *Peeler) handleSpecialURL(ctx context.Context, pc *pipelineContext) bool {
	ext, ok := p.domains.Find(pc.parsedURL)
	if !ok || ext.Name() != "youtube" {
		return false
	}

	res, err := ext.Extract(ctx, pc.parsedURL)
	if err != nil {
		log.Debug().Err(err).Str("url", pc.rawURL).Msg("transcript extraction failed")
		pc.warn("transcript extraction failed, falling back to page fetch")
		return false
	}

	p.adoptDomainResult(pc, res, model.MethodDomainAPI, 1.0)
	return true
}

// fetchContent is stage 3: domain extractors first, then the tiered
// fetch engine, then the search-engine cache when the page is blocked.
func (p *Peeler) fetchContent(ctx context.Context, pc *pipelineContext) error {
	if ext, ok := p.domains.Find(pc.parsedURL); ok && ext.Name() != "youtube" {
		res, err := ext.Extract(ctx, pc.parsedURL)
		if err == nil && len(res.Content) >= minDomainContent {
			p.adoptDomainResult(pc, res, model.MethodDomainAPI, 0.95)
			return nil
		}
		if err != nil {
			log.Debug().Err(err).Str("extractor", ext.Name()).Msg("domain extractor failed, fetching page")
		}
	}

	req := p.buildFetchRequest(pc)
	res, err := p.engine.Fetch(ctx, req)
	if err != nil {
		var blocked *fetch.BlockedError
		if errors.As(err, &blocked) {
			if p.searchCacheFallback(ctx, pc) {
				return nil
			}
		}
		return err
	}

	pc.fetchRes = res
	pc.method = res.Method
	pc.rawHTML = res.HTML()
	pc.freshness = freshnessHeaders(res)

	if res.ChallengeDetected {
		pc.warn("bot protection challenge detected on final fetch tier")
		pc.blocked = true
		if p.searchCacheFallback(ctx, pc) {
			res.Release()
			pc.fetchRes = nil
			return nil
		}
	}
	return nil
}

func (p *Peeler) buildFetchRequest(pc *pipelineContext) fetch.Request {
	opts := pc.opts

	headers := map[string]string{}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if opts.Location != nil && len(opts.Location.Languages) > 0 {
		headers["Accept-Language"] = strings.Join(opts.Location.Languages, ",")
	}

	return fetch.Request{
		URL:            pc.rawURL,
		Render:         opts.Render,
		Stealth:        opts.Stealth,
		Cloaked:        opts.Cloaked,
		WaitMs:         opts.WaitMs,
		UserAgent:      opts.UserAgent,
		Headers:        headers,
		Cookies:        opts.Cookies,
		Actions:        opts.Actions,
		TimeoutMs:      opts.TimeoutMs,
		Proxies:        opts.Proxies,
		Cycle:          opts.Cycle,
		ProfileDir:     opts.ProfileDir,
		Headed:         opts.Headed,
		StorageState:   opts.StorageState,
		Device:         opts.Device,
		ViewportWidth:  opts.ViewportWidth,
		ViewportHeight: opts.ViewportHeight,
		WaitUntil:      opts.WaitUntil,
		WaitSelector:   opts.WaitSelector,
		BlockResources: opts.BlockResources,
		Screenshot:     opts.Screenshot,
		FullPage:       opts.FullPage,
		KeepPageOpen:   opts.Branding,
	}
}

// searchCacheFallback pulls whatever the search engines kept for a
// blocked URL. Cache-sourced content is never trusted above 0.4.
func (p *Peeler) searchCacheFallback(ctx context.Context, pc *pipelineContext) bool {
	cached := p.search.FetchCached(ctx, pc.rawURL)
	if cached == nil || strings.TrimSpace(cached.CachedContent) == "" {
		return false
	}

	pc.content = cached.CachedContent
	if pc.title == "" {
		pc.title = cached.Title
	}
	pc.contentType = model.ContentTypeHTML
	pc.method = model.MethodSearchFallback
	pc.quality = 0.4
	pc.blocked = true
	pc.domainAPIHandled = true
	pc.warn(fmt.Sprintf("page blocked by bot protection; content recovered from %s", cached.Source))
	return true
}

func (p *Peeler) adoptDomainResult(pc *pipelineContext, res *domains.Result, method string, quality float64) {
	pc.content = res.Content
	pc.title = res.Title
	pc.links = res.Links
	pc.domainData = res.Data
	pc.contentType = model.ContentTypeHTML
	pc.method = method
	pc.quality = quality
	pc.domainAPIHandled = true
	pc.metadata = model.Metadata{
		Title:      res.Title,
		SourceURL:  res.SourceURL,
		StatusCode: 200,
		Extra:      res.Data,
	}
}

func freshnessHeaders(res *fetch.Result) map[string]string {
	if res.Headers == nil {
		return nil
	}
	out := map[string]string{}
	for _, h := range []string{"Last-Modified", "ETag", "Age", "Date"} {
		if v := res.Headers.Get(h); v != "" {
			out[h] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
