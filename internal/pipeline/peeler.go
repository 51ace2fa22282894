package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"webpeel/internal/changetrack"
	"webpeel/internal/config"
	"webpeel/internal/domains"
	"webpeel/internal/extract"
	"webpeel/internal/fetch"
	"webpeel/internal/llm"
	"webpeel/internal/model"
	"webpeel/internal/search"
)

const agentModeBudget = 4000

const (
	resultCacheSize = 128
	resultCacheTTL  = 30 * time.Minute
)

// searcher is the slice of the search chain the pipeline depends on.
type searcher interface {
	SearchWeb(ctx context.Context, query string, count int) []model.SearchResult
	FetchCached(ctx context.Context, rawURL string) *search.CachedPage
}

// cachedResult pairs a stored result with its peel time so maxAge
// lookups can judge staleness themselves.
type cachedResult struct {
	res *model.PeelResult
	at  time.Time
}

// Peeler is the facade over the extraction pipeline. One Peeler serves
// many concurrent Peel calls; all per-request state lives in the
// pipeline context.
type Peeler struct {
	cfg       *config.Config
	engine    *fetch.Engine
	search    searcher
	domains   *domains.Registry
	tracker   *changetrack.Tracker
	extractor *extract.Service
	results   *expirable.LRU[string, cachedResult]
}

// New wires the pipeline's collaborators from process configuration.
func New(cfg *config.Config) *Peeler {
	engine := fetch.NewEngine(cfg)

	llmFactory := func(opts *model.LLMOptions) (llm.Client, error) {
		return llm.New(cfg, opts)
	}

	return &Peeler{
		cfg:       cfg,
		engine:    engine,
		search:    search.NewChain(cfg, engine),
		domains:   domains.NewRegistry(&http.Client{Timeout: 15 * time.Second}),
		tracker:   changetrack.New(cfg.Redis.URL),
		extractor: extract.NewService(llmFactory),
		results:   expirable.NewLRU[string, cachedResult](resultCacheSize, nil, resultCacheTTL),
	}
}

// Close releases long-lived resources.
func (p *Peeler) Close() error {
	return p.tracker.Close()
}

// SearchWeb exposes the search fallback chain directly.
func (p *Peeler) SearchWeb(ctx context.Context, query string, count int) []model.SearchResult {
	return p.search.SearchWeb(ctx, query, count)
}

// Peel runs the full pipeline for one URL. It returns an error only for
// invalid input, timeouts, unrecoverable network failures, and internal
// faults; every other condition degrades into warnings on the result.
func (p *Peeler) Peel(ctx context.Context, rawURL string, opts model.PeelOptions) (*model.PeelResult, error) {
	u, err := fetch.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	cacheKey := resultCacheKey(rawURL, opts)
	if opts.MaxAgeMs > 0 {
		if entry, ok := p.results.Get(cacheKey); ok && time.Since(entry.at) <= time.Duration(opts.MaxAgeMs)*time.Millisecond {
			hit := *entry.res
			hit.Method = model.MethodCached
			return &hit, nil
		}
	}

	pc := newContext(rawURL, u, opts)
	reqID := uuid.NewString()[:8]
	log.Debug().Str("id", reqID).Str("url", rawURL).Msg("peel start")

	p.normalizeOptions(pc)
	pc.mark("normalize")

	if done := p.handleSpecialURL(ctx, pc); done {
		pc.mark("special")
		p.postProcess(ctx, pc)
		pc.mark("postprocess")
		p.finalize(ctx, pc)
		pc.mark("finalize")
		res := p.buildResult(pc)
		p.remember(cacheKey, pc, res)
		return res, nil
	}

	if err := p.fetchContent(ctx, pc); err != nil {
		return nil, err
	}
	pc.mark("fetch")

	if !pc.domainAPIHandled {
		p.detectContentType(pc)
		pc.mark("detect")

		p.parseContent(ctx, pc)
		pc.mark("parse")
	}

	p.postProcess(ctx, pc)
	pc.mark("postprocess")

	p.finalize(ctx, pc)
	pc.mark("finalize")

	res := p.buildResult(pc)
	log.Debug().
		Str("id", reqID).
		Str("url", rawURL).
		Str("method", res.Method).
		Float64("quality", res.Quality).
		Int("tokens", res.Tokens).
		Int64("elapsedMs", res.ElapsedMs).
		Msg("peel complete")
	p.remember(cacheKey, pc, res)
	return res, nil
}

// remember stores a completed result for maxAge reuse. Blocked or empty
// results never serve a later request.
func (p *Peeler) remember(key string, pc *pipelineContext, res *model.PeelResult) {
	if pc.blocked || strings.TrimSpace(res.Content) == "" {
		return
	}
	p.results.Add(key, cachedResult{res: res, at: time.Now()})
}

// resultCacheKey discriminates on the options that change the content a
// peel produces.
func resultCacheKey(rawURL string, opts model.PeelOptions) string {
	return fmt.Sprintf("%s|%s|%s|%t|%t|%d|%d|%s",
		rawURL, opts.Format, opts.Selector, opts.Raw, opts.Lite,
		opts.Budget, opts.MaxTokens, opts.Question)
}

// normalizeOptions is stage 1: copy caller options into the context and
// apply defaults. Agent mode trades fidelity for a predictable budget.
func (p *Peeler) normalizeOptions(pc *pipelineContext) {
	opts := &pc.opts

	if opts.Format == "" {
		opts.Format = model.FormatMarkdown
	}
	if opts.AgentMode {
		if opts.Budget <= 0 {
			opts.Budget = agentModeBudget
		}
		if opts.Format != model.FormatMarkdown && opts.Format != model.FormatClean {
			opts.Format = model.FormatMarkdown
		}
	}
	if opts.NeedsRender() {
		opts.Render = true
	}

	// Auto-scroll is expressed as trailing actions so it shares the
	// action executor's timeout handling.
	if opts.AutoScroll {
		opts.Actions = append(opts.Actions,
			model.Action{Type: "scroll", To: "bottom"},
			model.Action{Type: "wait", Ms: 1200},
			model.Action{Type: "scroll", To: "bottom"},
		)
	}

	pc.quality = 0.5
	pc.method = model.MethodSimple
}
