package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"webpeel/internal/challenge"
	"webpeel/internal/content"
	"webpeel/internal/distill"
	"webpeel/internal/model"
)

const (
	// quickAnswerRetryConf is the confidence below which the quick
	// answer retries against the full raw text.
	quickAnswerRetryConf = 0.91
	// suspiciousContentChars gates the post-parse challenge recheck.
	suspiciousContentChars = 2000
	// safetyNetTextCap bounds the raw-text fallback.
	safetyNetTextCap = 10000
)

// postProcess is stage 6. Steps are sequential; each one reads the
// output of the previous. Lite mode skips the whole stage.
func (p *Peeler) postProcess(ctx context.Context, pc *pipelineContext) {
	if pc.opts.Lite {
		return
	}

	opts := pc.opts

	if opts.Readable && pc.rawHTML != "" {
		if r, err := content.Readable(pc.rawHTML, pc.rawURL); err == nil {
			pc.readability = r
		} else {
			log.Debug().Err(err).Msg("readability extraction failed")
			pc.warn("readability extraction failed")
		}
	}

	if opts.Images && pc.rawHTML != "" {
		pc.images = content.ExtractImages(pc.rawHTML, pc.rawURL)
	}

	if opts.Extract != nil {
		fields, err := p.extractor.Run(ctx, pc.doc, pc.content, pc.rawURL, opts.Extract, opts.LLM)
		if err != nil {
			log.Debug().Err(err).Msg("structured extraction failed")
			pc.warn("structured extraction failed: " + err.Error())
		} else if len(fields) > 0 {
			pc.extracted = fields
		}
	}

	if opts.Question != "" {
		pc.quickAnswer = p.answerQuestion(pc)
	}

	if opts.MaxTokens > 0 {
		limit := opts.MaxTokens * 4
		if len(pc.content) > limit {
			pc.content = content.TruncateAtWord(pc.content, limit)
		}
	}

	if opts.Budget > 0 {
		query := distill.DeriveQuery(pc.content, pc.title, opts.Question)
		res := distill.Distill(pc.content, opts.Budget, opts.Format, query)
		pc.content = res.Content
		if res.Fallback {
			pc.budgetFallback = true
			pc.warn("budget distillation kept too little content, fell back to head truncation")
		}
	}

	p.domainRescue(ctx, pc)
	p.recheckChallenge(ctx, pc)
	p.safetyNet(ctx, pc)
}

// answerQuestion runs the BM25 quick answer on current content, retrying
// against the full raw text when confidence is low and the raw document
// is substantially larger. The raw pass catches answers that main-content
// detection or distillation dropped.
func (p *Peeler) answerQuestion(pc *pipelineContext) *model.QuickAnswer {
	best := distill.Answer(pc.content, pc.opts.Question)

	if (best == nil || best.Confidence < quickAnswerRetryConf) && pc.rawHTML != "" {
		rawText := content.HTMLToText(pc.rawHTML, 0)
		if len(rawText) > 2*len(pc.content) {
			if retry := distill.Answer(rawText, pc.opts.Question); retry != nil {
				if best == nil || retry.Confidence > best.Confidence {
					best = retry
				}
			}
		}
	}
	return best
}

// domainRescue is the post-fetch domain extractor pass: when the URL has
// a registered extractor that did not handle the request up front and the
// fetched content came back weak, try the site API once more.
func (p *Peeler) domainRescue(ctx context.Context, pc *pipelineContext) {
	if pc.domainAPIHandled || len(strings.TrimSpace(pc.content)) >= suspiciousContentChars/10 {
		return
	}
	ext, ok := p.domains.Find(pc.parsedURL)
	if !ok || ext.Name() == "youtube" {
		return
	}

	res, err := ext.Extract(ctx, pc.parsedURL)
	if err != nil || len(res.Content) < minDomainContent {
		return
	}

	pc.content = res.Content
	if res.Title != "" {
		pc.title = res.Title
	}
	pc.domainData = res.Data
	if len(res.Links) > 0 {
		pc.links = res.Links
	}
	pc.method = model.MethodDomainAPIFallback
	pc.quality = 0.95
	pc.domainAPIHandled = true
	pc.warn("page content was weak, recovered via site API")
}

// recheckChallenge catches challenge pages that slipped past the fetch
// tier detector, showing up as short parsed content full of block
// vocabulary.
func (p *Peeler) recheckChallenge(ctx context.Context, pc *pipelineContext) {
	if pc.domainAPIHandled || pc.method == model.MethodSearchFallback {
		return
	}
	trimmed := strings.TrimSpace(pc.content)
	if len(trimmed) >= suspiciousContentChars || !challenge.ContainsLexicon(trimmed) {
		return
	}

	pc.blocked = true
	pc.warn("parsed content looks like a bot protection page")
	if p.searchCacheFallback(ctx, pc) {
		return
	}
	pc.quality = min(pc.quality, 0.4)
}

// safetyNet enforces the invariant that content is non-empty whenever
// the fetch produced any bytes. Fallbacks are tried cheapest-first.
func (p *Peeler) safetyNet(ctx context.Context, pc *pipelineContext) {
	if strings.TrimSpace(pc.content) != "" {
		return
	}

	if pc.doc != nil {
		if ld, ok := content.ExtractJSONLD(pc.doc, 1); ok {
			pc.content = ld.Content
			pc.jsonLDType = ld.Type
			pc.quality = 0.95
			pc.warn("content was empty, recovered from embedded JSON-LD")
			return
		}
	}

	if pc.metadata.Description != "" || pc.metadata.Title != "" {
		var b strings.Builder
		if pc.metadata.Title != "" {
			b.WriteString("# " + pc.metadata.Title + "\n\n")
		}
		b.WriteString(pc.metadata.Description)
		if text := strings.TrimSpace(b.String()); text != "" {
			pc.content = text
			pc.quality = 0.3
			pc.warn("content was empty, using page metadata only")
			return
		}
	}

	if pc.rawHTML != "" {
		if text := content.HTMLToText(pc.rawHTML, safetyNetTextCap); strings.TrimSpace(text) != "" {
			pc.content = text
			pc.quality = 0.2
			pc.warn("content was empty, using raw page text")
			return
		}
	}

	if p.searchCacheFallback(ctx, pc) {
		return
	}
}
