package pipeline

import (
	"strings"
	"time"

	"webpeel/internal/content"
	"webpeel/internal/distill"
	"webpeel/internal/model"
)

// buildResult is stage 8: compose the stable output record. The clean
// format and chunking apply here, after every content mutation is done.
func (p *Peeler) buildResult(pc *pipelineContext) *model.PeelResult {
	body := pc.content
	if pc.opts.Format == model.FormatClean {
		body = content.CleanMarkdown(body)
	}

	var chunks []string
	if pc.opts.Chunk > 0 && body != "" {
		chunks = distill.Chunk(body, pc.opts.Chunk)
	}

	res := &model.PeelResult{
		URL:            pc.rawURL,
		Title:          pc.title,
		Content:        body,
		Metadata:       pc.metadata,
		Links:          pc.links,
		Images:         pc.images,
		LinkCount:      len(pc.links),
		Tokens:         distill.EstimateTokens(body),
		Method:         pc.method,
		ElapsedMs:      time.Since(pc.start).Milliseconds(),
		Screenshot:     pc.screenshotB64,
		ContentType:    pc.contentType,
		Quality:        pc.quality,
		Extracted:      pc.extracted,
		Branding:       pc.branding,
		ChangeTracking: pc.changeTracking,
		Summary:        pc.summary,
		Freshness:      pc.freshness,
		Warnings:       pc.warnings,
		Blocked:        pc.blocked,
		PrunedPercent:  pc.prunedPercent,
		BudgetFallback: pc.budgetFallback,
		DomainData:     pc.domainData,
		Readability:    pc.readability,
		QuickAnswer:    pc.quickAnswer,
		Timing:         pc.timing,
		JSONLDType:     pc.jsonLDType,
		Chunks:         chunks,
	}

	if pc.changeTracking != nil {
		res.Fingerprint = pc.changeTracking.Fingerprint
	}

	if strings.TrimSpace(body) == "" {
		res.Warning = "no content could be extracted; try render: true or stealth: true, or check whether the page requires authentication"
	} else if len(pc.warnings) > 0 {
		res.Warning = pc.warnings[0]
	}

	return res
}
