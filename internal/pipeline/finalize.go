package pipeline

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/go-rod/rod"
	"github.com/rs/zerolog/log"

	"webpeel/internal/llm"
	"webpeel/internal/model"
)

// summaryInputCap bounds how much content is sent for summarization.
const summaryInputCap = 24000

// finalize is stage 7: screenshot encoding, branding, change tracking,
// and the optional AI summary. Nothing here can fail the pipeline.
func (p *Peeler) finalize(ctx context.Context, pc *pipelineContext) {
	if pc.fetchRes != nil && len(pc.fetchRes.Screenshot) > 0 {
		pc.screenshotB64 = base64.StdEncoding.EncodeToString(pc.fetchRes.Screenshot)
	}

	if pc.opts.Branding {
		p.extractBranding(pc)
	}

	// The live page is only ever consumed by branding; drop it now so no
	// browser outlives the request.
	if pc.fetchRes != nil {
		pc.fetchRes.Release()
	}

	if pc.opts.ChangeTracking && strings.TrimSpace(pc.content) != "" {
		ct := p.tracker.Check(ctx, pc.rawURL, pc.content)
		pc.changeTracking = &ct
	}

	if pc.opts.Summary && strings.TrimSpace(pc.content) != "" {
		p.summarize(ctx, pc)
	}
}

func (p *Peeler) summarize(ctx context.Context, pc *pipelineContext) {
	client, err := llm.New(p.cfg, pc.opts.LLM)
	if err != nil {
		log.Debug().Err(err).Msg("summary skipped, no llm provider")
		pc.warn("summary skipped: " + err.Error())
		return
	}

	input := pc.content
	if len(input) > summaryInputCap {
		input = input[:summaryInputCap]
	}

	summary, err := client.Summarize(ctx, pc.rawURL, input)
	if err != nil {
		log.Debug().Err(err).Msg("summary generation failed")
		pc.warn("summary generation failed")
		return
	}
	pc.summary = summary
}

// brandingJS reads computed colors and fonts off the rendered page.
const brandingJS = `() => {
	const style = getComputedStyle(document.body);
	const meta = document.querySelector('meta[name="theme-color"]');
	const logo = document.querySelector('header img, img[src*="logo" i], img[alt*="logo" i]');
	const fonts = new Set();
	for (const el of document.querySelectorAll('body, h1, h2, p, a')) {
		const f = getComputedStyle(el).fontFamily;
		if (f) fonts.add(f.split(',')[0].trim().replace(/["']/g, ''));
	}
	return {
		themeColor: meta ? meta.content : '',
		background: style.backgroundColor || '',
		textColor: style.color || '',
		fonts: Array.from(fonts).slice(0, 5),
		logo: logo ? logo.src : '',
	};
}`

func (p *Peeler) extractBranding(pc *pipelineContext) {
	if pc.fetchRes != nil && pc.fetchRes.Page != nil {
		if profile, ok := liveBranding(pc.fetchRes.Page); ok {
			profile.Favicon = pc.metadata.Favicon
			profile.OgImage = pc.metadata.OgImage
			pc.branding = profile
			return
		}
		pc.warn("live branding extraction failed, using static profile")
	}

	pc.branding = staticBranding(pc)
}

func liveBranding(page *rod.Page) (*model.BrandingProfile, bool) {
	obj, err := page.Eval(brandingJS)
	if err != nil {
		log.Debug().Err(err).Msg("branding eval failed")
		return nil, false
	}

	val := obj.Value
	profile := &model.BrandingProfile{
		ThemeColor: val.Get("themeColor").Str(),
		Background: val.Get("background").Str(),
		TextColor:  val.Get("textColor").Str(),
		Logo:       val.Get("logo").Str(),
	}
	for _, f := range val.Get("fonts").Arr() {
		if s := f.Str(); s != "" {
			profile.Fonts = append(profile.Fonts, s)
		}
	}
	return profile, true
}

// staticBranding derives what it can from meta tags when no live page is
// available.
func staticBranding(pc *pipelineContext) *model.BrandingProfile {
	profile := &model.BrandingProfile{
		Favicon: pc.metadata.Favicon,
		OgImage: pc.metadata.OgImage,
	}
	if pc.doc != nil {
		if v, ok := pc.doc.Find(`meta[name="theme-color"]`).Attr("content"); ok {
			profile.ThemeColor = v
		}
	}
	if profile.Logo == "" && pc.metadata.OgImage != "" {
		profile.Logo = pc.metadata.OgImage
	}
	return profile
}
