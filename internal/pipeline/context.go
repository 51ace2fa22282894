// Package pipeline runs the eight-stage extraction flow: normalize
// options, handle special URLs, fetch, detect content type, parse,
// post-process, finalize, build result. A single mutable context is
// threaded through the stages; every recoverable failure degrades the
// result instead of surfacing an error.
package pipeline

import (
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"webpeel/internal/fetch"
	"webpeel/internal/model"
)

// pipelineContext is owned by one Peel invocation; nothing is shared
// across requests.
type pipelineContext struct {
	rawURL    string
	parsedURL *url.URL
	opts      model.PeelOptions

	fetchRes *fetch.Result
	rawHTML  string
	doc      *goquery.Document

	contentType model.ContentType
	content     string
	title       string
	metadata    model.Metadata
	links       []string
	images      []string

	quality        float64
	prunedPercent  float64
	jsonLDType     string
	extracted      map[string]any
	quickAnswer    *model.QuickAnswer
	readability    *model.ReadabilityResult
	branding       *model.BrandingProfile
	changeTracking *model.ChangeTracking
	summary        string
	screenshotB64  string
	freshness      map[string]string
	domainData     map[string]any

	method           string
	blocked          bool
	budgetFallback   bool
	domainAPIHandled bool

	warnings []string
	timing   model.Timing
	start    time.Time
	lastMark time.Time
}

func newContext(rawURL string, u *url.URL, opts model.PeelOptions) *pipelineContext {
	now := time.Now()
	return &pipelineContext{
		rawURL:    rawURL,
		parsedURL: u,
		opts:      opts,
		timing:    model.Timing{},
		start:     now,
		lastMark:  now,
	}
}

// warn appends a non-fatal degradation note. The list is append-only and
// ordered by occurrence.
func (pc *pipelineContext) warn(msg string) {
	pc.warnings = append(pc.warnings, msg)
}

// mark records elapsed milliseconds since the previous mark under the
// stage name.
func (pc *pipelineContext) mark(stage string) {
	now := time.Now()
	pc.timing[stage] = now.Sub(pc.lastMark).Milliseconds()
	pc.lastMark = now
}
