package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"webpeel/internal/content"
	"webpeel/internal/docparse"
	"webpeel/internal/model"
)

const (
	// pruneThreshold is the HTML size above which the density pruner runs.
	pruneThreshold = 20000
	// budgetCharFactor converts a token budget into a raw-HTML character
	// limit for pre-truncation: markup overhead is roughly 3x the text,
	// and a token is roughly 4 chars.
	budgetCharFactor = 12
	// retryMinContent triggers the full-document retry when truncated
	// conversion came back nearly empty.
	retryMinContent = 200
)

// detectContentType is stage 4: Content-Type header, then URL extension,
// then body sniffing.
func (p *Peeler) detectContentType(pc *pipelineContext) {
	if pc.fetchRes == nil {
		pc.contentType = model.ContentTypeHTML
		return
	}

	header := strings.ToLower(pc.fetchRes.ContentType)
	path := strings.ToLower(pc.parsedURL.Path)
	body := pc.fetchRes.Body

	switch {
	case strings.Contains(header, "application/pdf"),
		strings.Contains(header, "wordprocessingml"),
		strings.HasSuffix(path, ".pdf"),
		strings.HasSuffix(path, ".docx"):
		pc.contentType = model.ContentTypeDocument
	case strings.Contains(header, "json"):
		pc.contentType = model.ContentTypeJSON
	case strings.Contains(header, "xml"), strings.Contains(header, "rss"), strings.Contains(header, "atom"):
		pc.contentType = model.ContentTypeXML
	case strings.Contains(header, "text/plain"),
		strings.Contains(header, "markdown"),
		strings.Contains(header, "text/css"),
		strings.Contains(header, "javascript"):
		pc.contentType = model.ContentTypeText
	case docparse.IsPDF(body) || docparse.IsDOCX(body):
		pc.contentType = model.ContentTypeDocument
	case looksLikeXML(body):
		pc.contentType = model.ContentTypeXML
	case looksLikeJSON(body):
		pc.contentType = model.ContentTypeJSON
	default:
		pc.contentType = model.ContentTypeHTML
	}
}

// parseContent is stage 5: dispatch on the detected content type.
func (p *Peeler) parseContent(ctx context.Context, pc *pipelineContext) {
	switch pc.contentType {
	case model.ContentTypeDocument:
		p.parseDocument(pc)
	case model.ContentTypeJSON:
		p.parseJSON(pc)
	case model.ContentTypeXML:
		p.parseXML(pc)
	case model.ContentTypeText:
		pc.content = pc.rawHTML
		pc.links = content.ExtractURLsFromText(pc.rawHTML)
		pc.quality = 1.0
	default:
		p.parseHTML(ctx, pc)
	}
}

func (p *Peeler) parseDocument(pc *pipelineContext) {
	body := pc.fetchRes.Body

	switch {
	case docparse.IsDOCX(body):
		text, err := docparse.ParseDOCX(body)
		if err != nil {
			pc.warn("docx decode failed: " + err.Error())
			pc.content = content.HTMLToText(pc.rawHTML, 10000)
			pc.quality = 0.2
			return
		}
		pc.content = text
	default:
		res, err := docparse.ParsePDF(body)
		if err != nil {
			pc.warn("pdf decode failed: " + err.Error())
			pc.content = ""
			pc.quality = 0.2
			return
		}
		pc.content = res.Text
		pc.metadata.Pages = res.Pages
	}

	pc.quality = 1.0
	pc.metadata.SourceURL = pc.rawURL
	pc.metadata.StatusCode = pc.fetchRes.Status
}

func (p *Peeler) parseJSON(pc *pipelineContext) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, pc.fetchRes.Body, "", "  "); err != nil {
		pc.warn("json indent failed, returning body as-is")
		pc.content = pc.rawHTML
	} else {
		pc.content = pretty.String()
	}
	pc.links = content.ExtractURLsFromText(pc.content)
	pc.quality = 1.0
}

func (p *Peeler) parseXML(pc *pipelineContext) {
	feed, ok := content.ParseFeed(pc.fetchRes.Body)
	if !ok {
		pc.content = pc.rawHTML
		pc.links = content.ExtractURLsFromText(pc.rawHTML)
		pc.quality = 1.0
		return
	}
	pc.content = feed.Content
	pc.title = feed.Title
	pc.links = feed.Links
	pc.quality = 0.9
}

func (p *Peeler) parseHTML(ctx context.Context, pc *pipelineContext) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pc.rawHTML))
	if err != nil {
		pc.warn("html parse failed, degrading to raw text")
		pc.content = content.HTMLToText(pc.rawHTML, 10000)
		pc.quality = 0.2
		return
	}
	pc.doc = doc

	status := 0
	if pc.fetchRes != nil {
		status = pc.fetchRes.Status
	}

	opts := pc.opts
	if opts.Raw {
		pc.metadata = content.ExtractMetadata(doc, pc.parsedURL, status)
		pc.title = pc.metadata.Title
		pc.content = pc.rawHTML
		pc.quality = 0.5
		return
	}

	if opts.Lite {
		work := pc.rawHTML
		if opts.Selector != "" {
			if sel, selErr := doc.Find(opts.Selector).Html(); selErr == nil && sel != "" {
				work = sel
			}
		}
		md, convErr := content.ToMarkdown(work, content.ConvertOptions{
			Domain:        pc.parsedURL.Host,
			IncludeImages: opts.Images,
		})
		if convErr != nil {
			md = content.HTMLToText(work, 0)
		}
		pc.content = md
		pc.title = strings.TrimSpace(doc.Find("title").First().Text())
		pc.quality = 0.5
		return
	}

	// Structured data beats heuristic extraction when it is substantial.
	if opts.Selector == "" {
		if ld, ok := content.ExtractJSONLD(doc, 100); ok {
			pc.content = ld.Content
			pc.jsonLDType = ld.Type
			if ld.Title != "" {
				pc.title = ld.Title
			}
			pc.quality = 0.95
			pc.metadata = content.ExtractMetadata(doc, pc.parsedURL, status)
			if pc.title == "" {
				pc.title = pc.metadata.Title
			}
			pc.links = content.ExtractLinks(doc, pc.parsedURL)
			return
		}
	}

	workHTML, truncated := p.reduceHTML(pc, doc)

	var converted string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		converted = p.convert(pc, workHTML)
		return nil
	})
	g.Go(func() error {
		pc.metadata = content.ExtractMetadata(doc, pc.parsedURL, status)
		pc.links = content.ExtractLinks(doc, pc.parsedURL)
		return nil
	})
	_ = g.Wait()

	// An SPA can bury its real content late in the DOM, past the budget
	// cut. Retry on the whole document before giving up.
	if truncated && len(converted) < retryMinContent && len(pc.rawHTML) > pruneThreshold {
		full, _ := p.reduceHTMLFull(pc, doc)
		converted = p.convert(pc, full)
	}

	pc.content = converted
	pc.title = pc.metadata.Title
	pc.quality = content.Quality(doc)
}

// reduceHTML applies tag filters, selector or main-content detection,
// density pruning, and budget pre-truncation. Returns the working HTML
// and whether pre-truncation cut anything.
func (p *Peeler) reduceHTML(pc *pipelineContext, doc *goquery.Document) (string, bool) {
	work, _ := p.reduceHTMLFull(pc, doc)

	opts := pc.opts
	if opts.Budget > 0 && opts.Question == "" {
		limit := opts.Budget * budgetCharFactor
		if len(work) > limit {
			return truncateHTMLAtBlock(work, limit), true
		}
	}
	return work, false
}

// reduceHTMLFull is reduceHTML without the budget cut.
func (p *Peeler) reduceHTMLFull(pc *pipelineContext, doc *goquery.Document) (string, bool) {
	opts := pc.opts

	work := filterTags(doc, opts.IncludeTags, append(opts.ExcludeTags, opts.Exclude...))

	if opts.Selector != "" {
		filtered, err := goquery.NewDocumentFromReader(strings.NewReader(work))
		if err == nil {
			if sel, selErr := filtered.Find(opts.Selector).Html(); selErr == nil && strings.TrimSpace(sel) != "" {
				return sel, false
			}
		}
		pc.warn("selector matched nothing, using main-content detection")
	}

	filtered, err := goquery.NewDocumentFromReader(strings.NewReader(work))
	if err == nil {
		work = content.DetectMainContent(filtered)
	}

	if len(work) >= pruneThreshold &&
		(opts.Format == model.FormatMarkdown || opts.Format == model.FormatClean) &&
		!opts.FullPage {
		pruned := content.DensityPrune(work)
		work = pruned.HTML
		pc.prunedPercent = pruned.PrunedPercent
	}
	return work, false
}

func (p *Peeler) convert(pc *pipelineContext, workHTML string) string {
	opts := pc.opts
	switch opts.Format {
	case model.FormatHTML:
		return workHTML
	case model.FormatText:
		return content.HTMLToText(workHTML, 0)
	default:
		md, err := content.ToMarkdown(workHTML, content.ConvertOptions{
			Domain:        pc.parsedURL.Host,
			IncludeImages: opts.Images,
		})
		if err != nil {
			pc.warn("markdown conversion failed, degrading to text")
			return content.HTMLToText(workHTML, 0)
		}
		return md
	}
}

// filterTags keeps only includeTags selections when given, then removes
// excluded selectors. Returns document HTML.
func filterTags(doc *goquery.Document, includeTags, exclude []string) string {
	if len(includeTags) > 0 {
		var b strings.Builder
		for _, sel := range includeTags {
			doc.Find(sel).Each(func(_ int, node *goquery.Selection) {
				if h, err := goquery.OuterHtml(node); err == nil {
					b.WriteString(h)
					b.WriteString("\n")
				}
			})
		}
		if b.Len() > 0 {
			return b.String()
		}
	}

	if len(exclude) == 0 {
		if h, err := doc.Html(); err == nil {
			return h
		}
		return ""
	}

	clone := goquery.CloneDocument(doc)
	for _, sel := range exclude {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		clone.Find(sel).Remove()
	}
	if h, err := clone.Html(); err == nil {
		return h
	}
	if h, err := doc.Html(); err == nil {
		return h
	}
	return ""
}

var blockBoundaries = []string{"</p>", "</div>", "</li>", "</tr>"}

// truncateHTMLAtBlock cuts HTML near limit at the last closing block tag
// so the parser never sees a half-open element run.
func truncateHTMLAtBlock(htmlStr string, limit int) string {
	if len(htmlStr) <= limit {
		return htmlStr
	}
	head := htmlStr[:limit]

	cut := -1
	for _, boundary := range blockBoundaries {
		if idx := strings.LastIndex(head, boundary); idx >= 0 && idx+len(boundary) > cut {
			cut = idx + len(boundary)
		}
	}
	if cut <= 0 {
		return head
	}
	return head[:cut]
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false
	}
	return json.Valid(trimmed)
}

func looksLikeXML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<?xml")) ||
		bytes.HasPrefix(trimmed, []byte("<rss")) ||
		bytes.HasPrefix(trimmed, []byte("<feed"))
}
