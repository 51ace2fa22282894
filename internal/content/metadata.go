// Package content implements HTML processing for the peel pipeline:
// metadata, link, and image extraction, main-content detection, density
// pruning, JSON-LD handling, feed rendering, and format conversion.
package content

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"webpeel/internal/model"
)

// ExtractMetadata builds page metadata from the document head. The base
// URL resolves relative canonical and favicon links.
func ExtractMetadata(doc *goquery.Document, base *url.URL, statusCode int) model.Metadata {
	md := model.Metadata{
		Title:         strings.TrimSpace(doc.Find("title").First().Text()),
		Description:   doc.Find("meta[name=description]").AttrOr("content", ""),
		Keywords:      doc.Find("meta[name=keywords]").AttrOr("content", ""),
		Robots:        doc.Find("meta[name=robots]").AttrOr("content", ""),
		Author:        doc.Find("meta[name=author]").AttrOr("content", ""),
		OgTitle:       doc.Find("meta[property='og:title']").AttrOr("content", ""),
		OgDescription: doc.Find("meta[property='og:description']").AttrOr("content", ""),
		OgURL:         doc.Find("meta[property='og:url']").AttrOr("content", ""),
		OgImage:       doc.Find("meta[property='og:image']").AttrOr("content", ""),
		OgSiteName:    doc.Find("meta[property='og:site_name']").AttrOr("content", ""),
		SiteName:      doc.Find("meta[property='og:site_name']").AttrOr("content", ""),
		StatusCode:    statusCode,
	}

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		md.Language = lang
	}

	// Byline and published date from the usual meta conventions.
	if md.Byline == "" {
		md.Byline = doc.Find("meta[property='article:author']").AttrOr("content", "")
	}
	if md.Byline == "" {
		md.Byline = md.Author
	}
	md.Published = firstAttr(doc,
		"meta[property='article:published_time']",
		"meta[name='date']",
		"meta[itemprop='datePublished']",
	)

	if fav := doc.Find("link[rel='icon'],link[rel='shortcut icon']").First().AttrOr("href", ""); fav != "" {
		md.Favicon = resolveRef(base, fav)
	}

	sourceURL := ""
	if base != nil {
		sourceURL = base.String()
	}
	if canonical := doc.Find("link[rel=canonical]").AttrOr("href", ""); canonical != "" {
		if resolved := resolveRef(base, canonical); resolved != "" {
			sourceURL = resolved
		}
	}
	md.SourceURL = sourceURL

	return md
}

func firstAttr(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

func resolveRef(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil && !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
