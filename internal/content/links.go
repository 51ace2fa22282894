package content

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>\\)\]]+`)

// NormalizeURL produces the deduplication key for a URL: lowercased host
// with a leading "www." stripped, plus the path with trailing slashes
// trimmed. Invalid URLs normalize to their trimmed input.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimRight(u.Path, "/")
	return host + path
}

// ExtractLinks collects absolute http(s) links from anchor tags, resolving
// relative hrefs against the base URL and deduplicating by NormalizeURL.
func ExtractLinks(doc *goquery.Document, base *url.URL) []string {
	links := make([]string, 0)
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		if base != nil && !linkURL.IsAbs() {
			linkURL = base.ResolveReference(linkURL)
		}
		if linkURL.Scheme != "http" && linkURL.Scheme != "https" {
			return
		}
		linkURL.Fragment = ""
		final := linkURL.String()
		key := NormalizeURL(final)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		links = append(links, final)
	})

	return links
}

// ExtractImages collects absolute http(s) image URLs from img and source
// tags, in document order, deduplicated.
func ExtractImages(htmlStr, baseURL string) []string {
	if htmlStr == "" {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	images := make([]string, 0)

	add := func(src string) {
		resolved := resolveRef(base, src)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		images = append(images, resolved)
	}

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""))
	})

	// srcset can be "url1 1x, url2 2x"; take the first candidate.
	doc.Find("source[srcset]").Each(func(_ int, sel *goquery.Selection) {
		parts := strings.Split(sel.AttrOr("srcset", ""), ",")
		if len(parts) == 0 {
			return
		}
		fields := strings.Fields(strings.TrimSpace(parts[0]))
		if len(fields) == 0 {
			return
		}
		add(fields[0])
	})

	if len(images) == 0 {
		return nil
	}
	return images
}

// ExtractURLsFromText pulls http(s) URLs out of plain text or JSON bodies,
// deduplicated by NormalizeURL.
func ExtractURLsFromText(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:")
		key := NormalizeURL(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
