package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/k3a/html2text"
)

var (
	imagePattern    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkPattern     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	autolinkPattern = regexp.MustCompile(`<https?://[^>]+>`)
	spacePattern    = regexp.MustCompile(`[ \t]+`)
)

// HTMLToText renders HTML as plain text, capped at maxChars when > 0.
func HTMLToText(htmlStr string, maxChars int) string {
	text := strings.TrimSpace(html2text.HTML2Text(htmlStr))
	if maxChars > 0 && len(text) > maxChars {
		text = truncateAtWord(text, maxChars)
	}
	return text
}

// VisibleText returns the text of a document with script and style
// content removed and whitespace collapsed.
func VisibleText(doc *goquery.Document) string {
	clone := doc.Clone()
	clone.Find("script,style,noscript,template").Remove()
	text := clone.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = clone.Text()
	}
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Quality computes a content confidence score in [0,1] from signal
// ratios: text-to-tag ratio, link density, and paragraph count.
func Quality(doc *goquery.Document) float64 {
	text := VisibleText(doc)
	textLen := len(text)
	if textLen == 0 {
		return 0
	}

	tagCount := doc.Find("*").Length()
	if tagCount == 0 {
		tagCount = 1
	}

	linkText := 0
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		linkText += len(strings.TrimSpace(s.Text()))
	})

	paragraphs := 0
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if len(strings.TrimSpace(s.Text())) > 40 {
			paragraphs++
		}
	})

	textToTag := float64(textLen) / float64(tagCount)
	linkDensity := float64(linkText) / float64(textLen)

	score := 0.3
	switch {
	case textToTag > 20:
		score += 0.3
	case textToTag > 8:
		score += 0.2
	case textToTag > 3:
		score += 0.1
	}
	switch {
	case paragraphs >= 5:
		score += 0.25
	case paragraphs >= 2:
		score += 0.15
	case paragraphs >= 1:
		score += 0.05
	}
	if linkDensity < 0.3 {
		score += 0.15
	} else if linkDensity < 0.5 {
		score += 0.05
	}

	if score > 1 {
		score = 1
	}
	return score
}

func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// TruncateAtWord trims s to at most max bytes, breaking at a word
// boundary when one exists in the second half of the cut.
func TruncateAtWord(s string, max int) string {
	return truncateAtWord(s, max)
}
