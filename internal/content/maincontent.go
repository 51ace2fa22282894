package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var boilerplatePattern = regexp.MustCompile(`(?i)nav|header|footer|sidebar|aside|comment|promo|ad|cookie|newsletter|related`)

// semanticWeight returns the scoring weight for a candidate container tag.
func semanticWeight(sel *goquery.Selection) float64 {
	switch goquery.NodeName(sel) {
	case "article":
		return 3
	case "main":
		return 2.5
	case "section":
		return 1.2
	}
	if role, ok := sel.Attr("role"); ok && strings.EqualFold(role, "main") {
		return 2
	}
	return 1
}

// DetectMainContent scores candidate block elements by text length,
// text-to-link ratio, and semantic tag weight, and returns the HTML of
// the best candidate when it holds at least 40% of the body text.
// Otherwise it returns the input document's HTML unchanged.
func DetectMainContent(doc *goquery.Document) string {
	body := doc.Find("body").First()
	bodyText := len(strings.TrimSpace(body.Text()))
	if bodyText == 0 {
		return documentHTML(doc)
	}

	var best *goquery.Selection
	bestScore := 0.0
	bestLen := 0

	doc.Find("article, main, [role=main], section, div").Each(func(_ int, sel *goquery.Selection) {
		textLen := len(strings.TrimSpace(sel.Text()))
		if textLen == 0 {
			return
		}

		linkText := 0
		sel.Find("a").Each(func(_ int, a *goquery.Selection) {
			linkText += len(strings.TrimSpace(a.Text()))
		})
		linkRatio := 1.0 - float64(linkText)/float64(textLen)
		if linkRatio < 0 {
			linkRatio = 0
		}

		score := float64(textLen) * linkRatio * semanticWeight(sel)

		class := sel.AttrOr("class", "") + " " + sel.AttrOr("id", "")
		if boilerplatePattern.MatchString(class) {
			score *= 0.2
		}

		if score > bestScore {
			bestScore = score
			best = sel
			bestLen = textLen
		}
	})

	if best == nil || float64(bestLen) < 0.4*float64(bodyText) {
		return documentHTML(doc)
	}

	html, err := goquery.OuterHtml(best)
	if err != nil {
		return documentHTML(doc)
	}
	return html
}

func documentHTML(doc *goquery.Document) string {
	html, err := doc.Html()
	if err != nil {
		return ""
	}
	return html
}
