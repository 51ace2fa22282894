package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PruneResult reports the outcome of a density-pruning pass.
type PruneResult struct {
	HTML          string
	PrunedPercent float64
}

// DensityPrune walks block elements bottom-up and removes low-density
// boilerplate: nodes with text density < 2, under 80 chars of text,
// link density > 0.5, and a boilerplate class or id. It reports the
// percentage of element nodes removed.
func DensityPrune(htmlStr string) PruneResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return PruneResult{HTML: htmlStr}
	}

	total := doc.Find("*").Length()
	if total == 0 {
		return PruneResult{HTML: htmlStr}
	}

	removed := 0
	blocks := doc.Find("div, section, aside, ul, ol, table, footer, header, nav")

	// Iterate in reverse document order so children are considered
	// before their ancestors.
	for i := blocks.Length() - 1; i >= 0; i-- {
		sel := blocks.Eq(i)
		if sel.Closest("html").Length() == 0 {
			continue // already detached with an ancestor
		}

		text := strings.TrimSpace(sel.Text())
		textLen := len(text)
		tags := sel.Find("*").Length()
		density := float64(textLen) / float64(1+tags)
		if density >= 2 || textLen >= 80 {
			continue
		}

		linkText := 0
		sel.Find("a").Each(func(_ int, a *goquery.Selection) {
			linkText += len(strings.TrimSpace(a.Text()))
		})
		linkDensity := 0.0
		if textLen > 0 {
			linkDensity = float64(linkText) / float64(textLen)
		} else if linkText > 0 {
			linkDensity = 1
		}
		if linkDensity <= 0.5 {
			continue
		}

		class := sel.AttrOr("class", "") + " " + sel.AttrOr("id", "")
		if !boilerplatePattern.MatchString(class) {
			continue
		}

		removed += 1 + tags
		sel.Remove()
	}

	html, err := doc.Html()
	if err != nil {
		return PruneResult{HTML: htmlStr}
	}

	return PruneResult{
		HTML:          html,
		PrunedPercent: 100 * float64(removed) / float64(total),
	}
}
