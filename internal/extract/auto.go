package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	pricePattern = regexp.MustCompile(`(?:[$€£]\s?\d[\d,]*(?:\.\d{1,2})?|\d[\d,]*(?:\.\d{1,2})?\s?(?:USD|EUR|GBP))(?:\s*/\s*(?:mo(?:nth)?|yr|year|user|seat))?`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,16}\d`)
	// HTTP verb followed by a URL path, the shape endpoint listings take
	// in rendered API docs.
	endpointPattern = regexp.MustCompile(`(?m)\b(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)\s+(/[\w\-{}.:/]*)`)

	planClassPattern = regexp.MustCompile(`(?i)price|plan|tier|pricing|package`)
)

// extractPricing looks for plan cards first (elements whose class names
// suggest pricing), falling back to a flat price scan of the markdown.
func extractPricing(doc *goquery.Document, markdown string) map[string]any {
	var plans []map[string]any

	if doc != nil {
		doc.Find("div, section, li, article").Each(func(_ int, node *goquery.Selection) {
			class, _ := node.Attr("class")
			if !planClassPattern.MatchString(class) {
				return
			}
			text := strings.TrimSpace(node.Text())
			price := pricePattern.FindString(text)
			if price == "" {
				return
			}
			// Nested cards match too; keep the innermost by skipping
			// nodes that contain another matching card.
			if node.Find("div, section, li").FilterFunction(func(_ int, inner *goquery.Selection) bool {
				c, _ := inner.Attr("class")
				return planClassPattern.MatchString(c) && pricePattern.MatchString(inner.Text())
			}).Length() > 0 {
				return
			}

			name := strings.TrimSpace(node.Find("h1, h2, h3, h4").First().Text())
			plans = append(plans, map[string]any{
				"name":  name,
				"price": price,
			})
		})
	}

	if len(plans) == 0 {
		prices := dedupeStrings(pricePattern.FindAllString(markdown, 20))
		return map[string]any{"prices": prices}
	}
	if len(plans) > 10 {
		plans = plans[:10]
	}
	return map[string]any{"plans": plans}
}

// extractProducts reads schema.org Product microdata.
func extractProducts(doc *goquery.Document) map[string]any {
	var products []map[string]any
	if doc == nil {
		return map[string]any{"products": products}
	}

	doc.Find(`[itemtype*="schema.org/Product"]`).Each(func(_ int, node *goquery.Selection) {
		p := map[string]any{}
		if name := itemprop(node, "name"); name != "" {
			p["name"] = name
		}
		if price := itemprop(node, "price"); price != "" {
			p["price"] = price
		}
		if desc := itemprop(node, "description"); desc != "" {
			p["description"] = desc
		}
		if len(p) > 0 {
			products = append(products, p)
		}
	})

	// Product-card fallback for pages without microdata.
	if len(products) == 0 {
		doc.Find(`[class*="product"]`).Each(func(_ int, node *goquery.Selection) {
			if len(products) >= 20 {
				return
			}
			name := strings.TrimSpace(node.Find("h1, h2, h3, h4, a").First().Text())
			price := pricePattern.FindString(node.Text())
			if name == "" || price == "" {
				return
			}
			products = append(products, map[string]any{"name": name, "price": price})
		})
	}

	return map[string]any{"products": products}
}

func extractContact(doc *goquery.Document, markdown string) map[string]any {
	out := map[string]any{}

	source := markdown
	if doc != nil {
		source = doc.Text() + "\n" + markdown
	}

	if emails := dedupeStrings(emailPattern.FindAllString(source, 10)); len(emails) > 0 {
		out["emails"] = emails
	}
	if phones := dedupeStrings(phonePattern.FindAllString(source, 10)); len(phones) > 0 {
		out["phones"] = phones
	}

	if doc != nil {
		if addr := strings.TrimSpace(doc.Find("address").First().Text()); addr != "" {
			out["address"] = collapseSpace(addr)
		}

		var social []string
		doc.Find(`a[href*="twitter.com"], a[href*="x.com"], a[href*="linkedin.com"], a[href*="github.com"], a[href*="facebook.com"], a[href*="instagram.com"]`).Each(func(_ int, a *goquery.Selection) {
			if href, ok := a.Attr("href"); ok {
				social = append(social, href)
			}
		})
		if social = dedupeStrings(social); len(social) > 0 {
			out["social"] = social
		}
	}

	return out
}

func extractArticle(doc *goquery.Document, markdown string) map[string]any {
	out := map[string]any{
		"wordCount": len(strings.Fields(markdown)),
	}
	if doc == nil {
		return out
	}

	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		out["title"] = title
	} else if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		out["title"] = title
	}
	if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && author != "" {
		out["author"] = author
	}
	if published, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok && published != "" {
		out["published"] = published
	}

	var headings []string
	doc.Find("h2, h3").Each(func(_ int, h *goquery.Selection) {
		if len(headings) >= 20 {
			return
		}
		if t := strings.TrimSpace(h.Text()); t != "" {
			headings = append(headings, t)
		}
	})
	if len(headings) > 0 {
		out["headings"] = headings
	}

	return out
}

func extractAPIDocs(markdown string) map[string]any {
	var endpoints []map[string]any
	seen := map[string]bool{}

	for _, m := range endpointPattern.FindAllStringSubmatch(markdown, 100) {
		key := m[1] + " " + m[2]
		if seen[key] {
			continue
		}
		seen[key] = true
		endpoints = append(endpoints, map[string]any{
			"method": m[1],
			"path":   m[2],
		})
	}

	return map[string]any{"endpoints": endpoints}
}

func itemprop(node *goquery.Selection, name string) string {
	sel := node.Find(`[itemprop="` + name + `"]`).First()
	if sel.Length() == 0 {
		return ""
	}
	if v, ok := sel.Attr("content"); ok && v != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(sel.Text())
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
