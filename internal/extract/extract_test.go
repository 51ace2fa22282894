package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestSelectorExtract(t *testing.T) {
	doc := docFrom(t, `<html><body>
<h1>Page Title</h1>
<ul><li class="tag">go</li><li class="tag">web</li></ul>
<a class="home" href="https://example.com">home</a>
</body></html>`)

	out := selectorExtract(doc, map[string]string{
		"title":   "h1",
		"tags":    "li.tag",
		"link":    "a.home@href",
		"missing": ".nope",
		"blank":   "  ",
	})

	if out["title"] != "Page Title" {
		t.Fatalf("title = %v", out["title"])
	}
	tags, ok := out["tags"].([]string)
	if !ok || len(tags) != 2 || tags[0] != "go" {
		t.Fatalf("tags = %v", out["tags"])
	}
	if out["link"] != "https://example.com" {
		t.Fatalf("link = %v", out["link"])
	}
	if _, present := out["missing"]; present {
		t.Fatal("selector without matches should omit the key")
	}
	if _, present := out["blank"]; present {
		t.Fatal("blank selector should be skipped")
	}
}

func TestRunDispatchesModes(t *testing.T) {
	svc := NewService(nil)
	doc := docFrom(t, `<html><body><h1>T</h1></body></html>`)

	out, err := svc.Run(context.Background(), doc, "", "https://e.com", nil, nil)
	if err != nil || out != nil {
		t.Fatalf("nil spec should be a no-op, got %v, %v", out, err)
	}
}

func TestExtractPricingPlanCards(t *testing.T) {
	doc := docFrom(t, `<html><body>
<section class="pricing">
  <div class="plan"><h3>Starter</h3><p>$9/mo</p></div>
  <div class="plan"><h3>Team</h3><p>$29/mo</p></div>
</section>
</body></html>`)

	out := extractPricing(doc, "")
	plans, ok := out["plans"].([]map[string]any)
	if !ok || len(plans) != 2 {
		t.Fatalf("plans = %v", out)
	}
	if plans[0]["name"] != "Starter" || plans[0]["price"] != "$9/mo" {
		t.Fatalf("first plan = %v", plans[0])
	}
}

func TestExtractPricingMarkdownFallback(t *testing.T) {
	out := extractPricing(nil, "Starter costs $9.99 and Pro costs $29 USD yearly. Also $9.99 again.")
	prices, ok := out["prices"].([]string)
	if !ok || len(prices) < 1 {
		t.Fatalf("prices = %v", out)
	}
	for i, p := range prices {
		for j, q := range prices {
			if i != j && p == q {
				t.Fatalf("duplicate price %q survived dedupe", p)
			}
		}
	}
}

func TestExtractProductsMicrodata(t *testing.T) {
	doc := docFrom(t, `<html><body>
<div itemscope itemtype="https://schema.org/Product">
  <span itemprop="name">Widget</span>
  <meta itemprop="price" content="19.99">
  <span itemprop="description">A fine widget.</span>
</div>
</body></html>`)

	out := extractProducts(doc)
	products, ok := out["products"].([]map[string]any)
	if !ok || len(products) != 1 {
		t.Fatalf("products = %v", out)
	}
	if products[0]["name"] != "Widget" || products[0]["price"] != "19.99" {
		t.Fatalf("product = %v", products[0])
	}
}

func TestExtractProductsCardFallback(t *testing.T) {
	doc := docFrom(t, `<html><body>
<div class="product-card"><h3>Gadget</h3><span>$5.00</span></div>
</body></html>`)

	out := extractProducts(doc)
	products := out["products"].([]map[string]any)
	if len(products) != 1 || products[0]["name"] != "Gadget" {
		t.Fatalf("products = %v", products)
	}
}

func TestExtractContact(t *testing.T) {
	doc := docFrom(t, `<html><body>
<p>Reach us at hello@example.com or +1 (555) 123-4567.</p>
<address>1 Main St,
Springfield</address>
<a href="https://twitter.com/example">tw</a>
<a href="https://github.com/example">gh</a>
<a href="https://twitter.com/example">dup</a>
</body></html>`)

	out := extractContact(doc, "")
	emails, _ := out["emails"].([]string)
	if len(emails) != 1 || emails[0] != "hello@example.com" {
		t.Fatalf("emails = %v", out["emails"])
	}
	if _, ok := out["phones"]; !ok {
		t.Fatalf("phone not found: %v", out)
	}
	if out["address"] != "1 Main St, Springfield" {
		t.Fatalf("address = %v", out["address"])
	}
	social, _ := out["social"].([]string)
	if len(social) != 2 {
		t.Fatalf("social = %v", social)
	}
}

func TestExtractArticle(t *testing.T) {
	doc := docFrom(t, `<html><head>
<title>Fallback Title</title>
<meta name="author" content="Jane Doe">
<meta property="article:published_time" content="2024-03-01T00:00:00Z">
</head><body>
<h1>Real Title</h1>
<h2>Part One</h2><p>text</p>
<h3>Detail</h3><p>text</p>
</body></html>`)

	out := extractArticle(doc, "one two three four")
	if out["title"] != "Real Title" {
		t.Fatalf("title = %v", out["title"])
	}
	if out["author"] != "Jane Doe" {
		t.Fatalf("author = %v", out["author"])
	}
	if out["published"] != "2024-03-01T00:00:00Z" {
		t.Fatalf("published = %v", out["published"])
	}
	if out["wordCount"] != 4 {
		t.Fatalf("wordCount = %v", out["wordCount"])
	}
	headings, _ := out["headings"].([]string)
	if len(headings) != 2 || headings[0] != "Part One" {
		t.Fatalf("headings = %v", headings)
	}
}

func TestExtractAPIDocs(t *testing.T) {
	md := "## Endpoints\n\nGET /v1/users\nPOST /v1/users\nGET /v1/users\nDELETE /v1/users/{id}\n"
	out := extractAPIDocs(md)
	endpoints, ok := out["endpoints"].([]map[string]any)
	if !ok || len(endpoints) != 3 {
		t.Fatalf("endpoints = %v", out)
	}
	if endpoints[0]["method"] != "GET" || endpoints[0]["path"] != "/v1/users" {
		t.Fatalf("first endpoint = %v", endpoints[0])
	}
	if endpoints[2]["path"] != "/v1/users/{id}" {
		t.Fatalf("third endpoint = %v", endpoints[2])
	}
}

func TestAutoExtractUnknownMode(t *testing.T) {
	if _, err := autoExtract(nil, "", "horoscope"); err == nil {
		t.Fatal("expected error for unknown auto mode")
	}
}
