package content

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractJSONLDRecipe(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@type":"Recipe","name":"Pancakes",
"description":"Fluffy breakfast pancakes made from scratch with simple pantry staples.",
"recipeYield":"4 servings",
"recipeIngredient":["2 cups flour","2 eggs","1 cup milk"]}
</script></head><body></body></html>`

	ld, ok := ExtractJSONLD(mustDoc(t, html), 100)
	if !ok {
		t.Fatal("expected JSON-LD record")
	}
	if ld.Type != "Recipe" {
		t.Fatalf("expected Recipe, got %s", ld.Type)
	}
	if ld.Title != "Pancakes" {
		t.Fatalf("expected title Pancakes, got %q", ld.Title)
	}
	if !strings.HasPrefix(ld.Content, "# Pancakes") {
		t.Fatalf("content should start with heading, got %q", ld.Content[:30])
	}
	if !strings.Contains(ld.Content, "- 2 cups flour") {
		t.Fatalf("ingredient list missing from content:\n%s", ld.Content)
	}
}

func TestExtractJSONLDSkipsBreadcrumbsAndWebsite(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
[{"@type":"BreadcrumbList","itemListElement":[]},
{"@type":"WebSite","name":"Example","url":"https://example.com"},
{"@type":"Article","headline":"Real Article","description":"` + strings.Repeat("x", 120) + `"}]
</script></head><body></body></html>`

	ld, ok := ExtractJSONLD(mustDoc(t, html), 100)
	if !ok {
		t.Fatal("expected JSON-LD record")
	}
	if ld.Type != "Article" {
		t.Fatalf("expected Article, got %s", ld.Type)
	}
}

func TestExtractJSONLDGraph(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
{"@type":"Organization","name":"Acme"},
{"@type":"Article","headline":"Graph Article","description":"` + strings.Repeat("y", 150) + `"}]}
</script></head><body></body></html>`

	ld, ok := ExtractJSONLD(mustDoc(t, html), 100)
	if !ok {
		t.Fatal("expected JSON-LD record")
	}
	if ld.Type != "Article" {
		t.Fatalf("expected Article from @graph, got %s", ld.Type)
	}
}

func TestExtractJSONLDTooShort(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@type":"Article","headline":"Tiny"}
</script></head><body></body></html>`

	if _, ok := ExtractJSONLD(mustDoc(t, html), 100); ok {
		t.Fatal("short record should not satisfy minChars")
	}
}
