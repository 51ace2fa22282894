package search

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func serpDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

const ddgHTMLFixture = `<html><body>
<div class="result__body">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">The Go Programming Language</a>
  <div class="result__snippet">Go is an open source programming language.</div>
</div>
<div class="result__body">
  <a class="result__a" href="https://golang.org/doc/">Documentation</a>
  <div class="result__snippet">Learn how to use Go.</div>
</div>
<div class="result__body">
  <a class="result__a" href="https://example.com/ad"></a>
</div>
</body></html>`

func TestParseDDGHTML(t *testing.T) {
	hits := parseDDGHTML(serpDoc(t, ddgHTMLFixture), 10)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2 (titleless result dropped)", len(hits))
	}
	if hits[0].Title != "The Go Programming Language" {
		t.Fatalf("title = %q", hits[0].Title)
	}
	if !strings.Contains(hits[0].URL, "uddg=") {
		t.Fatalf("raw URL should keep the redirect wrapper, got %q", hits[0].URL)
	}
	if hits[1].Snippet != "Learn how to use Go." {
		t.Fatalf("snippet = %q", hits[1].Snippet)
	}
}

func TestParseDDGHTMLHonorsCount(t *testing.T) {
	hits := parseDDGHTML(serpDoc(t, ddgHTMLFixture), 1)
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
}

const ddgLiteFixture = `<html><body><table>
<tr><td><a class="result-link" href="https://go.dev/">The Go Programming Language</a></td></tr>
<tr><td class="result-snippet">Build simple, secure, scalable systems.</td></tr>
<tr><td><a class="result-link" href="https://pkg.go.dev/">Go Packages</a></td></tr>
<tr><td class="result-snippet">Search for Go packages.</td></tr>
</table></body></html>`

func TestParseDDGLite(t *testing.T) {
	hits := parseDDGLite(serpDoc(t, ddgLiteFixture), 10)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].URL != "https://go.dev/" {
		t.Fatalf("URL = %q", hits[0].URL)
	}
	if hits[0].Snippet != "Build simple, secure, scalable systems." {
		t.Fatalf("snippet = %q", hits[0].Snippet)
	}
}

const bingFixture = `<html><body><ol id="b_results">
<li class="b_algo">
  <h2><a href="https://go.dev/">The Go Programming Language</a></h2>
  <div class="b_caption"><p>Go is expressive, concise, clean, and efficient.</p></div>
</li>
<li class="b_algo">
  <h2><a href="https://go.dev/tour/">A Tour of Go</a></h2>
  <p>Welcome to a tour of the Go programming language.</p>
</li>
</ol></body></html>`

func TestParseBing(t *testing.T) {
	hits := parseBing(serpDoc(t, bingFixture), 10)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Snippet != "Go is expressive, concise, clean, and efficient." {
		t.Fatalf("caption snippet = %q", hits[0].Snippet)
	}
	if hits[1].Snippet != "Welcome to a tour of the Go programming language." {
		t.Fatalf("fallback snippet = %q", hits[1].Snippet)
	}
}

const ecosiaFixture = `<html><body>
<div class="result">
  <a class="result__link" href="https://go.dev/"><span>link text</span></a>
  <div class="result__title">The Go Programming Language</div>
  <div class="result__snippet">An open source programming language.</div>
</div>
<article class="result">
  <a data-test-id="result-link" href="https://go.dev/blog/">Blog</a>
  <p>The Go Blog.</p>
</article>
</body></html>`

func TestParseEcosia(t *testing.T) {
	hits := parseEcosia(serpDoc(t, ecosiaFixture), 10)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Title != "The Go Programming Language" {
		t.Fatalf("title = %q", hits[0].Title)
	}
	if hits[1].URL != "https://go.dev/blog/" {
		t.Fatalf("URL = %q", hits[1].URL)
	}
	if hits[1].Snippet != "The Go Blog." {
		t.Fatalf("snippet = %q", hits[1].Snippet)
	}
}
