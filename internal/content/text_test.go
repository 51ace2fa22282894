package content

import (
	"strings"
	"testing"
)

func TestHTMLToTextCapped(t *testing.T) {
	html := "<p>" + strings.Repeat("word ", 100) + "</p>"
	text := HTMLToText(html, 50)
	if len(text) > 50 {
		t.Fatalf("expected <= 50 chars, got %d", len(text))
	}
	if strings.HasSuffix(text, " ") {
		t.Fatal("truncated text should be trimmed")
	}
}

func TestQualityFavorsArticles(t *testing.T) {
	article := `<html><body><article>` +
		strings.Repeat(`<p>This paragraph carries a reasonable amount of real sentence text for scoring purposes.</p>`, 6) +
		`</article></body></html>`
	navSoup := `<html><body><nav>` +
		strings.Repeat(`<a href="/x">link</a>`, 40) +
		`</nav></body></html>`

	qa := Quality(mustDoc(t, article))
	qn := Quality(mustDoc(t, navSoup))
	if qa <= qn {
		t.Fatalf("article quality %f should exceed nav soup quality %f", qa, qn)
	}
	if qa < 0.6 {
		t.Fatalf("article quality too low: %f", qa)
	}
}

func TestTruncateAtWord(t *testing.T) {
	s := "alpha beta gamma delta"
	got := TruncateAtWord(s, 12)
	if got != "alpha beta" {
		t.Fatalf("expected %q, got %q", "alpha beta", got)
	}
	if TruncateAtWord("short", 100) != "short" {
		t.Fatal("under-limit input should be unchanged")
	}
}

func TestCleanMarkdown(t *testing.T) {
	md := "# Title\n\nSee ![alt](https://x.com/i.png) and [docs](https://x.com/docs) or <https://x.com/raw>.\n\n\n\nEnd."
	clean := CleanMarkdown(md)
	if strings.Contains(clean, "![") || strings.Contains(clean, "](") {
		t.Fatalf("link syntax survived: %q", clean)
	}
	if !strings.Contains(clean, "docs") {
		t.Fatalf("link text should survive: %q", clean)
	}
	if strings.Contains(clean, "\n\n\n") {
		t.Fatalf("blank lines not collapsed: %q", clean)
	}
}

func TestDetectMainContentPrefersArticle(t *testing.T) {
	html := `<html><body>
<nav class="nav">` + strings.Repeat(`<a href="/x">menu item</a>`, 10) + `</nav>
<article>` + strings.Repeat(`<p>Substantial body text lives here and makes up most of the page by volume.</p>`, 10) + `</article>
<footer class="footer"><a href="/about">about</a></footer>
</body></html>`

	main := DetectMainContent(mustDoc(t, html))
	if !strings.Contains(main, "Substantial body text") {
		t.Fatalf("main content missing article text:\n%s", main[:min(len(main), 200)])
	}
	if strings.Contains(main, "menu item") {
		t.Fatal("nav content should have been excluded")
	}
}

func TestDetectMainContentKeepsShortPages(t *testing.T) {
	html := `<html><body><div>tiny page</div></body></html>`
	main := DetectMainContent(mustDoc(t, html))
	if !strings.Contains(main, "tiny page") {
		t.Fatalf("short page content lost:\n%s", main)
	}
}
