package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"webpeel/internal/model"
)

func TestDecodeRedirectDDG(t *testing.T) {
	raw := "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage%3Fa%3D1&rut=abc"
	got := DecodeRedirect(raw)
	if got != "https://example.com/page?a=1" {
		t.Fatalf("DecodeRedirect = %q", got)
	}
}

func TestDecodeRedirectGoogle(t *testing.T) {
	raw := "https://www.google.com/url?q=https://example.org/doc&sa=U"
	got := DecodeRedirect(raw)
	if got != "https://example.org/doc" {
		t.Fatalf("DecodeRedirect = %q", got)
	}
}

func TestDecodeRedirectPassthrough(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/",
		"https://google.com/search?q=not+a+redirect",
		"",
	} {
		if got := DecodeRedirect(raw); got != raw {
			t.Fatalf("DecodeRedirect(%q) = %q, want passthrough", raw, got)
		}
	}
}

func TestNormalizeRejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"", "javascript:alert(1)", "mailto:a@b.c", "/relative/path"} {
		if _, ok := Normalize("title", raw, "snippet"); ok {
			t.Fatalf("Normalize accepted %q", raw)
		}
	}
}

func TestNormalizeClampsAndTrims(t *testing.T) {
	longTitle := ""
	for i := 0; i < 30; i++ {
		longTitle += "abcdefghij"
	}
	r, ok := Normalize("  "+longTitle+"  ", "https://example.com/a", "...snippet text...")
	if !ok {
		t.Fatal("Normalize rejected valid result")
	}
	if len(r.Title) != maxTitleLen {
		t.Fatalf("title length = %d, want %d", len(r.Title), maxTitleLen)
	}
	if r.Snippet != "snippet text" {
		t.Fatalf("snippet = %q, want ellipses stripped", r.Snippet)
	}
}

func TestNormalizeClampKeepsRunesWhole(t *testing.T) {
	multibyte := strings.Repeat("é", maxTitleLen) // 2 bytes each
	r, ok := Normalize(multibyte, "https://example.com/a", strings.Repeat("日", maxSnippetLen))
	if !ok {
		t.Fatal("Normalize rejected valid result")
	}
	if !utf8.ValidString(r.Title) {
		t.Fatalf("title clamp split a rune: %q", r.Title[len(r.Title)-4:])
	}
	if len(r.Title) > maxTitleLen {
		t.Fatalf("title length = %d", len(r.Title))
	}
	if !utf8.ValidString(r.Snippet) {
		t.Fatal("snippet clamp split a rune")
	}
	if len(r.Snippet) > maxSnippetLen {
		t.Fatalf("snippet length = %d", len(r.Snippet))
	}
}

func TestNormalizeUnwrapsRedirectFirst(t *testing.T) {
	r, ok := Normalize("T", "//duckduckgo.com/l/?uddg=https%3A%2F%2Ftarget.example%2F", "")
	if !ok {
		t.Fatal("Normalize rejected wrapped URL")
	}
	if r.URL != "https://target.example/" {
		t.Fatalf("URL = %q", r.URL)
	}
}

func TestDedupeByNormalizedURL(t *testing.T) {
	in := []model.SearchResult{
		{Title: "first", URL: "https://example.com/page"},
		{Title: "dup-trailing-slash", URL: "https://example.com/page/"},
		{Title: "dup-fragment", URL: "https://example.com/page#section"},
		{Title: "other", URL: "https://example.com/other"},
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("Dedupe kept %d results, want 2", len(out))
	}
	if out[0].Title != "first" || out[1].Title != "other" {
		t.Fatalf("Dedupe order wrong: %q, %q", out[0].Title, out[1].Title)
	}
}

func TestRewriteQueriesVariants(t *testing.T) {
	variants := RewriteQueries("openai")
	if len(variants) > 6 {
		t.Fatalf("got %d variants, want at most 6", len(variants))
	}
	if variants[0] != "openai" {
		t.Fatalf("first variant = %q, want original query", variants[0])
	}
	want := map[string]bool{
		`"openai"`:       false,
		"openai site:*":  false,
		"openai website": false,
		"openai.com":     false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for v, seen := range want {
		if !seen {
			t.Fatalf("missing variant %q in %v", v, variants)
		}
	}
}

func TestRewriteQueriesSplitsCompound(t *testing.T) {
	variants := RewriteQueries("deepgramai")
	found := false
	for _, v := range variants {
		if v == "deepgram ai" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no compound split in %v", variants)
	}
}

func TestRewriteQueriesNoSplitForPhrases(t *testing.T) {
	for _, v := range RewriteQueries("best coffee shops") {
		if v == "best coffee shops.com" {
			t.Fatalf("domain guess added for multi-word query: %v", v)
		}
	}
}
