package pipeline

import (
	"strings"
	"testing"
)

func TestTruncateHTMLAtBlock(t *testing.T) {
	html := "<div><p>one</p><p>two</p><p>three</p></div>"

	if got := truncateHTMLAtBlock(html, len(html)+10); got != html {
		t.Fatalf("under-limit input modified: %q", got)
	}

	got := truncateHTMLAtBlock(html, 20)
	if !strings.HasSuffix(got, "</p>") {
		t.Fatalf("cut not at a block boundary: %q", got)
	}
	if strings.Contains(got, "two") {
		t.Fatalf("cut too late: %q", got)
	}
}

func TestTruncateHTMLAtBlockNoBoundary(t *testing.T) {
	html := strings.Repeat("x", 100)
	got := truncateHTMLAtBlock(html, 40)
	if len(got) != 40 {
		t.Fatalf("boundary-free input should hard-cut at the limit, got %d chars", len(got))
	}
}

func TestLooksLikeJSON(t *testing.T) {
	if !looksLikeJSON([]byte(`  {"a": 1}`)) {
		t.Fatal("object not recognized")
	}
	if !looksLikeJSON([]byte(`[1, 2, 3]`)) {
		t.Fatal("array not recognized")
	}
	if looksLikeJSON([]byte(`{"a": `)) {
		t.Fatal("invalid json accepted")
	}
	if looksLikeJSON([]byte(`<html>`)) {
		t.Fatal("html accepted")
	}
	if looksLikeJSON(nil) {
		t.Fatal("empty body accepted")
	}
}

func TestLooksLikeXML(t *testing.T) {
	for _, ok := range []string{`<?xml version="1.0"?><root/>`, `<rss version="2.0">`, `<feed xmlns="http://www.w3.org/2005/Atom">`} {
		if !looksLikeXML([]byte(ok)) {
			t.Fatalf("%q not recognized as xml", ok)
		}
	}
	if looksLikeXML([]byte(`<html><body></body></html>`)) {
		t.Fatal("html accepted as xml")
	}
}
