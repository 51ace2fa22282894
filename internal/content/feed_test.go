package content

import (
	"strings"
	"testing"
)

const rssFixture = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Engineering Blog</title>
<item><title>First Post</title><link>https://blog.example.com/first</link>
<description>A post about &lt;b&gt;things&lt;/b&gt; we shipped recently.</description></item>
<item><title>Second Post</title><link>https://blog.example.com/second</link>
<description>Another update.</description></item>
</channel></rss>`

const atomFixture = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Atom Feed</title>
<entry><title>Entry One</title>
<link rel="alternate" href="https://example.org/one"/>
<summary>Summary one.</summary></entry>
</feed>`

func TestParseFeedRSS(t *testing.T) {
	feed, ok := ParseFeed([]byte(rssFixture))
	if !ok {
		t.Fatal("expected RSS feed to parse")
	}
	if feed.Title != "Engineering Blog" {
		t.Fatalf("unexpected title %q", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(feed.Items))
	}
	if !strings.HasPrefix(feed.Content, "# Engineering Blog") {
		t.Fatalf("content should start with channel heading:\n%s", feed.Content)
	}
	if !strings.Contains(feed.Content, "## First Post") {
		t.Fatalf("item heading missing:\n%s", feed.Content)
	}
	if len(feed.Links) != 2 || feed.Links[0] != "https://blog.example.com/first" {
		t.Fatalf("unexpected links %v", feed.Links)
	}
}

func TestParseFeedAtom(t *testing.T) {
	feed, ok := ParseFeed([]byte(atomFixture))
	if !ok {
		t.Fatal("expected Atom feed to parse")
	}
	if !feed.IsAtom {
		t.Fatal("expected IsAtom")
	}
	if feed.Title != "Atom Feed" {
		t.Fatalf("unexpected title %q", feed.Title)
	}
	if len(feed.Links) != 1 || feed.Links[0] != "https://example.org/one" {
		t.Fatalf("unexpected links %v", feed.Links)
	}
}

func TestParseFeedRejectsHTML(t *testing.T) {
	if _, ok := ParseFeed([]byte("<html><body>not a feed</body></html>")); ok {
		t.Fatal("plain HTML should not parse as a feed")
	}
}
