package domains

import (
	"net/url"
	"testing"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestRegistryFind(t *testing.T) {
	reg := NewRegistry(nil)

	cases := []struct {
		url  string
		want string
	}{
		{"https://www.reddit.com/r/golang/comments/abc123/some_post/", "reddit"},
		{"https://old.reddit.com/r/golang/comments/abc123/", "reddit"},
		{"https://news.ycombinator.com/item?id=38500000", "hackernews"},
		{"https://github.com/golang/go", "github"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "youtube"},
		{"https://youtu.be/dQw4w9WgXcQ", "youtube"},
	}
	for _, c := range cases {
		e, ok := reg.Find(mustURL(t, c.url))
		if !ok {
			t.Fatalf("no extractor for %s", c.url)
		}
		if e.Name() != c.want {
			t.Fatalf("%s matched %q, want %q", c.url, e.Name(), c.want)
		}
	}
}

func TestRegistryFindNoMatch(t *testing.T) {
	reg := NewRegistry(nil)
	for _, raw := range []string{
		"https://example.com/page",
		"https://www.reddit.com/r/golang/",               // listing, not a thread
		"https://news.ycombinator.com/news",              // front page, no item id
		"https://github.com/golang/go/issues/1",          // deep path renders fine as HTML
		"https://github.com/golang",                      // org page, not owner/repo
		"https://www.youtube.com/feed/subscriptions",     // no video id
		"https://www.youtube.com/watch",                  // watch without v param
	} {
		if e, ok := reg.Find(mustURL(t, raw)); ok {
			t.Fatalf("%s unexpectedly matched %q", raw, e.Name())
		}
	}
}

func TestHostIsStripsWWW(t *testing.T) {
	if !hostIs(mustURL(t, "https://WWW.GitHub.com/a/b"), "github.com") {
		t.Fatal("hostIs should be case-insensitive and ignore www")
	}
	if hostIs(mustURL(t, "https://notgithub.com/a/b"), "github.com") {
		t.Fatal("hostIs matched a different host")
	}
}

func TestVideoID(t *testing.T) {
	if id := videoID(mustURL(t, "https://youtu.be/dQw4w9WgXcQ")); id != "dQw4w9WgXcQ" {
		t.Fatalf("short link id = %q", id)
	}
	if id := videoID(mustURL(t, "https://www.youtube.com/watch?v=abc&t=30s")); id != "abc" {
		t.Fatalf("watch link id = %q", id)
	}
}

func TestExtractPlayerResponse(t *testing.T) {
	page := `<script>var ytInitialPlayerResponse = {"videoDetails":{"title":"A \"quoted\" title","author":"Chan{nel}"}};var other = 1;</script>`
	player, err := extractPlayerResponse(page)
	if err != nil {
		t.Fatalf("extractPlayerResponse: %v", err)
	}
	title, _ := dig(player, "videoDetails", "title").(string)
	if title != `A "quoted" title` {
		t.Fatalf("title = %q", title)
	}
	author, _ := dig(player, "videoDetails", "author").(string)
	if author != "Chan{nel}" {
		t.Fatalf("author = %q, braces inside strings must not end the match", author)
	}
}

func TestExtractPlayerResponseMissing(t *testing.T) {
	if _, err := extractPlayerResponse("<html>no player here</html>"); err == nil {
		t.Fatal("expected error when blob is absent")
	}
	if _, err := extractPlayerResponse(`ytInitialPlayerResponse = {"unterminated": true`); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}

func TestPickCaptionTrackPrefersEnglishManual(t *testing.T) {
	player := map[string]any{
		"captions": map[string]any{
			"playerCaptionsTracklistRenderer": map[string]any{
				"captionTracks": []any{
					map[string]any{"baseUrl": "https://yt/asr", "languageCode": "en", "kind": "asr"},
					map[string]any{"baseUrl": "https://yt/fr", "languageCode": "fr"},
					map[string]any{"baseUrl": "https://yt/en", "languageCode": "en"},
				},
			},
		},
	}
	track := pickCaptionTrack(player)
	if track == nil {
		t.Fatal("no track picked")
	}
	if track.BaseURL != "https://yt/en" {
		t.Fatalf("picked %q, want the manual English track", track.BaseURL)
	}
}

func TestParseTimedText(t *testing.T) {
	raw := `<?xml version="1.0"?><transcript>
<text start="0" dur="2">Hello &amp; welcome</text>
<text start="2" dur="2">  to the show  </text>
<text start="4" dur="1"></text>
</transcript>`
	got := parseTimedText(raw)
	if got != "Hello & welcome to the show" {
		t.Fatalf("parseTimedText = %q", got)
	}
	if parseTimedText("not xml at all <") != "" {
		t.Fatal("malformed xml should yield empty transcript")
	}
}

func TestPickCaptionTrackNone(t *testing.T) {
	if track := pickCaptionTrack(map[string]any{}); track != nil {
		t.Fatalf("expected nil for captionless video, got %+v", track)
	}
}
