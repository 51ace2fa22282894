package domains

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// youtubeExtractor pulls the transcript for a video from YouTube's
// caption endpoint instead of rendering the player page.
type youtubeExtractor struct {
	client *http.Client
}

func (e *youtubeExtractor) Name() string { return "youtube" }

func (e *youtubeExtractor) Matches(u *url.URL) bool {
	if hostIs(u, "youtu.be") {
		return strings.Trim(u.Path, "/") != ""
	}
	if hostIs(u, "youtube.com", "m.youtube.com") {
		return u.Path == "/watch" && u.Query().Get("v") != ""
	}
	return false
}

var playerResponseRe = regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*`)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func videoID(u *url.URL) string {
	if hostIs(u, "youtu.be") {
		return strings.Trim(u.Path, "/")
	}
	return u.Query().Get("v")
}

func (e *youtubeExtractor) Extract(ctx context.Context, u *url.URL) (*Result, error) {
	id := videoID(u)
	watchURL := "https://www.youtube.com/watch?v=" + url.QueryEscape(id)

	body, err := e.get(ctx, watchURL)
	if err != nil {
		return nil, err
	}

	player, err := extractPlayerResponse(body)
	if err != nil {
		return nil, err
	}

	title, _ := dig(player, "videoDetails", "title").(string)
	author, _ := dig(player, "videoDetails", "author").(string)
	desc, _ := dig(player, "videoDetails", "shortDescription").(string)

	track := pickCaptionTrack(player)
	var transcript string
	if track != nil {
		if raw, err := e.get(ctx, track.BaseURL); err == nil {
			transcript = parseTimedText(raw)
		}
	}

	if title == "" && transcript == "" {
		return nil, fmt.Errorf("no usable data for video %s", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if author != "" {
		fmt.Fprintf(&b, "by %s\n\n", author)
	}
	if transcript != "" {
		b.WriteString("## Transcript\n\n")
		b.WriteString(transcript + "\n\n")
	} else if desc != "" {
		b.WriteString(desc + "\n\n")
	}

	return &Result{
		Title:   title,
		Content: strings.TrimSpace(b.String()),
		Data: map[string]any{
			"videoId":       id,
			"author":        author,
			"hasTranscript": transcript != "",
		},
		SourceURL: "https://www.youtube.com/watch?v=" + id,
	}, nil
}

func (e *youtubeExtractor) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("youtube returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractPlayerResponse finds the ytInitialPlayerResponse JSON blob in
// the watch page by brace matching from its assignment.
func extractPlayerResponse(page string) (map[string]any, error) {
	loc := playerResponseRe.FindStringIndex(page)
	if loc == nil {
		return nil, fmt.Errorf("player response not found")
	}
	rest := page[loc[1]:]
	end := matchBraces(rest)
	if end < 0 {
		return nil, fmt.Errorf("player response is truncated")
	}

	var player map[string]any
	if err := json.Unmarshal([]byte(rest[:end]), &player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return player, nil
}

func matchBraces(s string) int {
	depth := 0
	inStr := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func pickCaptionTrack(player map[string]any) *captionTrack {
	raw, ok := dig(player, "captions", "playerCaptionsTracklistRenderer", "captionTracks").([]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	var tracks []captionTrack
	for _, t := range raw {
		blob, err := json.Marshal(t)
		if err != nil {
			continue
		}
		var ct captionTrack
		if json.Unmarshal(blob, &ct) == nil && ct.BaseURL != "" {
			tracks = append(tracks, ct)
		}
	}
	if len(tracks) == 0 {
		return nil
	}

	// Prefer manual English captions, then auto-generated, then whatever exists.
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") && t.Kind != "asr" {
			return &t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return &t
		}
	}
	return &tracks[0]
}

type timedTextDoc struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(raw string) string {
	var doc timedTextDoc
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return ""
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		line := strings.TrimSpace(html.UnescapeString(t.Body))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = node[k]
	}
	return cur
}
