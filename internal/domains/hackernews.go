package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"webpeel/internal/content"
)

// hackerNewsExtractor reads items through the Algolia HN API.
type hackerNewsExtractor struct {
	client *http.Client
}

func (e *hackerNewsExtractor) Name() string { return "hackernews" }

func (e *hackerNewsExtractor) Matches(u *url.URL) bool {
	return hostIs(u, "news.ycombinator.com") && u.Query().Get("id") != ""
}

type hnItem struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Points   int      `json:"points"`
	URL      string   `json:"url"`
	Text     string   `json:"text"`
	Children []hnItem `json:"children"`
}

func (e *hackerNewsExtractor) Extract(ctx context.Context, u *url.URL) (*Result, error) {
	id := u.Query().Get("id")
	apiURL := "https://hn.algolia.com/api/v1/items/" + id

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hn api returned status %d", resp.StatusCode)
	}

	var item hnItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	if item.Title == "" && item.Text == "" {
		return nil, fmt.Errorf("hn item %s is empty", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", item.Title)
	fmt.Fprintf(&b, "posted by %s, %d points\n\n", item.Author, item.Points)
	if item.URL != "" {
		fmt.Fprintf(&b, "%s\n\n", item.URL)
	}
	if item.Text != "" {
		b.WriteString(content.HTMLToText(item.Text, 0) + "\n\n")
	}

	if len(item.Children) > 0 {
		b.WriteString("## Comments\n\n")
		count := 0
		for _, c := range item.Children {
			if c.Text == "" {
				continue
			}
			fmt.Fprintf(&b, "**%s**: %s\n\n", c.Author, content.HTMLToText(c.Text, 0))
			count++
			if count >= 20 {
				break
			}
		}
	}

	var links []string
	if item.URL != "" {
		links = append(links, item.URL)
	}

	return &Result{
		Title:   item.Title,
		Content: strings.TrimSpace(b.String()),
		Data: map[string]any{
			"author": item.Author,
			"points": item.Points,
		},
		Links:     links,
		SourceURL: u.String(),
	}, nil
}
