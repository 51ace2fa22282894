package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// redditExtractor reads posts and comments through Reddit's public
// .json endpoint, skipping the heavily scripted web UI.
type redditExtractor struct {
	client *http.Client
}

func (e *redditExtractor) Name() string { return "reddit" }

func (e *redditExtractor) Matches(u *url.URL) bool {
	return hostIs(u, "reddit.com", "old.reddit.com") && strings.Contains(u.Path, "/comments/")
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Title       string `json:"title"`
				Selftext    string `json:"selftext"`
				Author      string `json:"author"`
				Subreddit   string `json:"subreddit"`
				Score       int    `json:"score"`
				NumComments int    `json:"num_comments"`
				URL         string `json:"url"`
				Body        string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (e *redditExtractor) Extract(ctx context.Context, u *url.URL) (*Result, error) {
	apiURL := "https://www.reddit.com" + strings.TrimSuffix(u.Path, "/") + ".json?limit=40"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "webpeel/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit api returned status %d", resp.StatusCode)
	}

	var listings []redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, err
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, fmt.Errorf("reddit api returned no post")
	}

	post := listings[0].Data.Children[0].Data

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", post.Title)
	fmt.Fprintf(&b, "r/%s, posted by u/%s, %d points, %d comments\n\n", post.Subreddit, post.Author, post.Score, post.NumComments)
	if post.Selftext != "" {
		b.WriteString(post.Selftext + "\n\n")
	}

	var links []string
	if post.URL != "" && !strings.Contains(post.URL, "reddit.com") {
		links = append(links, post.URL)
	}

	if len(listings) > 1 {
		b.WriteString("## Comments\n\n")
		count := 0
		for _, child := range listings[1].Data.Children {
			if child.Kind != "t1" || child.Data.Body == "" {
				continue
			}
			fmt.Fprintf(&b, "**u/%s** (%d points): %s\n\n", child.Data.Author, child.Data.Score, child.Data.Body)
			count++
			if count >= 20 {
				break
			}
		}
	}

	return &Result{
		Title:   post.Title,
		Content: strings.TrimSpace(b.String()),
		Data: map[string]any{
			"subreddit": post.Subreddit,
			"author":    post.Author,
			"score":     post.Score,
			"comments":  post.NumComments,
		},
		Links:     links,
		SourceURL: u.String(),
	}, nil
}
