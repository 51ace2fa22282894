package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// googleProvider queries the Google Custom Search JSON API. It is
// authoritative: when a key and cx are configured the chain uses it
// exclusively.
type googleProvider struct {
	key     string
	cx      string
	baseURL string
	client  *http.Client
}

func newGoogleProvider(key, cx string, timeout time.Duration) *googleProvider {
	return &googleProvider{
		key:     key,
		cx:      cx,
		baseURL: "https://www.googleapis.com/customsearch/v1",
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *googleProvider) Name() string { return "google" }

type googleCSEResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (p *googleProvider) Search(ctx context.Context, query string, count int) ([]rawHit, error) {
	values := url.Values{}
	values.Set("key", p.key)
	values.Set("cx", p.cx)
	values.Set("q", query)
	if count > 0 && count <= 10 {
		values.Set("num", strconv.Itoa(count))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google cse returned status %d", resp.StatusCode)
	}

	var payload googleCSEResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	hits := make([]rawHit, 0, len(payload.Items))
	for _, item := range payload.Items {
		hits = append(hits, rawHit{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return hits, nil
}
