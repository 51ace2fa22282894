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

// braveProvider queries the Brave Search API, authoritative when a key
// is configured and Google is not.
type braveProvider struct {
	key     string
	baseURL string
	client  *http.Client
}

func newBraveProvider(key string, timeout time.Duration) *braveProvider {
	return &braveProvider{
		key:     key,
		baseURL: "https://api.search.brave.com/res/v1/web/search",
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *braveProvider) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (p *braveProvider) Search(ctx context.Context, query string, count int) ([]rawHit, error) {
	values := url.Values{}
	values.Set("q", query)
	if count > 0 {
		values.Set("count", strconv.Itoa(count))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.key)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave search returned status %d", resp.StatusCode)
	}

	var payload braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	hits := make([]rawHit, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		hits = append(hits, rawHit{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return hits, nil
}
