// Package domains holds per-host extractors that reach a site's own
// public API instead of parsing rendered HTML. They run before the
// fetch engine and bypass browser overhead entirely.
package domains

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is structured output from a domain extractor.
type Result struct {
	Title     string
	Content   string
	Data      map[string]any
	Links     []string
	SourceURL string
}

// Extractor adapts one site's public API.
type Extractor interface {
	Name() string
	Matches(u *url.URL) bool
	Extract(ctx context.Context, u *url.URL) (*Result, error)
}

// Registry resolves the extractor for a URL. Extractors are registered
// at construction; first match wins.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds the default registry with the built-in extractors.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Registry{
		extractors: []Extractor{
			&redditExtractor{client: client},
			&hackerNewsExtractor{client: client},
			&githubExtractor{client: client},
			&youtubeExtractor{client: client},
		},
	}
}

// Find returns the extractor matching the URL's host, if any.
func (r *Registry) Find(u *url.URL) (Extractor, bool) {
	for _, e := range r.extractors {
		if e.Matches(u) {
			return e, true
		}
	}
	return nil, false
}

func hostIs(u *url.URL, hosts ...string) bool {
	h := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, want := range hosts {
		if h == want {
			return true
		}
	}
	return false
}
