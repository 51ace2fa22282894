package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"

	"webpeel/internal/config"
	"webpeel/internal/model"
)

// simpleTier performs a plain HTTP GET with realistic browser headers.
type simpleTier struct {
	cfg    config.FetcherConfig
	client *http.Client
}

func newSimpleTier(cfg config.FetcherConfig) *simpleTier {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	client := &http.Client{
		Transport: &http.Transport{
			// Accept-Encoding is set manually so brotli can be offered;
			// decompression happens below.
			DisableCompression: true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &simpleTier{cfg: cfg, client: client}
}

func (t *simpleTier) Fetch(ctx context.Context, req Request) (*Result, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	ua := req.UserAgent
	if ua == "" {
		ua = t.cfg.UserAgent
	}
	httpReq.Header.Set("User-Agent", ua)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", t.cfg.AcceptLanguage)
	httpReq.Header.Set("Accept-Encoding", "gzip, br")
	httpReq.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for name, value := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(req.URL, err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &NetworkError{URL: req.URL, Err: err}
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	maxBytes := t.cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	body, err := io.ReadAll(io.LimitReader(reader, maxBytes))
	if err != nil {
		return nil, classifyTransportError(req.URL, err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		Body:        body,
		FinalURL:    finalURL,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Method:      model.MethodSimple,
		Headers:     resp.Header,
	}, nil
}

// classifyTransportError maps transport failures onto the typed error
// taxonomy: deadline exceeded is a timeout, the rest is network.
func classifyTransportError(rawURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: rawURL}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: rawURL}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &TimeoutError{URL: rawURL}
	}
	return &NetworkError{URL: rawURL, Err: err}
}
