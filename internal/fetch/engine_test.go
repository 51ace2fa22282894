package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"webpeel/internal/challenge"
	"webpeel/internal/config"
	"webpeel/internal/model"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Browser.Enabled = false
	cfg.Robots.Respect = false
	return cfg
}

func TestEngineFetchSimple(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("missing browser user agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Hello</title></head><body><article><p>Plain page served over plain HTTP with enough words to look like real prose.</p></article></body></html>`))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig())
	res, err := engine.Fetch(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer res.Release()

	if res.Method != model.MethodSimple {
		t.Fatalf("method = %q, want %q", res.Method, model.MethodSimple)
	}
	if res.Status != 200 {
		t.Fatalf("status = %d", res.Status)
	}
	if !strings.Contains(res.HTML(), "Hello") {
		t.Fatalf("body missing title: %q", res.HTML())
	}
	if !strings.Contains(res.ContentType, "text/html") {
		t.Fatalf("content type = %q", res.ContentType)
	}
}

func TestEngineFetchGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			t.Errorf("gzip not offered: %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/html")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`<html><body><p>compressed body text</p></body></html>`))
		gz.Close()
	}))
	defer srv.Close()

	engine := NewEngine(testConfig())
	res, err := engine.Fetch(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer res.Release()

	if !strings.Contains(res.HTML(), "compressed body text") {
		t.Fatalf("gzip body not decoded: %q", res.HTML())
	}
}

func TestEngineFetchFollowsRedirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		w.Write([]byte(`<html><body><p>landed</p></body></html>`))
	}))
	defer target.Close()

	engine := NewEngine(testConfig())
	res, err := engine.Fetch(context.Background(), Request{URL: target.URL + "/old"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer res.Release()

	if !strings.HasSuffix(res.FinalURL, "/new") {
		t.Fatalf("final url = %q, want redirect target", res.FinalURL)
	}
}

func TestEngineFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	engine := NewEngine(testConfig())
	_, err := engine.Fetch(context.Background(), Request{URL: srv.URL})
	var bad *BadStatusError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadStatusError, got %v", err)
	}
	if bad.Status != 404 {
		t.Fatalf("status = %d", bad.Status)
	}
}

func TestEngineChallengeWithoutBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`<html><head><title>Just a moment...</title>
<meta http-equiv="refresh" content="35">
<style>body{font-family:system-ui;background:#fff;color:#222}.spacer{margin:8rem auto;width:60%}</style></head>
<body><div class="spacer"><h1>example.com</h1>
<div id="challenge-body-text">Verifying your connection before continuing to the site. This process is automatic and the page will redirect once complete.</div>
<script src="/cdn-cgi/challenge-platform/h/b/orchestrate/chl_page/v1?ray=8a2b3c4d5e6f"></script>
<noscript><div id="challenge-error-title">Please stand by while the request is reviewed.</div></noscript>
<div class="footer">Ray ID: <code>8a2b3c4d5e6f</code><br>Performance &amp; security by Cloudflare</div>
</div></body></html>`))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig())
	res, err := engine.Fetch(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer res.Release()

	if !res.ChallengeDetected {
		t.Fatal("challenge flag not set when no higher tier exists")
	}
	if res.Status != 503 {
		t.Fatalf("status = %d", res.Status)
	}
}

func TestEngineBlockedErrorOnTinyChallengeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<html><head><title>Just a moment...</title></head><body><div class="cf-ray">Ray ID: 7f0a1b2c</div></body></html>`))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig())
	_, err := engine.Fetch(context.Background(), Request{URL: srv.URL})
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if blocked.Status != 403 {
		t.Fatalf("status = %d", blocked.Status)
	}
	if blocked.Verdict.Type != challenge.TypeCloudflare {
		t.Fatalf("verdict type = %q", blocked.Verdict.Type)
	}
}

func TestEngineRenderFallsBackWhenBrowserDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><article><p>Static rendition works fine without a browser in the loop.</p></article></body></html>`))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig())
	res, err := engine.Fetch(context.Background(), Request{URL: srv.URL, Render: true, Stealth: true})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer res.Release()

	if res.Method != model.MethodSimple {
		t.Fatalf("method = %q, want %q", res.Method, model.MethodSimple)
	}
}

func TestEngineRobotsDisallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.Write([]byte(`<html><body>secret</body></html>`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Robots.Respect = true
	engine := NewEngine(cfg)

	_, err := engine.Fetch(context.Background(), Request{URL: srv.URL + "/private/page"})
	var disallowed *DisallowedError
	if !errors.As(err, &disallowed) {
		t.Fatalf("expected DisallowedError, got %v", err)
	}

	res, err := engine.Fetch(context.Background(), Request{URL: srv.URL + "/public"})
	if err != nil {
		t.Fatalf("allowed path rejected: %v", err)
	}
	res.Release()
}

func TestValidateURL(t *testing.T) {
	if _, err := ValidateURL(" https://example.com/page "); err != nil {
		t.Fatalf("valid url rejected: %v", err)
	}
	for _, raw := range []string{"ftp://example.com", "example.com", "//example.com", ""} {
		if _, err := ValidateURL(raw); err == nil {
			t.Fatalf("ValidateURL(%q) accepted", raw)
		}
	}
}

func TestRequestTimeoutDefault(t *testing.T) {
	r := Request{}
	if r.Timeout().Seconds() != 30 {
		t.Fatalf("default timeout = %v", r.Timeout())
	}
	r.TimeoutMs = 1500
	if r.Timeout().Milliseconds() != 1500 {
		t.Fatalf("explicit timeout = %v", r.Timeout())
	}
}
