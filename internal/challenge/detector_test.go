package challenge

import (
	"strings"
	"testing"
)

func TestDetectCloudflareJustAMoment(t *testing.T) {
	html := `<html><head><title>Just a moment...</title></head>
<body><script src="/cdn-cgi/challenge-platform/h/b/orchestrate.js"></script>
<div>Ray ID: 8a2b3c4d5e6f</div></body></html>`

	v := Detect(html, 503)
	if !v.IsChallenge {
		t.Fatalf("expected challenge, got %+v", v)
	}
	if v.Type != TypeCloudflare {
		t.Fatalf("expected cloudflare, got %s", v.Type)
	}
	if v.Confidence < 0.7 {
		t.Fatalf("expected confidence >= 0.7, got %f", v.Confidence)
	}
}

func TestDetectCloudflareTurnstile(t *testing.T) {
	html := `<html><body><div class="cf-turnstile" data-sitekey="x"></div>
<script>window._cf_chl_opt = {};</script></body></html>`

	v := Detect(html, 403)
	if !v.IsChallenge || v.Type != TypeCloudflare {
		t.Fatalf("expected cloudflare challenge, got %+v", v)
	}
}

func TestDetectPerimeterXPressAndHold(t *testing.T) {
	html := `<html><body><div id="px-captcha"></div>
<p>Press &amp; Hold to confirm you are a human (and not a bot).</p>
<script>window._pxAppId = 'PX12345';</script></body></html>`

	v := Detect(strings.ReplaceAll(html, "&amp;", "&"), 403)
	if !v.IsChallenge || v.Type != TypePerimeterX {
		t.Fatalf("expected perimeterx challenge, got %+v", v)
	}
}

func TestDetectAkamai(t *testing.T) {
	html := `<html><body><script src="https://cdn.akamaized.net/akam/13/abc"></script>
<script src="/bmak.js"></script><script>document.cookie="_bm_sz=1";</script></body></html>`

	v := Detect(html, 403)
	if !v.IsChallenge || v.Type != TypeAkamai {
		t.Fatalf("expected akamai challenge, got %+v", v)
	}
}

func TestDetectDataDome(t *testing.T) {
	html := `<html><body><script src="https://ct.datadome.co/c.js"></script>
<iframe src="https://geo.captcha-delivery.com/captcha/"></iframe></body></html>`

	v := Detect(html, 403)
	if !v.IsChallenge || v.Type != TypeDataDome {
		t.Fatalf("expected datadome challenge, got %+v", v)
	}
}

func TestDetectIncapsula(t *testing.T) {
	html := `<html><body><script src="/incapsula.js"></script>
<div>Incapsula incident ID: 123-456</div></body></html>`

	v := Detect(html, 503)
	if !v.IsChallenge || v.Type != TypeIncapsula {
		t.Fatalf("expected incapsula challenge, got %+v", v)
	}
}

func TestDetectEmptyShell(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><head>`)
	for i := 0; i < 5; i++ {
		b.WriteString(`<script src="/chunk.js"></script>`)
	}
	b.WriteString(`</head><body><div id="__next"></div>`)
	b.WriteString(strings.Repeat("<!-- webpack asset manifest padding -->", 60))
	b.WriteString(`</body></html>`)

	v := Detect(b.String(), 200)
	if !v.IsChallenge || v.Type != TypeEmptyShell {
		t.Fatalf("expected empty shell, got %+v", v)
	}
}

func TestDetectGenericBlock(t *testing.T) {
	html := `<html><body><h1>Access Denied</h1><div>Reference #18.abc</div></body></html>`

	v := Detect(html, 403)
	if !v.IsChallenge || v.Type != TypeGenericBlock {
		t.Fatalf("expected generic block, got %+v", v)
	}
	if v.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85 for block status, got %f", v.Confidence)
	}
}

// An article discussing captchas and Cloudflare must never be flagged.
func TestDetectArticleAboutCaptchasIsNotChallenge(t *testing.T) {
	para := "<p>" + strings.Repeat("CAPTCHA systems like Cloudflare Turnstile protect sites from automated abuse. ", 8) + "</p>"
	html := `<html><head><title>How CAPTCHAs Work</title></head><body>
<h1>How CAPTCHAs Work</h1>` + strings.Repeat(para, 5) + `</body></html>`

	v := Detect(html, 200)
	if v.IsChallenge {
		t.Fatalf("article about captchas flagged as challenge: %+v", v)
	}
}

func TestDetectLoginPageIsNotChallenge(t *testing.T) {
	html := `<html><head><title>Sign in</title></head><body>
<form action="/login" method="post">
<p>Enter your email address and password to access your account dashboard.</p>
<input name="email"><input type="password" name="password">
<button>Sign in</button></form></body></html>`

	v := Detect(html, 200)
	if v.IsChallenge {
		t.Fatalf("login page flagged as challenge: %+v", v)
	}
}

func TestDetect404PageIsNotChallenge(t *testing.T) {
	html := `<html><body><h1>Page not found</h1>
<p>The page you were looking for does not exist. It may have been moved or deleted over time.</p>
</body></html>`

	v := Detect(html, 404)
	if v.IsChallenge {
		t.Fatalf("404 page flagged as challenge: %+v", v)
	}
}

func TestDetectJSONResponseIsNotChallenge(t *testing.T) {
	v := Detect(`{"items":[{"id":1,"name":"widget"}],"total":1}`, 200)
	if v.IsChallenge {
		t.Fatalf("json response flagged as challenge: %+v", v)
	}
}

func TestContainsLexicon(t *testing.T) {
	if !ContainsLexicon("Checking your browser... Just a Moment") {
		t.Fatal("expected lexicon hit")
	}
	if ContainsLexicon("a perfectly ordinary sentence about cooking") {
		t.Fatal("unexpected lexicon hit")
	}
}
