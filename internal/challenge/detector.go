// Package challenge classifies bot-protection interstitials and empty
// SPA shells from fetched HTML.
package challenge

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Type names a recognized challenge class.
type Type string

const (
	TypeCloudflare   Type = "cloudflare"
	TypePerimeterX   Type = "perimeterx"
	TypeAkamai       Type = "akamai"
	TypeDataDome     Type = "datadome"
	TypeIncapsula    Type = "incapsula"
	TypeGenericBlock Type = "generic-block"
	TypeEmptyShell   Type = "empty-shell"
	TypeNone         Type = "none"
)

// Verdict is the classifier output. IsChallenge holds exactly when
// Confidence >= 0.7.
type Verdict struct {
	IsChallenge bool
	Type        Type
	Confidence  float64
	Signals     []string
}

// signal is one lexical marker for a provider. Dispositive signals
// count double: one of them alone is near-proof of the provider.
type signal struct {
	marker      string
	dispositive bool
}

var providerSignals = map[Type][]signal{
	TypeCloudflare: {
		{marker: "cf-turnstile"},
		{marker: "/cdn-cgi/challenge-platform/"},
		{marker: "cf_chl_opt"},
		{marker: "just a moment", dispositive: true},
		{marker: "cf-ray"},
		{marker: "ray id"},
		{marker: "cf-error-overview"},
		{marker: "attention required"},
	},
	TypePerimeterX: {
		{marker: "_pxappid"},
		{marker: "_pxuuid"},
		{marker: "px-captcha"},
		{marker: "_pxcaptcha"},
		{marker: "_px3"},
		{marker: "_pxvid"},
		{marker: "press & hold to confirm", dispositive: true},
	},
	TypeAkamai: {
		{marker: "akamaized.net/akam/"},
		{marker: "bmak.js"},
		{marker: "_bm_sz"},
		{marker: "ak_bmsc"},
	},
	TypeDataDome: {
		{marker: "ct.datadome.co"},
		{marker: "captcha-delivery.com"},
		{marker: "ddjskey"},
		{marker: "datadome-captcha"},
	},
	TypeIncapsula: {
		{marker: "incapsula.js"},
		{marker: "incap_ses_"},
		{marker: "visid_incap_"},
		{marker: "incapsula incident id"},
	},
}

var genericMarkers = []string{
	"access denied",
	"verify you are human",
	"blocked",
	"bot protection",
	"captcha",
	"please enable javascript and cookies",
}

var mountIDs = []string{"__next", "root", "app", "__nuxt"}

// blockStatus reports whether an HTTP status is a typical block response.
func blockStatus(code int) bool {
	return code == 403 || code == 429 || code == 503
}

// Detect classifies HTML plus its HTTP status. An article that merely
// discusses captchas must not trigger: pages with over 1500 chars of
// visible text and no dispositive DOM hooks are never a block.
func Detect(html string, statusCode int) Verdict {
	lower := strings.ToLower(html)

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	visible := ""
	if docErr == nil {
		visible = visibleText(doc)
	}

	if v, ok := detectEmptyShell(doc, docErr, html, visible); ok {
		return v
	}

	// False-positive gate: substantive pages only match on dispositive
	// DOM hooks, never on keyword density alone.
	substantive := len(visible) > 1500

	best := Verdict{Type: TypeNone}
	for typ, signals := range providerSignals {
		matched := 0
		var hits []string
		dispositiveHit := false
		for _, s := range signals {
			if strings.Contains(lower, s.marker) {
				hits = append(hits, s.marker)
				if s.dispositive {
					matched += 2
					dispositiveHit = true
				} else {
					matched++
				}
			}
		}
		if matched < 2 {
			continue
		}
		if substantive && !dispositiveHit {
			continue
		}

		conf := 0.35 * float64(matched)
		if blockStatus(statusCode) {
			conf += 0.15
		}
		if conf > 1 {
			conf = 1
		}
		if conf > best.Confidence {
			best = Verdict{Type: typ, Confidence: conf, Signals: hits}
		}
	}

	if best.Confidence >= 0.7 {
		best.IsChallenge = true
		return best
	}

	if v, ok := detectGenericBlock(doc, docErr, lower, visible, statusCode); ok {
		return v
	}

	if best.Type == TypeNone {
		best.Confidence = 0
	}
	best.IsChallenge = false
	return best
}

func detectEmptyShell(doc *goquery.Document, docErr error, html, visible string) (Verdict, bool) {
	if docErr != nil || len(html) <= 2000 || len(visible) >= 200 {
		return Verdict{}, false
	}
	if doc.Find("script").Length() < 4 {
		return Verdict{}, false
	}
	for _, id := range mountIDs {
		if doc.Find("#" + id).Length() > 0 {
			return Verdict{
				IsChallenge: true,
				Type:        TypeEmptyShell,
				Confidence:  0.8,
				Signals:     []string{"mount:" + id},
			}, true
		}
	}
	return Verdict{}, false
}

func detectGenericBlock(doc *goquery.Document, docErr error, lower, visible string, statusCode int) (Verdict, bool) {
	lexical := false
	var hit string
	for _, m := range genericMarkers {
		if strings.Contains(lower, m) {
			lexical = true
			hit = m
			break
		}
	}

	// A substantive paragraph anywhere disqualifies a generic block.
	if docErr == nil {
		hasPara := false
		doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(strings.TrimSpace(s.Text())) > 40 {
				hasPara = true
				return false
			}
			return true
		})
		if hasPara {
			return Verdict{}, false
		}
	}

	small := len(lower) < 2000
	if (blockStatus(statusCode) && lexical) || (small && lexical) {
		conf := 0.7
		if blockStatus(statusCode) {
			conf = 0.85
		}
		return Verdict{
			IsChallenge: true,
			Type:        TypeGenericBlock,
			Confidence:  conf,
			Signals:     []string{hit},
		}, true
	}
	return Verdict{}, false
}

func visibleText(doc *goquery.Document) string {
	clone := doc.Clone()
	clone.Find("script,style,noscript,template").Remove()
	return strings.TrimSpace(clone.Text())
}

// LexiconTerms are the challenge-lexicon markers used by the pipeline's
// post-parse re-detection on small content.
var LexiconTerms = []string{
	"verify human", "verify you are human", "cloudflare", "ray id",
	"captcha", "just a moment", "access denied", "403", "404",
	"bot protection",
}

// ContainsLexicon reports whether the text contains any challenge
// lexicon term, case-insensitively.
func ContainsLexicon(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range LexiconTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
