// Package fetch implements the tiered fetch strategy engine: plain HTTP,
// headless browsing, stealth browsing, and the cloaked variant, with
// challenge-driven escalation between tiers.
package fetch

import (
	"net/http"
	"time"

	"github.com/go-rod/rod"

	"webpeel/internal/model"
)

// Request is an immutable description of a single fetch.
type Request struct {
	URL            string
	Render         bool
	Stealth        bool
	Cloaked        bool
	WaitMs         int
	UserAgent      string
	Headers        map[string]string
	Cookies        map[string]string
	Actions        []model.Action
	TimeoutMs      int
	Proxies        []string
	Cycle          bool
	ProfileDir     string
	Headed         bool
	StorageState   string
	Device         string
	ViewportWidth  int
	ViewportHeight int
	WaitUntil      string
	WaitSelector   string
	BlockResources bool
	Screenshot     bool
	FullPage       bool
	KeepPageOpen   bool
}

// Timeout returns the request deadline as a duration, defaulting to 30s.
func (r *Request) Timeout() time.Duration {
	if r.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// Result carries the bytes and handles produced by a fetch strategy.
type Result struct {
	Body              []byte
	FinalURL          string
	Status            int
	ContentType       string
	Method            string
	Screenshot        []byte
	Headers           http.Header
	ChallengeDetected bool

	// Live handles, populated only when KeepPageOpen was requested.
	// The receiver owns them and must call Release on all exit paths.
	Page    *rod.Page
	Browser *rod.Browser
}

// Release tears down any live browser handles. Safe to call twice.
func (r *Result) Release() {
	if r.Page != nil {
		_ = r.Page.Close()
		r.Page = nil
	}
	if r.Browser != nil {
		_ = r.Browser.Close()
		r.Browser = nil
	}
}

// HTML returns the body as a string.
func (r *Result) HTML() string {
	return string(r.Body)
}
