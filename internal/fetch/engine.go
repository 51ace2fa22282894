package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"

	"webpeel/internal/challenge"
	"webpeel/internal/config"
)

// tier identifies a fetch strategy level; escalation walks upward.
type tier int

const (
	tierSimple tier = iota
	tierBrowser
	tierStealth
)

// minChallengeBody is the smallest challenge body worth handing to the
// pipeline; under it there is nothing to salvage.
const minChallengeBody = 512

// strategy is one fetch tier implementation.
type strategy interface {
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Engine selects and escalates between fetch strategies based on
// request flags and challenge verdicts.
type Engine struct {
	cfg config.Config

	simple  strategy
	browser strategy
	stealth strategy

	robotsMu    sync.Mutex
	robotsCache map[string]*robotstxt.RobotsData
}

// NewEngine builds an engine from process configuration.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		cfg:         *cfg,
		simple:      newSimpleTier(cfg.Fetcher),
		browser:     newBrowserTier(cfg.Fetcher, cfg.Browser, false),
		stealth:     newBrowserTier(cfg.Fetcher, cfg.Browser, true),
		robotsCache: map[string]*robotstxt.RobotsData{},
	}
}

// Fetch acquires the URL with the lowest tier the request allows,
// escalating one level when the challenge detector flags the response
// and a higher tier exists. At the top tier a detected challenge is
// returned with the bytes and ChallengeDetected set, so the pipeline
// can try its search fallback.
func (e *Engine) Fetch(ctx context.Context, req Request) (*Result, error) {
	if e.cfg.Robots.Respect {
		if err := e.checkRobots(ctx, req); err != nil {
			return nil, err
		}
	}

	start := e.startTier(req)
	current := start

	for {
		res, err := e.fetchTier(ctx, current, req)
		if err != nil {
			// One same-tier retry for transient network failures.
			var netErr *NetworkError
			if errors.As(err, &netErr) && e.cfg.Fetcher.RetryNetworkOnce {
				log.Debug().Str("url", req.URL).Msg("network error, retrying once")
				res, err = e.fetchTier(ctx, current, req)
			}
			if err != nil {
				if errors.As(err, &netErr) && current < tierStealth && e.cfg.Browser.Enabled {
					current++
					continue
				}
				return nil, err
			}
		}

		verdict := challenge.Detect(res.HTML(), res.Status)
		if !verdict.IsChallenge {
			if res.Status >= 400 && !blockStatusCode(res.Status) {
				res.Release()
				return nil, &BadStatusError{URL: req.URL, Status: res.Status}
			}
			return res, nil
		}

		log.Debug().
			Str("url", req.URL).
			Str("type", string(verdict.Type)).
			Float64("confidence", verdict.Confidence).
			Msg("challenge detected")

		if current < tierStealth && e.cfg.Browser.Enabled && e.cfg.Fetcher.EscalateOnBlock {
			res.Release()
			current++
			continue
		}

		// A block status with a body too small to mine is a hard block;
		// anything larger goes back flagged so the pipeline can salvage it.
		if blockStatusCode(res.Status) && len(strings.TrimSpace(res.HTML())) < minChallengeBody {
			status := res.Status
			res.Release()
			return nil, &BlockedError{URL: req.URL, Status: status, Verdict: verdict}
		}

		res.ChallengeDetected = true
		return res, nil
	}
}

func (e *Engine) startTier(req Request) tier {
	if !e.cfg.Browser.Enabled {
		return tierSimple
	}
	switch {
	case req.Stealth || req.Cloaked:
		return tierStealth
	case req.Render:
		return tierBrowser
	default:
		return tierSimple
	}
}

func (e *Engine) fetchTier(ctx context.Context, t tier, req Request) (*Result, error) {
	switch t {
	case tierStealth:
		req.Stealth = true
		return e.stealth.Fetch(ctx, req)
	case tierBrowser:
		return e.browser.Fetch(ctx, req)
	default:
		return e.simple.Fetch(ctx, req)
	}
}

func blockStatusCode(code int) bool {
	return code == 403 || code == 429 || code == 503
}

// checkRobots gates simple-tier fetches on the site's robots.txt. The
// group consulted is the configured user agent's product token.
func (e *Engine) checkRobots(ctx context.Context, req Request) error {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil
	}

	robots := e.robotsFor(ctx, u)
	if robots == nil {
		return nil
	}
	if !robots.TestAgent(u.Path, "webpeel") {
		return &DisallowedError{URL: req.URL}
	}
	return nil
}

func (e *Engine) robotsFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host

	e.robotsMu.Lock()
	cached, ok := e.robotsCache[key]
	e.robotsMu.Unlock()
	if ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		robots = nil
	}

	e.robotsMu.Lock()
	e.robotsCache[key] = robots
	e.robotsMu.Unlock()
	return robots
}

// ValidateURL rejects anything but absolute http(s) URLs.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("url must use http or https")
	}
	if u.Host == "" {
		return nil, errors.New("url must be absolute")
	}
	return u, nil
}
