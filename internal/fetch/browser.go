package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog/log"
	"github.com/ysmood/gson"

	"webpeel/internal/config"
	"webpeel/internal/model"
)

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0"

// browserTier drives a Chromium-family browser through rod, optionally
// with stealth patches and the cloaked proxy/humanized variant.
type browserTier struct {
	fetcherCfg config.FetcherConfig
	browserCfg config.BrowserConfig
	stealth    bool
}

func newBrowserTier(fetcherCfg config.FetcherConfig, browserCfg config.BrowserConfig, useStealth bool) *browserTier {
	return &browserTier{fetcherCfg: fetcherCfg, browserCfg: browserCfg, stealth: useStealth}
}

func (t *browserTier) Fetch(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, req.Timeout())
	defer cancel()

	res, err := t.fetchOnce(ctx, req, "")
	if err != nil {
		return nil, err
	}

	// A stealth fetch that rendered nothing meaningful gets one retry
	// under a Firefox fingerprint, which dodges Chromium-specific IP
	// blocks on cloud ranges.
	if t.stealth && t.fetcherCfg.CloudIPFirefoxFallback && meaningless(res.Body) {
		log.Debug().Str("url", req.URL).Msg("stealth fetch returned no content, retrying with firefox fingerprint")
		retry, rerr := t.fetchOnce(ctx, req, firefoxUA)
		if rerr == nil {
			res.Release()
			return retry, nil
		}
	}

	return res, nil
}

func (t *browserTier) fetchOnce(ctx context.Context, req Request, uaOverride string) (result *Result, err error) {
	l := launcher.New().
		Headless(!t.browserCfg.Headed && !req.Headed).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled")
	profileDir := t.browserCfg.ProfileDir
	if req.ProfileDir != "" {
		profileDir = req.ProfileDir
	}
	if profileDir != "" {
		l = l.UserDataDir(profileDir)
	}
	if req.Cloaked {
		if proxy := pickProxy(req, t.browserCfg.Proxies); proxy != "" {
			l = l.Proxy(proxy)
		}
	}

	var browser *rod.Browser
	if t.browserCfg.ControlURL != "" {
		browser = rod.New().ControlURL(t.browserCfg.ControlURL).Context(ctx)
	} else {
		controlURL, lerr := l.Launch()
		if lerr != nil {
			return nil, &NetworkError{URL: req.URL, Err: lerr}
		}
		browser = rod.New().ControlURL(controlURL).Context(ctx)
	}
	if err := browser.Connect(); err != nil {
		return nil, classifyBrowserError(req.URL, err)
	}

	// Close everything unless ownership of live handles is handed to
	// the caller at the end.
	keepOpen := false
	defer func() {
		if !keepOpen {
			_ = browser.Close()
		}
	}()

	var page *rod.Page
	if t.stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, classifyBrowserError(req.URL, err)
	}
	defer func() {
		if !keepOpen {
			_ = page.Close()
		}
	}()

	page = page.Context(ctx)

	preset, hasPreset := devicePresets[strings.ToLower(req.Device)]

	width, height := t.viewport(req)
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: width, Height: height, DeviceScaleFactor: 1, Mobile: hasPreset && preset.mobile,
	}); err != nil {
		return nil, classifyBrowserError(req.URL, err)
	}

	ua := uaOverride
	if ua == "" {
		ua = req.UserAgent
	}
	if ua == "" && hasPreset {
		ua = preset.userAgent
	}
	if ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			return nil, classifyBrowserError(req.URL, err)
		}
	}

	applyHeaders(page, req)
	applyCookies(page, req)
	if req.StorageState != "" {
		applyStorageState(page, req.StorageState)
	}

	var router *rod.HijackRouter
	if req.BlockResources {
		router = blockHeavyResources(page)
		defer func() {
			if router != nil {
				_ = router.Stop()
			}
		}()
	}

	if err := page.Navigate(req.URL); err != nil {
		return nil, classifyBrowserError(req.URL, err)
	}

	t.waitForPage(page, req)

	if req.WaitMs > 0 {
		select {
		case <-ctx.Done():
			return nil, &TimeoutError{URL: req.URL}
		case <-time.After(time.Duration(req.WaitMs) * time.Millisecond):
		}
	}

	if req.Cloaked {
		humanizeMouse(page, width, height)
	}

	var screenshot []byte
	if len(req.Actions) > 0 {
		actionShot, aerr := ExecuteActions(ctx, page, req.Actions)
		if aerr != nil {
			return nil, aerr
		}
		screenshot = actionShot
	}

	html, err := page.HTML()
	if err != nil {
		return nil, classifyBrowserError(req.URL, err)
	}

	if req.Screenshot && screenshot == nil {
		shot, serr := page.Screenshot(req.FullPage, nil)
		if serr != nil {
			log.Debug().Err(serr).Str("url", req.URL).Msg("screenshot capture failed")
		} else {
			screenshot = shot
		}
	}

	status := pageStatus(page)
	finalURL := req.URL
	if info, ierr := page.Info(); ierr == nil && info.URL != "" {
		finalURL = info.URL
	}

	method := model.MethodBrowser
	if t.stealth {
		method = model.MethodStealth
	}

	result = &Result{
		Body:        []byte(html),
		FinalURL:    finalURL,
		Status:      status,
		ContentType: "text/html",
		Method:      method,
		Screenshot:  screenshot,
	}

	if req.KeepPageOpen {
		keepOpen = true
		result.Page = page
		result.Browser = browser
	}

	return result, nil
}

// devicePresets back the device option: viewport plus a matching user
// agent when the caller supplied neither.
type devicePreset struct {
	width, height int
	mobile        bool
	userAgent     string
}

var devicePresets = map[string]devicePreset{
	"mobile":  {width: 390, height: 844, mobile: true, userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"},
	"tablet":  {width: 820, height: 1180, mobile: true, userAgent: "Mozilla/5.0 (iPad; CPU OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"},
	"desktop": {width: 1366, height: 900},
}

func (t *browserTier) viewport(req Request) (int, int) {
	width, height := req.ViewportWidth, req.ViewportHeight
	if preset, ok := devicePresets[strings.ToLower(req.Device)]; ok {
		if width <= 0 {
			width = preset.width
		}
		if height <= 0 {
			height = preset.height
		}
	}
	if width <= 0 {
		width = t.browserCfg.ViewportWidth
	}
	if height <= 0 {
		height = t.browserCfg.ViewportHeight
	}
	if width <= 0 {
		width = 1366
	}
	if height <= 0 {
		height = 900
	}
	if req.Cloaked && req.ViewportWidth <= 0 {
		width += rand.Intn(160) - 80
		height += rand.Intn(120) - 60
	}
	return width, height
}

func (t *browserTier) waitForPage(page *rod.Page, req Request) {
	switch strings.ToLower(req.WaitUntil) {
	case "load":
		_ = page.WaitLoad()
	case "networkidle", "networkidle0", "networkidle2":
		page.Timeout(10 * time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	default: // domcontentloaded
		if err := page.Timeout(10 * time.Second).WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
			log.Debug().Err(err).Str("url", req.URL).Msg("dom did not stabilize, proceeding")
		}
	}

	if req.WaitSelector != "" {
		if _, err := page.Timeout(10 * time.Second).Element(req.WaitSelector); err != nil {
			log.Debug().Err(err).Str("selector", req.WaitSelector).Msg("wait selector not found")
		}
	}
}

func applyHeaders(page *rod.Page, req Request) {
	if len(req.Headers) == 0 {
		return
	}
	headers := make(proto.NetworkHeaders, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = gson.New(v)
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: headers}.Call(page)
}

// storageStateFile is the subset of a Playwright-style storage state
// file the browser tiers replay: cookies only.
type storageStateFile struct {
	Cookies []struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Domain string `json:"domain"`
		Path   string `json:"path"`
	} `json:"cookies"`
}

func applyStorageState(page *rod.Page, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("storage state not readable")
		return
	}
	var state storageStateFile
	if err := json.Unmarshal(data, &state); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("storage state is not valid json")
		return
	}
	for _, c := range state.Cookies {
		p := c.Path
		if p == "" {
			p = "/"
		}
		_, _ = proto.NetworkSetCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   p,
		}.Call(page)
	}
}

func applyCookies(page *rod.Page, req Request) {
	if len(req.Cookies) == 0 {
		return
	}
	domain := ""
	if u, err := url.Parse(req.URL); err == nil {
		domain = u.Hostname()
	}
	for name, value := range req.Cookies {
		_, _ = proto.NetworkSetCookie{
			Name:   name,
			Value:  value,
			Domain: domain,
			Path:   "/",
		}.Call(page)
	}
}

// blockHeavyResources drops image, media, and font requests to speed up
// rendering when the caller only wants the DOM.
func blockHeavyResources(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()
	for _, rt := range []proto.NetworkResourceType{
		proto.NetworkResourceTypeImage,
		proto.NetworkResourceTypeMedia,
		proto.NetworkResourceTypeFont,
	} {
		if err := router.Add("*", rt, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		}); err != nil {
			log.Debug().Err(err).Msg("resource block rule not installed")
		}
	}
	go router.Run()
	return router
}

// humanizeMouse performs a few linear mouse movements before actions
// run, mimicking a person settling onto the page.
func humanizeMouse(page *rod.Page, width, height int) {
	for i := 0; i < 3; i++ {
		x := float64(rand.Intn(width))
		y := float64(rand.Intn(height))
		if err := page.Mouse.MoveLinear(proto.NewPoint(x, y), 12+rand.Intn(10)); err != nil {
			return
		}
		time.Sleep(time.Duration(80+rand.Intn(170)) * time.Millisecond)
	}
}

// proxyCursor drives round-robin selection when proxy cycling is on.
var proxyCursor atomic.Uint32

func pickProxy(req Request, configProxies []string) string {
	pool := req.Proxies
	if len(pool) == 0 {
		pool = configProxies
	}
	if len(pool) == 0 {
		return ""
	}
	if req.Cycle {
		return pool[int(proxyCursor.Add(1)-1)%len(pool)]
	}
	return pool[rand.Intn(len(pool))]
}

// pageStatus reads the navigation status code via the performance API;
// a rendered page without one reports 200.
func pageStatus(page *rod.Page) int {
	res, err := page.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err == nil {
		if code := res.Value.Int(); code > 0 {
			return code
		}
	}
	return 200
}

// meaningless reports whether rendered HTML carries no visible text.
func meaningless(body []byte) bool {
	s := string(body)
	s = strings.TrimSpace(stripTags(s))
	return len(s) < 20
}

var tagStripper = strings.NewReplacer("\n", " ", "\t", " ")

func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return tagStripper.Replace(b.String())
}

func classifyBrowserError(rawURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: rawURL}
	}
	return &NetworkError{URL: rawURL, Err: err}
}
