package model

// Format identifies the requested output format for peeled content.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatClean    Format = "clean"
)

// ContentType is the detected class of a fetched body.
type ContentType string

const (
	ContentTypeHTML     ContentType = "html"
	ContentTypeJSON     ContentType = "json"
	ContentTypeXML      ContentType = "xml"
	ContentTypeText     ContentType = "text"
	ContentTypeDocument ContentType = "document"
)

// Method tags how the final content was acquired.
const (
	MethodSimple            = "simple"
	MethodStealth           = "stealth"
	MethodBrowser           = "browser"
	MethodCached            = "cached"
	MethodDomainAPI         = "domain-api"
	MethodDomainAPIFallback = "domain-api-fallback"
	MethodSearchFallback    = "search-fallback"
)

// Action is a normalized browser interaction executed during a rendered fetch.
type Action struct {
	Type      string `json:"type"`
	Selector  string `json:"selector,omitempty"`
	Value     string `json:"value,omitempty"`
	Ms        int    `json:"ms,omitempty"`
	Key       string `json:"key,omitempty"`
	Direction string `json:"direction,omitempty"`
	Amount    int    `json:"amount,omitempty"`
	To        string `json:"to,omitempty"`
	TimeoutMs int    `json:"timeout,omitempty"`
}

// LLMOptions carries bring-your-own-key overrides for LLM-backed features.
type LLMOptions struct {
	APIKey  string `json:"apiKey,omitempty"`
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// ExtractField names a field the LLM extractor should produce.
type ExtractField struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// ExtractSpec describes a structured-extraction request: a CSS selector
// schema, an LLM field list, or a named auto-extract heuristic.
type ExtractSpec struct {
	Fields    []ExtractField    `json:"fields,omitempty"`
	Selectors map[string]string `json:"selectors,omitempty"`
	Prompt    string            `json:"prompt,omitempty"`
	Auto      string            `json:"auto,omitempty"`
}

// LocationOptions describes geo-related hints applied to request headers.
type LocationOptions struct {
	Country   string   `json:"country,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// PeelOptions is the full caller-facing option set for a peel invocation.
// Absent fields take documented defaults.
type PeelOptions struct {
	Render         bool              `json:"render,omitempty"`
	Stealth        bool              `json:"stealth,omitempty"`
	Cloaked        bool              `json:"cloaked,omitempty"`
	WaitMs         int               `json:"wait,omitempty"`
	Format         Format            `json:"format,omitempty"`
	TimeoutMs      int               `json:"timeout,omitempty"`
	UserAgent      string            `json:"userAgent,omitempty"`
	Screenshot     bool              `json:"screenshot,omitempty"`
	FullPage       bool              `json:"fullPage,omitempty"`
	Selector       string            `json:"selector,omitempty"`
	Exclude        []string          `json:"exclude,omitempty"`
	IncludeTags    []string          `json:"includeTags,omitempty"`
	ExcludeTags    []string          `json:"excludeTags,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Cookies        map[string]string `json:"cookies,omitempty"`
	Raw            bool              `json:"raw,omitempty"`
	Actions        []Action          `json:"actions,omitempty"`
	Extract        *ExtractSpec      `json:"extract,omitempty"`
	MaxTokens      int               `json:"maxTokens,omitempty"`
	Images         bool              `json:"images,omitempty"`
	MaxAgeMs       int               `json:"maxAge,omitempty"`
	Proxies        []string          `json:"proxies,omitempty"`
	Cycle          bool              `json:"cycle,omitempty"`
	ProfileDir     string            `json:"profileDir,omitempty"`
	Headed         bool              `json:"headed,omitempty"`
	StorageState   string            `json:"storageState,omitempty"`
	Device         string            `json:"device,omitempty"`
	ViewportWidth  int               `json:"viewportWidth,omitempty"`
	ViewportHeight int               `json:"viewportHeight,omitempty"`
	WaitUntil      string            `json:"waitUntil,omitempty"`
	WaitSelector   string            `json:"waitSelector,omitempty"`
	BlockResources bool              `json:"blockResources,omitempty"`
	AgentMode      bool              `json:"agentMode,omitempty"`
	Budget         int               `json:"budget,omitempty"`
	Question       string            `json:"question,omitempty"`
	Lite           bool              `json:"lite,omitempty"`
	Readable       bool              `json:"readable,omitempty"`
	Chunk          int               `json:"chunk,omitempty"`
	Branding       bool              `json:"branding,omitempty"`
	ChangeTracking bool              `json:"changeTracking,omitempty"`
	Summary        bool              `json:"summary,omitempty"`
	LLM            *LLMOptions       `json:"llm,omitempty"`
	Location       *LocationOptions  `json:"location,omitempty"`
	AutoScroll     bool              `json:"autoScroll,omitempty"`
}

// NeedsRender reports whether any option forces a browser-rendered fetch.
func (o *PeelOptions) NeedsRender() bool {
	return o.Render || o.Stealth || o.Cloaked || o.Screenshot ||
		o.Branding || o.AutoScroll || len(o.Actions) > 0 ||
		o.Headed || o.Device != "" || o.StorageState != "" || o.ProfileDir != ""
}

// Metadata holds page metadata extracted from the document head plus an
// open extension map for site-specific fields.
type Metadata struct {
	Title         string         `json:"title,omitempty"`
	Description   string         `json:"description,omitempty"`
	Language      string         `json:"language,omitempty"`
	Keywords      string         `json:"keywords,omitempty"`
	Robots        string         `json:"robots,omitempty"`
	Author        string         `json:"author,omitempty"`
	Byline        string         `json:"byline,omitempty"`
	SiteName      string         `json:"siteName,omitempty"`
	Published     string         `json:"published,omitempty"`
	OgTitle       string         `json:"ogTitle,omitempty"`
	OgDescription string         `json:"ogDescription,omitempty"`
	OgURL         string         `json:"ogUrl,omitempty"`
	OgImage       string         `json:"ogImage,omitempty"`
	OgSiteName    string         `json:"ogSiteName,omitempty"`
	Favicon       string         `json:"favicon,omitempty"`
	SourceURL     string         `json:"sourceURL,omitempty"`
	StatusCode    int            `json:"statusCode"`
	Pages         int            `json:"pages,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// QuickAnswer is the lexical answer extracted for a caller question.
type QuickAnswer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Passage    string  `json:"passage,omitempty"`
}

// ReadabilityResult carries reader-mode extraction output.
type ReadabilityResult struct {
	Content   string `json:"content"`
	Title     string `json:"title,omitempty"`
	Byline    string `json:"byline,omitempty"`
	SiteName  string `json:"siteName,omitempty"`
	Published string `json:"published,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
}

// BrandingProfile describes visual identity signals gathered from a page.
type BrandingProfile struct {
	ThemeColor string   `json:"themeColor,omitempty"`
	Background string   `json:"background,omitempty"`
	TextColor  string   `json:"textColor,omitempty"`
	Fonts      []string `json:"fonts,omitempty"`
	Logo       string   `json:"logo,omitempty"`
	Favicon    string   `json:"favicon,omitempty"`
	OgImage    string   `json:"ogImage,omitempty"`
}

// ChangeTracking reports whether content changed since the prior fetch.
type ChangeTracking struct {
	Fingerprint     string `json:"fingerprint"`
	PrevFingerprint string `json:"prevFingerprint,omitempty"`
	Changed         bool   `json:"changed"`
	FirstSeen       bool   `json:"firstSeen,omitempty"`
	CheckedAt       string `json:"checkedAt,omitempty"`
}

// Timing records per-stage elapsed milliseconds for one invocation.
type Timing map[string]int64

// PeelResult is the stable output record of a pipeline invocation.
// New fields are additive.
type PeelResult struct {
	URL            string             `json:"url"`
	Title          string             `json:"title,omitempty"`
	Content        string             `json:"content"`
	Metadata       Metadata           `json:"metadata"`
	Links          []string           `json:"links,omitempty"`
	Images         []string           `json:"images,omitempty"`
	LinkCount      int                `json:"linkCount,omitempty"`
	Tokens         int                `json:"tokens"`
	Method         string             `json:"method"`
	ElapsedMs      int64              `json:"elapsedMs"`
	Screenshot     string             `json:"screenshot,omitempty"`
	ContentType    ContentType        `json:"contentType"`
	Quality        float64            `json:"quality"`
	Fingerprint    string             `json:"fingerprint,omitempty"`
	Extracted      map[string]any     `json:"extracted,omitempty"`
	Branding       *BrandingProfile   `json:"branding,omitempty"`
	ChangeTracking *ChangeTracking    `json:"changeTracking,omitempty"`
	Summary        string             `json:"summary,omitempty"`
	Freshness      map[string]string  `json:"freshness,omitempty"`
	Warning        string             `json:"warning,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
	Blocked        bool               `json:"blocked,omitempty"`
	PrunedPercent  float64            `json:"prunedPercent,omitempty"`
	BudgetFallback bool               `json:"budgetFallback,omitempty"`
	DomainData     map[string]any     `json:"domainData,omitempty"`
	Readability    *ReadabilityResult `json:"readability,omitempty"`
	QuickAnswer    *QuickAnswer       `json:"quickAnswer,omitempty"`
	Timing         Timing             `json:"timing,omitempty"`
	JSONLDType     string             `json:"jsonLdType,omitempty"`
	Chunks         []string           `json:"chunks,omitempty"`
}

// SearchResult is a single normalized hit from the search provider chain.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}
