package content

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JSONLD is a normalized structured-data record lifted from an embedded
// application/ld+json script.
type JSONLD struct {
	Type    string
	Title   string
	Content string
	Data    map[string]any
}

// scalar keys rendered before the remaining fields, in this order.
var jsonldPreferredKeys = []string{"description", "headline", "author", "datePublished", "recipeYield", "prepTime", "cookTime"}

// ExtractJSONLD scans ld+json scripts and returns the first normalized
// record whose rendered content is at least minChars long. Arrays and
// @graph containers are flattened; the first typed object wins.
func ExtractJSONLD(doc *goquery.Document, minChars int) (*JSONLD, bool) {
	var found *JSONLD

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}

		for _, obj := range decodeJSONLD(raw) {
			rec := normalizeJSONLD(obj)
			if rec == nil {
				continue
			}
			if len(rec.Content) >= minChars {
				found = rec
				return false
			}
		}
		return true
	})

	return found, found != nil
}

// decodeJSONLD parses a script body into candidate objects, flattening
// top-level arrays and @graph containers.
func decodeJSONLD(raw string) []map[string]any {
	var out []map[string]any

	var single map[string]any
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		if graph, ok := single["@graph"].([]any); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]any); ok {
					out = append(out, m)
				}
			}
			return out
		}
		return []map[string]any{single}
	}

	var list []map[string]any
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	return nil
}

func normalizeJSONLD(obj map[string]any) *JSONLD {
	typ := jsonldType(obj)
	if typ == "" || typ == "BreadcrumbList" || typ == "WebSite" {
		return nil
	}

	title := stringField(obj, "name")
	if title == "" {
		title = stringField(obj, "headline")
	}

	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}

	rendered := map[string]bool{"name": true, "headline": true, "@type": true, "@context": true, "@id": true}
	for _, key := range jsonldPreferredKeys {
		writeJSONLDField(&b, key, obj[key], rendered)
	}

	rest := make([]string, 0, len(obj))
	for k := range obj {
		if !rendered[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		writeJSONLDField(&b, key, obj[key], rendered)
	}

	return &JSONLD{
		Type:    typ,
		Title:   title,
		Content: strings.TrimSpace(b.String()),
		Data:    obj,
	}
}

func writeJSONLDField(b *strings.Builder, key string, val any, rendered map[string]bool) {
	if val == nil || rendered[key] {
		return
	}
	rendered[key] = true

	switch v := val.(type) {
	case string:
		if strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "http") {
			fmt.Fprintf(b, "%s\n\n", strings.TrimSpace(v))
		}
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s := jsonldItemText(item); s != "" {
				items = append(items, "- "+s)
			}
		}
		if len(items) > 0 {
			fmt.Fprintf(b, "%s\n\n", strings.Join(items, "\n"))
		}
	case map[string]any:
		if s := jsonldItemText(v); s != "" {
			fmt.Fprintf(b, "%s\n\n", s)
		}
	case float64:
		fmt.Fprintf(b, "%s: %v\n\n", key, v)
	}
}

func jsonldItemText(item any) string {
	switch v := item.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, k := range []string{"text", "name"} {
			if s := stringField(v, k); s != "" {
				return s
			}
		}
	}
	return ""
}

func jsonldType(obj map[string]any) string {
	switch t := obj["@type"].(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
