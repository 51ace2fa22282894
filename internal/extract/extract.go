// Package extract produces structured fields from a scraped page. Three
// modes: a CSS selector schema, LLM-backed field extraction, and named
// auto-extract heuristics for common page shapes.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"webpeel/internal/llm"
	"webpeel/internal/model"
)

// maxLLMInputChars caps how much markdown is sent to the model.
const maxLLMInputChars = 48000

// Service runs structured extraction. The LLM client factory is called
// lazily so selector and auto modes work without any provider configured.
type Service struct {
	clientFactory func(opts *model.LLMOptions) (llm.Client, error)
}

func NewService(factory func(opts *model.LLMOptions) (llm.Client, error)) *Service {
	return &Service{clientFactory: factory}
}

// Run dispatches on the spec: Selectors wins over Fields wins over Auto.
func (s *Service) Run(ctx context.Context, doc *goquery.Document, markdown, pageURL string, spec *model.ExtractSpec, llmOpts *model.LLMOptions) (map[string]any, error) {
	if spec == nil {
		return nil, nil
	}

	switch {
	case len(spec.Selectors) > 0:
		return selectorExtract(doc, spec.Selectors), nil
	case len(spec.Fields) > 0:
		return s.llmExtract(ctx, pageURL, markdown, spec, llmOpts)
	case spec.Auto != "":
		return autoExtract(doc, markdown, spec.Auto)
	}
	return nil, nil
}

// selectorExtract evaluates each named CSS selector against the document.
// A selector matching one node yields a string, several nodes a string
// slice, none an absent key.
func selectorExtract(doc *goquery.Document, selectors map[string]string) map[string]any {
	out := make(map[string]any, len(selectors))
	if doc == nil {
		return out
	}

	for name, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}

		attr := ""
		// "a.link@href" addresses an attribute instead of text.
		if at := strings.LastIndex(sel, "@"); at > 0 {
			attr = sel[at+1:]
			sel = sel[:at]
		}

		var values []string
		doc.Find(sel).Each(func(_ int, node *goquery.Selection) {
			var v string
			if attr != "" {
				v, _ = node.Attr(attr)
			} else {
				v = node.Text()
			}
			v = strings.TrimSpace(v)
			if v != "" {
				values = append(values, v)
			}
		})

		switch len(values) {
		case 0:
		case 1:
			out[name] = values[0]
		default:
			out[name] = values
		}
	}
	return out
}

func (s *Service) llmExtract(ctx context.Context, pageURL, markdown string, spec *model.ExtractSpec, llmOpts *model.LLMOptions) (map[string]any, error) {
	if s.clientFactory == nil {
		return nil, fmt.Errorf("llm extraction requested but no provider is configured")
	}
	client, err := s.clientFactory(llmOpts)
	if err != nil {
		return nil, err
	}

	if len(markdown) > maxLLMInputChars {
		markdown = markdown[:maxLLMInputChars]
	}
	return client.ExtractFields(ctx, pageURL, markdown, spec.Fields, spec.Prompt)
}

func autoExtract(doc *goquery.Document, markdown, mode string) (map[string]any, error) {
	switch mode {
	case "pricing":
		return extractPricing(doc, markdown), nil
	case "products":
		return extractProducts(doc), nil
	case "contact":
		return extractContact(doc, markdown), nil
	case "article":
		return extractArticle(doc, markdown), nil
	case "api_docs":
		return extractAPIDocs(markdown), nil
	default:
		return nil, fmt.Errorf("unknown auto-extract mode %q", mode)
	}
}
