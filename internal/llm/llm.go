// Package llm talks to hosted LLM providers over their raw HTTP APIs.
// It backs structured field extraction and on-demand summaries; no SDKs,
// just the minimal request shapes each provider needs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"webpeel/internal/config"
	"webpeel/internal/model"
)

// Provider names a logical LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

const (
	extractSystem = "You are a JSON-only extractor. Respond with a single JSON object and no extra text."
	summarySystem = "You summarize web pages. Respond with a concise summary in plain prose, 3-5 sentences, no preamble."
)

// Client is the interface the extraction pipeline programs against.
type Client interface {
	// ExtractFields asks the model for a JSON object with exactly the
	// requested field names.
	ExtractFields(ctx context.Context, pageURL, markdown string, fields []model.ExtractField, prompt string) (map[string]any, error)
	// Summarize produces a short prose summary of the content.
	Summarize(ctx context.Context, pageURL, markdown string) (string, error)
}

// completer is the provider-specific primitive: one system + user turn in,
// assistant text out. jsonOutput asks for JSON-mode responses where the
// provider supports them.
type completer interface {
	complete(ctx context.Context, system, user string, jsonOutput bool) (string, error)
}

type client struct {
	backend completer
}

// New builds a Client from config plus optional per-request overrides.
// Override key/model/baseURL come from bring-your-own-key callers and
// take precedence over configured values.
func New(cfg *config.Config, opts *model.LLMOptions) (Client, error) {
	prov := Provider(cfg.LLM.DefaultProvider)

	key := func(configured string) string {
		if opts != nil && opts.APIKey != "" {
			return opts.APIKey
		}
		return configured
	}
	mdl := func(configured string) string {
		if opts != nil && opts.Model != "" {
			return opts.Model
		}
		return configured
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	var backend completer
	switch prov {
	case ProviderOpenAI, "":
		apiKey := key(cfg.LLM.OpenAI.APIKey)
		modelName := mdl(cfg.LLM.OpenAI.Model)
		baseURL := cfg.LLM.OpenAI.BaseURL
		if opts != nil && opts.BaseURL != "" {
			baseURL = opts.BaseURL
		}
		if apiKey == "" || modelName == "" {
			return nil, errors.New("openai llm provider is not fully configured")
		}
		backend = &openAIBackend{apiKey: apiKey, baseURL: baseURL, model: modelName, http: httpClient}
	case ProviderAnthropic:
		apiKey := key(cfg.LLM.Anthropic.APIKey)
		modelName := mdl(cfg.LLM.Anthropic.Model)
		if apiKey == "" || modelName == "" {
			return nil, errors.New("anthropic llm provider is not fully configured")
		}
		backend = &anthropicBackend{apiKey: apiKey, model: modelName, http: httpClient}
	case ProviderGoogle:
		apiKey := key(cfg.LLM.Google.APIKey)
		modelName := mdl(cfg.LLM.Google.Model)
		if apiKey == "" || modelName == "" {
			return nil, errors.New("google llm provider is not fully configured")
		}
		backend = &googleBackend{apiKey: apiKey, model: modelName, http: httpClient}
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", prov)
	}

	return &client{backend: backend}, nil
}

func (c *client) ExtractFields(ctx context.Context, pageURL, markdown string, fields []model.ExtractField, prompt string) (map[string]any, error) {
	fieldJSON, _ := json.Marshal(fields)
	user := fmt.Sprintf("Given markdown content from URL %s and the following field definitions, extract a JSON object with exactly those keys. Fields: %s\n\nMarkdown:\n%s",
		pageURL, string(fieldJSON), markdown)
	if prompt != "" {
		user = prompt + "\n\n" + user
	}

	text, err := c.backend.complete(ctx, extractSystem, user, true)
	if err != nil {
		return nil, err
	}

	parsed, err := parseJSONFields(text)
	if err != nil {
		return nil, fmt.Errorf("parse llm response: %w", err)
	}
	return parsed, nil
}

func (c *client) Summarize(ctx context.Context, pageURL, markdown string) (string, error) {
	user := fmt.Sprintf("Summarize the page at %s.\n\nContent:\n%s", pageURL, markdown)
	text, err := c.backend.complete(ctx, summarySystem, user, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// parseJSONFields parses a JSON object out of model output. Models wrap
// JSON in fences or chatter despite instructions, so after a direct parse
// fails it retries on the outermost {...} block.
func parseJSONFields(content string) (map[string]any, error) {
	content = stripFences(content)

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err == nil {
		return fields, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, errors.New("no JSON object found in content")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// openAIBackend speaks OpenAI-compatible Chat Completions.
type openAIBackend struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIChatMessage   `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func (b *openAIBackend) request(system, user string, jsonOutput bool) openAIChatRequest {
	body := openAIChatRequest{
		Model: b.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.0,
	}
	if jsonOutput {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}
	return body
}

func (b *openAIBackend) complete(ctx context.Context, system, user string, jsonOutput bool) (string, error) {
	body := b.request(system, user, jsonOutput)

	endpoint := b.baseURL
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	endpoint += "/chat/completions"

	var parsed openAIChatResponse
	if err := postJSON(ctx, b.http, endpoint, map[string]string{
		"Authorization": "Bearer " + b.apiKey,
	}, body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// anthropicBackend speaks Anthropic's Messages API.
type anthropicBackend struct {
	apiKey string
	model  string
	http   *http.Client
}

type anthropicMessagesRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                 `json:"role"`
	Content []anthropicTextContent `json:"content"`
}

type anthropicTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessagesResponse struct {
	Content []anthropicTextContent `json:"content"`
}

func (b *anthropicBackend) request(system, user string) anthropicMessagesRequest {
	return anthropicMessagesRequest{
		Model:       b.model,
		MaxTokens:   1024,
		Temperature: 0.0,
		System:      system,
		Messages: []anthropicMessage{
			{Role: "user", Content: []anthropicTextContent{{Type: "text", Text: user}}},
		},
	}
}

// Anthropic has no JSON response mode; the system prompt carries the
// JSON-only instruction instead.
func (b *anthropicBackend) complete(ctx context.Context, system, user string, _ bool) (string, error) {
	body := b.request(system, user)

	var parsed anthropicMessagesResponse
	if err := postJSON(ctx, b.http, "https://api.anthropic.com/v1/messages", map[string]string{
		"x-api-key":         b.apiKey,
		"anthropic-version": "2023-06-01",
	}, body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", errors.New("anthropic messages returned no content")
	}
	return parsed.Content[0].Text, nil
}

// googleBackend speaks Gemini's generateContent API.
type googleBackend struct {
	apiKey string
	model  string
	http   *http.Client
}

type googleGenerateContentRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig"`
}

type googleGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text,omitempty"`
}

type googleGenerateContentResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func (b *googleBackend) request(system, user string, jsonOutput bool) googleGenerateContentRequest {
	body := googleGenerateContentRequest{
		Contents: []googleContent{
			{Parts: []googlePart{{Text: system + "\n\n" + user}}},
		},
		GenerationConfig: googleGenerationConfig{Temperature: 0.0},
	}
	if jsonOutput {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}
	return body
}

func (b *googleBackend) complete(ctx context.Context, system, user string, jsonOutput bool) (string, error) {
	body := b.request(system, user, jsonOutput)

	endpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		b.model, url.QueryEscape(b.apiKey))

	var parsed googleGenerateContentResponse
	if err := postJSON(ctx, b.http, endpoint, nil, body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("google generateContent returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("llm request to %s failed with status %d", req.URL.Host, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
