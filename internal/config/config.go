package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type FetcherConfig struct {
	UserAgent              string `yaml:"userAgent"`
	TimeoutMs              int    `yaml:"timeoutMs"`
	MaxRedirects           int    `yaml:"maxRedirects"`
	RetryNetworkOnce       bool   `yaml:"retryNetworkOnce"`
	MaxBodyBytes           int64  `yaml:"maxBodyBytes"`
	AcceptLanguage         string `yaml:"acceptLanguage"`
	EscalateOnBlock        bool   `yaml:"escalateOnBlock"`
	CloudIPFirefoxFallback bool   `yaml:"cloudIpFirefoxFallback"`
}

type BrowserConfig struct {
	Enabled        bool     `yaml:"enabled"`
	ControlURL     string   `yaml:"controlURL"`
	Headed         bool     `yaml:"headed"`
	ViewportWidth  int      `yaml:"viewportWidth"`
	ViewportHeight int      `yaml:"viewportHeight"`
	WaitMsDefault  int      `yaml:"waitMsDefault"`
	Proxies        []string `yaml:"proxies"`
	ProfileDir     string   `yaml:"profileDir"`
}

type RobotsConfig struct {
	Respect bool `yaml:"respect"`
}

type GoogleSearchConfig struct {
	Key string `yaml:"key"`
	CX  string `yaml:"cx"`
}

type SearchConfig struct {
	Google          GoogleSearchConfig `yaml:"google"`
	BraveKey        string             `yaml:"braveKey"`
	TimeoutMs       int                `yaml:"timeoutMs"`
	MaxResults      int                `yaml:"maxResults"`
	CacheSize       int                `yaml:"cacheSize"`
	CacheTTLSec     int                `yaml:"cacheTTLSec"`
	EngineTimeoutMs int                `yaml:"engineTimeoutMs"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type GoogleLLMConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type LLMConfig struct {
	DefaultProvider string          `yaml:"defaultProvider"`
	OpenAI          OpenAIConfig    `yaml:"openai"`
	Anthropic       AnthropicConfig `yaml:"anthropic"`
	Google          GoogleLLMConfig `yaml:"google"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Config struct {
	Fetcher FetcherConfig `yaml:"fetcher"`
	Browser BrowserConfig `yaml:"browser"`
	Robots  RobotsConfig  `yaml:"robots"`
	Search  SearchConfig  `yaml:"search"`
	LLM     LLMConfig     `yaml:"llm"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns a config with conservative defaults suitable for
// running without a config file.
func Default() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			UserAgent:        "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			TimeoutMs:        30000,
			MaxRedirects:     10,
			RetryNetworkOnce: true,
			MaxBodyBytes:     20 << 20,
			AcceptLanguage:   "en-US,en;q=0.9",
			EscalateOnBlock:  true,
		},
		Browser: BrowserConfig{
			Enabled:        true,
			ViewportWidth:  1366,
			ViewportHeight: 900,
			WaitMsDefault:  0,
		},
		Search: SearchConfig{
			TimeoutMs:       10000,
			MaxResults:      10,
			CacheSize:       512,
			CacheTTLSec:     300,
			EngineTimeoutMs: 15000,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
