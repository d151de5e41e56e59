package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job aggregation service.
type Config struct {
	Defaults  DefaultsConfig
	Providers ProvidersConfig
	Cache     CacheConfig
	AI        AIConfig
	SMTP      SMTPConfig
	Server    ServerConfig
	Limits    LimitsConfig
}

// DefaultsConfig supplies search parameters when the caller omits them.
// Empty values mean the parameter is required on every request.
type DefaultsConfig struct {
	JobType  string `yaml:"job_type"`
	Location string `yaml:"location"`
}

// ProvidersConfig holds per-provider credentials and the shared
// pagination bounds. A provider whose API key is empty is simply not
// constructed — it contributes zero postings and zero errors.
type ProvidersConfig struct {
	SerpAPIKey  string
	JSearchKey  string
	MaxPages    int           // hard page cap per provider
	PageDelay   time.Duration // wait between paginated requests to the same provider
	HTTPTimeout time.Duration // per-request timeout for provider calls
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend  string // "memory", "sqlite", or "redis"
	TTL      time.Duration
	Path     string // sqlite file path
	RedisURL string
}

// AIConfig controls the optional market-summary layer.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// SMTPConfig configures the email transport. An empty Host means no
// transport is configured and delivery falls back to a direct response.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	DevMode bool   `yaml:"dev_mode"` // surface detailed error messages on 500s
}

// LimitsConfig bounds the pipeline stages. Each cap is independent:
// the aggregator, summarizer, and renderer apply their own.
type LimitsConfig struct {
	MaxPostings      int // aggregator cap on the deduplicated sequence
	SummaryPostings  int // postings included in the summarizer prompt
	RenderPostings   int // listing cards rendered in the report
	DescriptionChars int // description truncation budget
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Defaults  DefaultsConfig     `yaml:"defaults"`
	Providers rawProvidersConfig `yaml:"providers"`
	Cache     rawCacheConfig     `yaml:"cache"`
	AI        rawAIConfig        `yaml:"ai"`
	SMTP      SMTPConfig         `yaml:"smtp"`
	Server    ServerConfig       `yaml:"server"`
	Limits    rawLimitsConfig    `yaml:"limits"`
}

type rawProvidersConfig struct {
	SerpAPIKey  string `yaml:"serpapi_key"`
	JSearchKey  string `yaml:"jsearch_key"`
	MaxPages    int    `yaml:"max_pages"`
	PageDelay   string `yaml:"page_delay"`
	HTTPTimeout string `yaml:"http_timeout"`
}

type rawCacheConfig struct {
	Backend  string `yaml:"backend"`
	TTL      string `yaml:"ttl"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawLimitsConfig struct {
	MaxPostings      int `yaml:"max_postings"`
	SummaryPostings  int `yaml:"summary_postings"`
	RenderPostings   int `yaml:"render_postings"`
	DescriptionChars int `yaml:"description_chars"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables so keys can live outside the file.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	pageDelay := 2 * time.Second // providers require token activation latency between pages
	if raw.Providers.PageDelay != "" {
		pageDelay, err = time.ParseDuration(raw.Providers.PageDelay)
		if err != nil {
			return nil, fmt.Errorf("parse providers.page_delay %q: %w", raw.Providers.PageDelay, err)
		}
	}

	httpTimeout := 30 * time.Second
	if raw.Providers.HTTPTimeout != "" {
		httpTimeout, err = time.ParseDuration(raw.Providers.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse providers.http_timeout %q: %w", raw.Providers.HTTPTimeout, err)
		}
	}

	maxPages := raw.Providers.MaxPages
	if maxPages == 0 {
		maxPages = 3
	}

	cacheTTL := 30 * time.Minute
	if raw.Cache.TTL != "" {
		cacheTTL, err = time.ParseDuration(raw.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache.ttl %q: %w", raw.Cache.TTL, err)
		}
	}

	cacheBackend := raw.Cache.Backend
	if cacheBackend == "" {
		cacheBackend = "memory"
	}

	aiTimeout := 60 * time.Second
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	addr := raw.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	cfg := &Config{
		Defaults: raw.Defaults,
		Providers: ProvidersConfig{
			SerpAPIKey:  raw.Providers.SerpAPIKey,
			JSearchKey:  raw.Providers.JSearchKey,
			MaxPages:    maxPages,
			PageDelay:   pageDelay,
			HTTPTimeout: httpTimeout,
		},
		Cache: CacheConfig{
			Backend:  cacheBackend,
			TTL:      cacheTTL,
			Path:     raw.Cache.Path,
			RedisURL: raw.Cache.RedisURL,
		},
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: aiBaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		SMTP: raw.SMTP,
		Server: ServerConfig{
			Addr:    addr,
			DevMode: raw.Server.DevMode,
		},
		Limits: LimitsConfig{
			MaxPostings:      orDefault(raw.Limits.MaxPostings, 25),
			SummaryPostings:  orDefault(raw.Limits.SummaryPostings, 20),
			RenderPostings:   orDefault(raw.Limits.RenderPostings, 30),
			DescriptionChars: orDefault(raw.Limits.DescriptionChars, 250),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	switch cfg.Cache.Backend {
	case "memory":
	case "sqlite":
		if cfg.Cache.Path == "" {
			return fmt.Errorf("cache.path is required when cache.backend is \"sqlite\"")
		}
	case "redis":
		if cfg.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.backend is \"redis\"")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q (want memory, sqlite, or redis)", cfg.Cache.Backend)
	}

	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", cfg.Cache.TTL)
	}

	if cfg.Providers.MaxPages < 1 || cfg.Providers.MaxPages > 10 {
		return fmt.Errorf("providers.max_pages must be between 1 and 10, got %d", cfg.Providers.MaxPages)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	if cfg.SMTP.Host != "" {
		if cfg.SMTP.Port == 0 {
			return fmt.Errorf("smtp.port is required when smtp.host is set")
		}
		if cfg.SMTP.From == "" {
			return fmt.Errorf("smtp.from is required when smtp.host is set")
		}
	}

	return nil
}
