package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhimit04/job-new-agent/internal/adapter"
	"github.com/abhimit04/job-new-agent/internal/aggregator"
	"github.com/abhimit04/job-new-agent/internal/cache"
	"github.com/abhimit04/job-new-agent/internal/config"
	"github.com/abhimit04/job-new-agent/internal/delivery"
	"github.com/abhimit04/job-new-agent/internal/model"
	"github.com/abhimit04/job-new-agent/internal/pipeline"
	"github.com/abhimit04/job-new-agent/internal/ratelimit"
	"github.com/abhimit04/job-new-agent/internal/report"
	"github.com/abhimit04/job-new-agent/internal/retry"
	"github.com/abhimit04/job-new-agent/internal/summarizer"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobagent",
	Short: "Job market aggregator",
	Long:  "jobagent aggregates job postings from multiple search providers, deduplicates them, and delivers a market report.",
	// Default to `serve` so the binary can be invoked directly by a unit file.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBAGENT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBAGENT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	// Load .env first so ${VAR} references in the YAML resolve in local dev.
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("JOBAGENT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// buildAdapters constructs one adapter per provider whose credential is
// present. An unconfigured provider is simply absent: zero postings,
// zero errors.
func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	limiter := ratelimit.NewProviderLimiter(cfg.Providers.PageDelay)
	pol := retry.Policy{MaxRetries: 2, BaseDelay: 5 * time.Second, Logger: logger}

	var adapters []model.SourceAdapter
	if cfg.Providers.SerpAPIKey != "" {
		adapters = append(adapters, adapter.NewSerpAPIAdapter(
			cfg.Providers.SerpAPIKey, cfg.Providers.MaxPages, httpClient, limiter, pol, logger))
		logger.Info("registered provider", "provider", "serpapi")
	}
	if cfg.Providers.JSearchKey != "" {
		adapters = append(adapters, adapter.NewJSearchAdapter(
			cfg.Providers.JSearchKey, cfg.Providers.MaxPages, httpClient, limiter, pol, logger))
		logger.Info("registered provider", "provider", "jsearch")
	}
	return adapters
}

// buildCache constructs the configured cache backend. A backend that
// fails to open degrades to no cache: the store is advisory and its
// unavailability must never fail requests.
func buildCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) model.Cache {
	switch cfg.Cache.Backend {
	case "sqlite":
		c, err := cache.NewSQLiteCache(cfg.Cache.Path)
		if err != nil {
			logger.Warn("sqlite cache unavailable, running uncached", "error", err)
			return nil
		}
		logger.Info("using sqlite cache", "path", cfg.Cache.Path, "ttl", cfg.Cache.TTL.String())
		return c
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis cache unavailable, running uncached", "error", err)
			return nil
		}
		logger.Info("using redis cache", "ttl", cfg.Cache.TTL.String())
		return c
	default:
		logger.Info("using in-memory cache", "ttl", cfg.Cache.TTL.String())
		return cache.NewMemoryCache()
	}
}

func setupSummarizer(cfg *config.Config, logger *slog.Logger) model.Summarizer {
	if !cfg.AI.Enabled {
		return summarizer.NewNopSummarizer()
	}
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	provider := summarizer.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	logger.Info("ai summarizer enabled", "model", cfg.AI.Model)
	return summarizer.NewLLMSummarizer(provider, summarizer.MarketSummaryTemplate, cfg.Limits.SummaryPostings, logger)
}

// setupDeliverer returns the SMTP deliverer, or nil when no transport is
// configured.
func setupDeliverer(cfg *config.Config, logger *slog.Logger) model.Deliverer {
	if cfg.SMTP.Host == "" {
		return nil
	}
	logger.Info("using smtp delivery", "host", cfg.SMTP.Host, "from", cfg.SMTP.From)
	return delivery.NewSMTPDeliverer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger)
}

func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	httpClient := &http.Client{Timeout: cfg.Providers.HTTPTimeout}
	adapters := buildAdapters(cfg, httpClient, logger)
	agg := aggregator.Aggregator{MaxPostings: cfg.Limits.MaxPostings}
	c := buildCache(ctx, cfg, logger)
	summ := setupSummarizer(cfg, logger)
	return pipeline.New(adapters, agg, c, cfg.Cache.TTL, summ, logger)
}

func buildRenderer(cfg *config.Config) report.Renderer {
	return report.Renderer{
		MaxCards:         cfg.Limits.RenderPostings,
		DescriptionChars: cfg.Limits.DescriptionChars,
	}
}
