// Package pipeline runs one aggregation pass: cache lookup, provider
// fan-out, merge/dedup, cache write, summarize.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhimit04/job-new-agent/internal/aggregator"
	"github.com/abhimit04/job-new-agent/internal/cache"
	"github.com/abhimit04/job-new-agent/internal/model"
)

// Pipeline owns the full aggregation pass for one request. Adapters are
// independent; each writes only its own FetchResult slot, so the merge
// is a pure fold over completed outputs with no locking.
type Pipeline struct {
	adapters   []model.SourceAdapter
	agg        aggregator.Aggregator
	cache      model.Cache
	cacheTTL   time.Duration
	summarizer model.Summarizer
	logger     *slog.Logger
}

// New creates a pipeline wired with all its dependencies. cache may be
// nil to disable caching; summarizer may not be nil (use the Nop one).
func New(
	adapters []model.SourceAdapter,
	agg aggregator.Aggregator,
	c model.Cache,
	cacheTTL time.Duration,
	summarizer model.Summarizer,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		adapters:   adapters,
		agg:        agg,
		cache:      c,
		cacheTTL:   cacheTTL,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Outcome is the result of one aggregation pass.
type Outcome struct {
	Result    model.AggregationResult
	Summary   string
	Message   string
	FromCache bool
}

// cachedPayload is the JSON shape stored in the cache: the merged result
// together with its summary, so a cache hit skips the summarizer too.
type cachedPayload struct {
	Result  model.AggregationResult `json:"result"`
	Summary string                  `json:"summary"`
}

// Aggregate runs one pass for req. Per-source and summarizer failures
// are accumulated into the result's Errors; only validation failures
// return a non-nil error.
func (p *Pipeline) Aggregate(ctx context.Context, req model.SearchRequest) (Outcome, error) {
	req.JobType = strings.TrimSpace(req.JobType)
	req.Location = strings.TrimSpace(req.Location)
	if req.JobType == "" {
		return Outcome{}, model.ErrEmptyQuery
	}
	if req.Location == "" {
		return Outcome{}, model.ErrEmptyLocation
	}

	key := cache.Key(req.JobType, req.Location)
	if out, ok := p.cacheLookup(ctx, key); ok {
		return out, nil
	}

	if len(p.adapters) == 0 {
		// Not an error: zero configured adapters produce an empty result
		// with an explanatory message.
		return Outcome{
			Result: model.AggregationResult{
				Postings:        []model.Posting{},
				PerSourceCounts: map[string]int{},
				Errors:          []string{},
			},
			Summary: model.SummaryUnavailable,
			Message: "No job sources are configured.",
		}, nil
	}

	results := p.fetchAll(ctx, req)
	merged := p.agg.Merge(results)

	p.logger.Info("aggregation complete",
		"job_type", req.JobType,
		"location", req.Location,
		"fetched", merged.TotalFetched(),
		"unique", len(merged.Postings),
		"duplicates_removed", merged.DuplicatesRemoved,
		"source_errors", len(merged.Errors),
	)

	out := Outcome{Result: merged, Summary: model.SummaryUnavailable}

	if len(merged.Postings) == 0 {
		// Nothing to summarize or deliver; still a success.
		out.Message = "No job postings found for this search."
		p.cacheWrite(ctx, key, out)
		return out, nil
	}

	summary, err := p.summarizer.Summarize(ctx, req, p.agg.Cap(merged.Postings))
	if err != nil {
		// Non-fatal: substitute the sentinel and record the failure.
		p.logger.Warn("summarizer failed", "error", err)
		out.Result.Errors = append(out.Result.Errors, fmt.Sprintf("summarizer: %v", err))
	} else {
		out.Summary = summary
	}

	out.Message = fmt.Sprintf("Found %d unique postings across %d sources.",
		len(merged.Postings), len(merged.PerSourceCounts))

	p.cacheWrite(ctx, key, out)
	return out, nil
}

// fetchAll runs every adapter concurrently. Each adapter owns one result
// slot, preserving adapter order for the stable first-wins dedup.
func (p *Pipeline) fetchAll(ctx context.Context, req model.SearchRequest) []model.FetchResult {
	results := make([]model.FetchResult, len(p.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range p.adapters {
		g.Go(func() error {
			results[i] = a.Fetch(gctx, req)
			return nil
		})
	}
	// Adapters never return errors through the group; failures live in
	// their FetchResult so one source cannot abort its siblings.
	_ = g.Wait()

	return results
}

// cacheLookup returns a cached outcome for key if present. Backend
// errors degrade to a miss.
func (p *Pipeline) cacheLookup(ctx context.Context, key string) (Outcome, bool) {
	if p.cache == nil {
		return Outcome{}, false
	}

	payload, hit, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache get failed, treating as miss", "key", key, "error", err)
		return Outcome{}, false
	}
	if !hit {
		return Outcome{}, false
	}

	var cached cachedPayload
	if err := json.Unmarshal(payload, &cached); err != nil {
		p.logger.Warn("cache payload corrupt, treating as miss", "key", key, "error", err)
		return Outcome{}, false
	}

	p.logger.Info("cache hit", "key", key, "postings", len(cached.Result.Postings))
	return Outcome{
		Result:    cached.Result,
		Summary:   cached.Summary,
		Message:   fmt.Sprintf("Found %d unique postings (cached).", len(cached.Result.Postings)),
		FromCache: true,
	}, true
}

// cacheWrite upserts the outcome for key. Skipped when the request was
// abandoned (no partial writes), when every source failed with nothing
// fetched (a transient outage should not be cached), and on backend
// errors (advisory cache, never fatal).
func (p *Pipeline) cacheWrite(ctx context.Context, key string, out Outcome) {
	if p.cache == nil || ctx.Err() != nil {
		return
	}
	if out.Result.TotalFetched() == 0 && len(out.Result.Errors) > 0 {
		return
	}

	payload, err := json.Marshal(cachedPayload{Result: out.Result, Summary: out.Summary})
	if err != nil {
		p.logger.Warn("cache payload marshal failed", "key", key, "error", err)
		return
	}

	if err := p.cache.Set(ctx, key, payload, p.cacheTTL); err != nil {
		p.logger.Warn("cache set failed", "key", key, "error", err)
	}
}
