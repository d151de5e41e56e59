package model

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Sentinel values substituted for genuinely missing provider fields.
// Distinguished from the empty string so renderers can reason about them.
const (
	DefaultTitle    = "No Title"
	DefaultCompany  = "Unknown Company"
	DefaultPostedAt = "Date not specified"
	DefaultSalary   = "Not specified"
)

// SummaryUnavailable is substituted when the summarizer collaborator fails.
const SummaryUnavailable = "AI analysis not available."

// Posting is a normalized job listing from any provider.
//
// Every field is always populated: adapters apply the fallback chains
// documented on each field, so no field ever reaches the aggregator or
// renderer empty except Description, which may legitimately be "".
type Posting struct {
	ID          string `json:"id"`          // provider-local, or synthesized "{provider}-{page}-{index}"
	Title       string `json:"title"`       // falls back to DefaultTitle
	Company     string `json:"company"`     // falls back to DefaultCompany
	Location    string `json:"location"`    // falls back to the request location
	PostedAt    string `json:"postedAt"`    // free-form provider string, DefaultPostedAt if absent
	Source      string `json:"source"`      // provider/publisher name
	Link        string `json:"link"`        // never empty, falls back to SearchLink
	Description string `json:"description"` // may be empty
	Salary      string `json:"salary"`      // falls back to DefaultSalary
}

// SearchLink builds the fallback apply link for a posting that has none:
// a Google search for the title and company.
func SearchLink(title, company string) string {
	q := url.QueryEscape(title + " " + company + " jobs")
	return "https://www.google.com/search?q=" + q
}

// SearchRequest is the input to one aggregation pass.
type SearchRequest struct {
	JobType  string `json:"jobType"`
	Location string `json:"location"`
}

// AggregationResult is the merged, deduplicated output of all adapters.
type AggregationResult struct {
	Postings          []Posting      `json:"postings"`
	PerSourceCounts   map[string]int `json:"perSourceCounts"`
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
	Errors            []string       `json:"errors"`
}

// TotalFetched returns the pre-dedup posting count across all sources.
func (r AggregationResult) TotalFetched() int {
	total := 0
	for _, n := range r.PerSourceCounts {
		total += n
	}
	return total
}

// Report holds the rendered representations of an aggregation result.
// Derived data: recomputed on every delivery, never stored.
type Report struct {
	HTML string
	Text string
}

// FetchResult is one adapter's contribution: whatever postings it
// accumulated before finishing or failing, plus error strings for any
// pages that failed. A failed page never discards earlier pages.
type FetchResult struct {
	Source   string
	Postings []Posting
	Errors   []string
}

// SourceAdapter fetches postings from one job-search provider.
type SourceAdapter interface {
	Source() string
	Fetch(ctx context.Context, req SearchRequest) FetchResult
}

// Cache is a TTL key/value store consulted before adapters run and
// written after a successful merge. Implementations are advisory:
// callers treat any error as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error
}

// Summarizer produces a markdown market summary for a bounded posting set.
type Summarizer interface {
	Summarize(ctx context.Context, req SearchRequest, postings []Posting) (string, error)
}

// Deliverer sends a rendered report to a recipient.
type Deliverer interface {
	Deliver(ctx context.Context, recipient string, subject string, report Report) error
	// Verify checks that the transport is usable without sending anything.
	Verify(ctx context.Context) error
}
