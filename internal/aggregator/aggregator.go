// Package aggregator merges per-provider fetch results into a single
// deduplicated posting sequence.
package aggregator

import (
	"regexp"
	"strings"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// Aggregator owns the merge/dedup step and is the sole producer of
// AggregationResult. MaxPostings bounds the sequence handed to
// downstream consumers via Cap; zero means no cap.
type Aggregator struct {
	MaxPostings int
}

// Merge concatenates all fetch results preserving adapter order, then
// deduplicates by normalized (title, company) key. First occurrence wins;
// later postings with an identical key are dropped and counted.
//
// Zero results across all adapters is not an error: it produces an empty
// AggregationResult.
func (a Aggregator) Merge(results []model.FetchResult) model.AggregationResult {
	merged := model.AggregationResult{
		Postings:        []model.Posting{},
		PerSourceCounts: make(map[string]int),
		Errors:          []string{},
	}

	seen := make(map[string]bool)
	for _, res := range results {
		merged.PerSourceCounts[res.Source] = len(res.Postings)
		merged.Errors = append(merged.Errors, res.Errors...)

		for _, p := range res.Postings {
			key := DedupKey(p.Title, p.Company)
			if seen[key] {
				merged.DuplicatesRemoved++
				continue
			}
			seen[key] = true
			merged.Postings = append(merged.Postings, p)
		}
	}

	return merged
}

// Cap trims a posting sequence to MaxPostings. Merge never caps: the
// result keeps the full deduplicated sequence so DuplicatesRemoved stays
// equal to TotalFetched minus len(Postings). Downstream consumers call
// Cap before summarization and rendering.
func (a Aggregator) Cap(postings []model.Posting) []model.Posting {
	if a.MaxPostings > 0 && len(postings) > a.MaxPostings {
		return postings[:a.MaxPostings]
	}
	return postings
}

// DedupKey builds the normalized composite key identifying a posting
// across sources: normalize(title) + "_" + normalize(company).
func DedupKey(title, company string) string {
	return Normalize(title) + "_" + Normalize(company)
}

var nonWordRegex = regexp.MustCompile(`[^\w\s]`)

// Normalize lower-cases, trims, and strips all non-word, non-space
// characters. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWordRegex.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
