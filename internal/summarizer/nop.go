package summarizer

import (
	"context"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// NopSummarizer is used when ai.enabled is false. It returns the
// unavailability sentinel with no LLM calls, so the pipeline and the
// renderer treat the absence of analysis uniformly.
type NopSummarizer struct{}

// NewNopSummarizer returns a NopSummarizer.
func NewNopSummarizer() *NopSummarizer {
	return &NopSummarizer{}
}

// Summarize returns the unavailability sentinel.
func (n *NopSummarizer) Summarize(_ context.Context, _ model.SearchRequest, _ []model.Posting) (string, error) {
	return model.SummaryUnavailable, nil
}
