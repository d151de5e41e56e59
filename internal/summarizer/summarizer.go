package summarizer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// Ensure LLMSummarizer implements model.Summarizer.
var _ model.Summarizer = (*LLMSummarizer)(nil)

// LLMSummarizer produces a markdown market summary through an LLM.
// Input is capped at MaxPostings before prompt construction to bound
// collaborator cost, independently of the aggregator's own cap.
type LLMSummarizer struct {
	provider    LLMProvider
	tmpl        *template.Template
	maxPostings int
	logger      *slog.Logger
}

// NewLLMSummarizer creates a summarizer backed by the given provider.
func NewLLMSummarizer(provider LLMProvider, tmpl *template.Template, maxPostings int, logger *slog.Logger) *LLMSummarizer {
	return &LLMSummarizer{
		provider:    provider,
		tmpl:        tmpl,
		maxPostings: maxPostings,
		logger:      logger,
	}
}

// promptData is the template input. Descriptions are pre-truncated so a
// verbose provider cannot blow up the prompt.
type promptData struct {
	JobType  string
	Location string
	Postings []model.Posting
}

const promptDescriptionChars = 200

// Summarize renders the prompt for the bounded posting set and returns
// the collaborator's markdown response.
func (s *LLMSummarizer) Summarize(ctx context.Context, req model.SearchRequest, postings []model.Posting) (string, error) {
	if s.maxPostings > 0 && len(postings) > s.maxPostings {
		postings = postings[:s.maxPostings]
	}

	bounded := make([]model.Posting, len(postings))
	copy(bounded, postings)
	for i := range bounded {
		if len(bounded[i].Description) > promptDescriptionChars {
			bounded[i].Description = bounded[i].Description[:promptDescriptionChars] + "..."
		}
	}

	var promptBuf bytes.Buffer
	if err := s.tmpl.Execute(&promptBuf, promptData{
		JobType:  req.JobType,
		Location: req.Location,
		Postings: bounded,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	summary, err := s.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}

	s.logger.Debug("summary generated", "postings", len(bounded), "chars", len(summary))
	return summary, nil
}
