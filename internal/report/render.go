// Package report turns an aggregation result plus its market summary
// into parallel HTML and plain-text representations.
package report

import (
	_ "embed"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/abhimit04/job-new-agent/internal/model"
)

//go:embed templates/report.html.tmpl
var htmlTemplateRaw string

//go:embed templates/report.txt.tmpl
var textTemplateRaw string

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.New("report_html").Parse(htmlTemplateRaw))
	textTemplate = texttemplate.Must(
		texttemplate.New("report_text").
			Funcs(texttemplate.FuncMap{"inc": func(i int) int { return i + 1 }}).
			Parse(textTemplateRaw),
	)
)

// Renderer produces Report values. Both caps are independent of the
// aggregator's: MaxCards bounds the rendered listing cards and
// DescriptionChars truncates long descriptions with an ellipsis marker.
type Renderer struct {
	MaxCards         int
	DescriptionChars int
	Now              func() time.Time // replaceable for tests; nil means time.Now
}

// card is a display-ready posting. All interpolation into the HTML
// target goes through html/template's contextual escaping.
type card struct {
	Title       string
	Company     string
	Location    string
	PostedAt    string
	Salary      string
	Source      string
	Description string
	Link        string
}

type reportData struct {
	JobType           string
	Location          string
	TotalUnique       int
	DuplicatesRemoved int
	SourceLine        string
	GeneratedAt       string
	Summary           htmltemplate.HTML // converted markdown, empty when unavailable
	SummaryText       string
	Cards             []card
	CapNotice         string
}

// Render builds the HTML and plain-text report for one aggregation pass.
// A summary equal to the unavailability sentinel (or blank) omits the
// analysis section entirely.
func (r Renderer) Render(req model.SearchRequest, summary string, result model.AggregationResult) (model.Report, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	postings := result.Postings
	capNotice := ""
	if r.MaxCards > 0 && len(postings) > r.MaxCards {
		capNotice = fmt.Sprintf("Showing top %d of %d postings.", r.MaxCards, len(postings))
		postings = postings[:r.MaxCards]
	}

	cards := make([]card, 0, len(postings))
	for _, p := range postings {
		cards = append(cards, card{
			Title:       p.Title,
			Company:     p.Company,
			Location:    p.Location,
			PostedAt:    p.PostedAt,
			Salary:      p.Salary,
			Source:      p.Source,
			Description: truncate(p.Description, r.DescriptionChars),
			Link:        p.Link,
		})
	}

	data := reportData{
		JobType:           req.JobType,
		Location:          req.Location,
		TotalUnique:       len(result.Postings),
		DuplicatesRemoved: result.DuplicatesRemoved,
		SourceLine:        sourceLine(result.PerSourceCounts),
		GeneratedAt:       now().UTC().Format(time.RFC1123),
		Cards:             cards,
		CapNotice:         capNotice,
	}

	if hasSummary(summary) {
		data.Summary = markdownToHTML(summary)
		data.SummaryText = summary
	}

	var htmlBuf, textBuf strings.Builder
	if err := htmlTemplate.Execute(&htmlBuf, data); err != nil {
		return model.Report{}, fmt.Errorf("render html report: %w", err)
	}
	if err := textTemplate.Execute(&textBuf, data); err != nil {
		return model.Report{}, fmt.Errorf("render text report: %w", err)
	}

	return model.Report{HTML: htmlBuf.String(), Text: textBuf.String()}, nil
}

// hasSummary reports whether the summary is real analysis rather than a
// known "no analysis" sentinel.
func hasSummary(summary string) bool {
	s := strings.TrimSpace(summary)
	return s != "" && s != model.SummaryUnavailable
}

// sourceLine renders per-source counts as "serpapi (12), jsearch (8)",
// sorted by source name for stable output.
func sourceLine(counts map[string]int) string {
	if len(counts) == 0 {
		return "no sources"
	}

	sources := make([]string, 0, len(counts))
	for s := range counts {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, fmt.Sprintf("%s (%d)", s, counts[s]))
	}
	return strings.Join(parts, ", ")
}

// truncate cuts s to max characters with an ellipsis marker. Zero max
// means no truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
