package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/abhimit04/job-new-agent/internal/model"
	"github.com/abhimit04/job-new-agent/internal/ratelimit"
	"github.com/abhimit04/job-new-agent/internal/retry"
)

const (
	jsearchBaseURL = "https://jsearch.p.rapidapi.com/search"
	jsearchHost    = "jsearch.p.rapidapi.com"
)

// jsearchResponse is the RapidAPI JSearch response, reduced to the
// fields this adapter maps.
type jsearchResponse struct {
	Status string       `json:"status"`
	Data   []jsearchJob `json:"data"`
}

type jsearchJob struct {
	JobID          string  `json:"job_id"`
	Title          string  `json:"job_title"`
	EmployerName   string  `json:"employer_name"`
	Publisher      string  `json:"job_publisher"`
	City           string  `json:"job_city"`
	Country        string  `json:"job_country"`
	PostedAt       string  `json:"job_posted_at_datetime_utc"`
	ApplyLink      string  `json:"job_apply_link"`
	Description    string  `json:"job_description"`
	MinSalary      float64 `json:"job_min_salary"`
	MaxSalary      float64 `json:"job_max_salary"`
	SalaryCurrency string  `json:"job_salary_currency"`
	SalaryPeriod   string  `json:"job_salary_period"`
}

// JSearchAdapter fetches postings from the RapidAPI JSearch endpoint.
// Pagination is by page number; the loop stops at the first empty page
// or the page cap, whichever comes first.
type JSearchAdapter struct {
	baseURL  string
	apiKey   string
	maxPages int
	client   *http.Client
	limiter  *ratelimit.ProviderLimiter
	retry    retry.Policy
	logger   *slog.Logger
}

// NewJSearchAdapter creates an adapter for the RapidAPI JSearch endpoint.
func NewJSearchAdapter(apiKey string, maxPages int, client *http.Client, limiter *ratelimit.ProviderLimiter, pol retry.Policy, logger *slog.Logger) *JSearchAdapter {
	return &JSearchAdapter{
		baseURL:  jsearchBaseURL,
		apiKey:   apiKey,
		maxPages: maxPages,
		client:   client,
		limiter:  limiter,
		retry:    pol,
		logger:   logger,
	}
}

// Source returns the provider name used in per-source counts and cache keys.
func (a *JSearchAdapter) Source() string { return "jsearch" }

// Fetch paginates through JSearch results for the request, up to the page
// cap. A failed page keeps earlier pages' postings and records the failure.
func (a *JSearchAdapter) Fetch(ctx context.Context, req model.SearchRequest) model.FetchResult {
	result := model.FetchResult{Source: a.Source()}

	for page := 1; page <= a.maxPages; page++ {
		if err := a.limiter.Wait(ctx, a.Source()); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("jsearch: page %d: %v", page, err))
			return result
		}

		var pageResp jsearchResponse
		err := a.retry.Do(ctx, "jsearch page fetch", func(ctx context.Context) error {
			return a.fetchPage(ctx, req, page, &pageResp)
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("jsearch: page %d: %v", page, err))
			return result
		}

		for i, jj := range pageResp.Data {
			result.Postings = append(result.Postings, a.mapJob(jj, req, page, i))
		}

		a.logger.Debug("jsearch page fetched", "page", page, "results", len(pageResp.Data))

		// An empty page means the provider has no more results.
		if len(pageResp.Data) == 0 {
			break
		}
	}

	return result
}

func (a *JSearchAdapter) fetchPage(ctx context.Context, req model.SearchRequest, page int, out *jsearchResponse) error {
	params := url.Values{}
	params.Set("query", req.JobType+" in "+req.Location)
	params.Set("page", strconv.Itoa(page))
	params.Set("num_pages", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("jsearch fetch for %q: %w", req.JobType, err)
	}
	httpReq.Header.Set("X-RapidAPI-Key", a.apiKey)
	httpReq.Header.Set("X-RapidAPI-Host", jsearchHost)

	*out = jsearchResponse{}
	if err := doJSON(a.client, httpReq, out); err != nil {
		return fmt.Errorf("jsearch fetch for %q: %w", req.JobType, err)
	}
	return nil
}

// mapJob normalizes one JSearch result into the Posting shape.
// Fallback chains per field:
//
//	id:       job_id → "jsearch-{page}-{index}"
//	title:    job_title → "No Title"
//	company:  employer_name → "Unknown Company"
//	location: "city, country" → city → country → request location
//	postedAt: job_posted_at_datetime_utc → "Date not specified"
//	source:   job_publisher → "JSearch"
//	link:     job_apply_link → synthesized search URL
//	salary:   formatted min–max range → "Not specified"
func (a *JSearchAdapter) mapJob(jj jsearchJob, req model.SearchRequest, page, index int) model.Posting {
	location := jj.City
	if jj.City != "" && jj.Country != "" {
		location = jj.City + ", " + jj.Country
	} else if jj.Country != "" {
		location = jj.Country
	}

	title := firstNonEmpty(model.DefaultTitle, jj.Title)
	company := firstNonEmpty(model.DefaultCompany, jj.EmployerName)

	return model.Posting{
		ID:          firstNonEmpty(fmt.Sprintf("jsearch-%d-%d", page, index), jj.JobID),
		Title:       title,
		Company:     company,
		Location:    firstNonEmpty(req.Location, location),
		PostedAt:    firstNonEmpty(model.DefaultPostedAt, jj.PostedAt),
		Source:      firstNonEmpty("JSearch", jj.Publisher),
		Link:        firstNonEmpty(model.SearchLink(title, company), jj.ApplyLink),
		Description: extractText(jj.Description),
		Salary:      formatSalary(jj),
	}
}

// formatSalary renders the numeric salary range as a display string,
// falling back to the documented sentinel when the provider gave none.
func formatSalary(jj jsearchJob) string {
	if jj.MinSalary <= 0 && jj.MaxSalary <= 0 {
		return model.DefaultSalary
	}

	currency := jj.SalaryCurrency
	if currency == "" {
		currency = "USD"
	}

	s := ""
	switch {
	case jj.MinSalary > 0 && jj.MaxSalary > 0:
		s = fmt.Sprintf("%.0f-%.0f %s", jj.MinSalary, jj.MaxSalary, currency)
	case jj.MinSalary > 0:
		s = fmt.Sprintf("from %.0f %s", jj.MinSalary, currency)
	default:
		s = fmt.Sprintf("up to %.0f %s", jj.MaxSalary, currency)
	}

	if jj.SalaryPeriod != "" {
		s += " per " + strings.ToLower(jj.SalaryPeriod)
	}
	return s
}
