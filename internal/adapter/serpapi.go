package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/abhimit04/job-new-agent/internal/model"
	"github.com/abhimit04/job-new-agent/internal/ratelimit"
	"github.com/abhimit04/job-new-agent/internal/retry"
)

const serpAPIBaseURL = "https://serpapi.com/search.json"

// serpAPIResponse is the Google Jobs engine response, reduced to the
// fields this adapter maps.
type serpAPIResponse struct {
	JobsResults []serpAPIJob      `json:"jobs_results"`
	Pagination  serpAPIPagination `json:"serpapi_pagination"`
}

type serpAPIPagination struct {
	NextPageToken string `json:"next_page_token"`
}

type serpAPIJob struct {
	JobID              string               `json:"job_id"`
	Title              string               `json:"title"`
	CompanyName        string               `json:"company_name"`
	Location           string               `json:"location"`
	Via                string               `json:"via"`
	ShareLink          string               `json:"share_link"`
	Description        string               `json:"description"`
	ApplyOptions       []serpAPIApplyOption `json:"apply_options"`
	DetectedExtensions serpAPIExtensions    `json:"detected_extensions"`
}

type serpAPIApplyOption struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type serpAPIExtensions struct {
	PostedAt string `json:"posted_at"`
	Salary   string `json:"salary"`
}

// SerpAPIAdapter fetches postings from the SerpAPI Google Jobs engine.
// Pagination follows next_page_token; the token needs activation latency,
// so the shared limiter gates every page request.
type SerpAPIAdapter struct {
	baseURL  string
	apiKey   string
	maxPages int
	client   *http.Client
	limiter  *ratelimit.ProviderLimiter
	retry    retry.Policy
	logger   *slog.Logger
}

// NewSerpAPIAdapter creates an adapter for the SerpAPI Google Jobs engine.
func NewSerpAPIAdapter(apiKey string, maxPages int, client *http.Client, limiter *ratelimit.ProviderLimiter, pol retry.Policy, logger *slog.Logger) *SerpAPIAdapter {
	return &SerpAPIAdapter{
		baseURL:  serpAPIBaseURL,
		apiKey:   apiKey,
		maxPages: maxPages,
		client:   client,
		limiter:  limiter,
		retry:    pol,
		logger:   logger,
	}
}

// Source returns the provider name used in per-source counts and cache keys.
func (a *SerpAPIAdapter) Source() string { return "serpapi" }

// Fetch paginates through Google Jobs results for the request, up to the
// page cap. A failed page aborts only this adapter's loop: the result
// keeps whatever postings earlier pages produced, plus an error string
// identifying the failure.
func (a *SerpAPIAdapter) Fetch(ctx context.Context, req model.SearchRequest) model.FetchResult {
	result := model.FetchResult{Source: a.Source()}

	pageToken := ""
	for page := 1; page <= a.maxPages; page++ {
		if err := a.limiter.Wait(ctx, a.Source()); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("serpapi: page %d: %v", page, err))
			return result
		}

		var pageResp serpAPIResponse
		err := a.retry.Do(ctx, "serpapi page fetch", func(ctx context.Context) error {
			return a.fetchPage(ctx, req, pageToken, &pageResp)
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("serpapi: page %d: %v", page, err))
			return result
		}

		for i, sj := range pageResp.JobsResults {
			result.Postings = append(result.Postings, a.mapJob(sj, req, page, i))
		}

		a.logger.Debug("serpapi page fetched",
			"page", page,
			"results", len(pageResp.JobsResults),
			"has_next", pageResp.Pagination.NextPageToken != "",
		)

		pageToken = pageResp.Pagination.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return result
}

func (a *SerpAPIAdapter) fetchPage(ctx context.Context, req model.SearchRequest, pageToken string, out *serpAPIResponse) error {
	params := url.Values{}
	params.Set("engine", "google_jobs")
	params.Set("q", req.JobType+" jobs")
	params.Set("location", req.Location)
	params.Set("api_key", a.apiKey)
	if pageToken != "" {
		params.Set("next_page_token", pageToken)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("serpapi fetch for %q: %w", req.JobType, err)
	}

	*out = serpAPIResponse{}
	if err := doJSON(a.client, httpReq, out); err != nil {
		return fmt.Errorf("serpapi fetch for %q: %w", req.JobType, err)
	}
	return nil
}

// mapJob normalizes one Google Jobs result into the Posting shape.
// Fallback chains per field:
//
//	id:       job_id → "serpapi-{page}-{index}"
//	title:    title → "No Title"
//	company:  company_name → "Unknown Company"
//	location: location → request location
//	postedAt: detected_extensions.posted_at → "Date not specified"
//	source:   via → "Google Jobs"
//	link:     share_link → apply_options[0].link → synthesized search URL
//	salary:   detected_extensions.salary → "Not specified"
func (a *SerpAPIAdapter) mapJob(sj serpAPIJob, req model.SearchRequest, page, index int) model.Posting {
	applyLink := ""
	if len(sj.ApplyOptions) > 0 {
		applyLink = sj.ApplyOptions[0].Link
	}

	title := firstNonEmpty(model.DefaultTitle, sj.Title)
	company := firstNonEmpty(model.DefaultCompany, sj.CompanyName)

	return model.Posting{
		ID:          firstNonEmpty(fmt.Sprintf("serpapi-%d-%d", page, index), sj.JobID),
		Title:       title,
		Company:     company,
		Location:    firstNonEmpty(req.Location, sj.Location),
		PostedAt:    firstNonEmpty(model.DefaultPostedAt, sj.DetectedExtensions.PostedAt),
		Source:      firstNonEmpty("Google Jobs", sj.Via),
		Link:        firstNonEmpty(model.SearchLink(title, company), sj.ShareLink, applyLink),
		Description: extractText(sj.Description),
		Salary:      firstNonEmpty(model.DefaultSalary, sj.DetectedExtensions.Salary),
	}
}
