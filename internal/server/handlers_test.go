package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abhimit04/job-new-agent/internal/aggregator"
	"github.com/abhimit04/job-new-agent/internal/config"
	"github.com/abhimit04/job-new-agent/internal/model"
	"github.com/abhimit04/job-new-agent/internal/pipeline"
	"github.com/abhimit04/job-new-agent/internal/report"
)

type stubAdapter struct {
	postings []model.Posting
}

func (s *stubAdapter) Source() string { return "serpapi" }

func (s *stubAdapter) Fetch(ctx context.Context, req model.SearchRequest) model.FetchResult {
	return model.FetchResult{Source: "serpapi", Postings: s.postings}
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(ctx context.Context, req model.SearchRequest, postings []model.Posting) (string, error) {
	return "steady demand", nil
}

type stubDeliverer struct {
	verifyErr    error
	deliverErr   error
	deliverCalls int
	lastTo       string
	lastSubject  string
	lastReport   model.Report
}

func (d *stubDeliverer) Verify(ctx context.Context) error { return d.verifyErr }

func (d *stubDeliverer) Deliver(ctx context.Context, to, subject string, rep model.Report) error {
	d.deliverCalls++
	d.lastTo = to
	d.lastSubject = subject
	d.lastReport = rep
	return d.deliverErr
}

func samplePosting() model.Posting {
	return model.Posting{
		ID: "1", Title: "Engineer", Company: "Acme", Location: "Berlin",
		PostedAt: model.DefaultPostedAt, Salary: model.DefaultSalary,
		Source: "serpapi", Link: "https://example.com",
	}
}

func newTestServer(t *testing.T, adapters []model.SourceAdapter, d model.Deliverer, devMode bool) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(adapters, aggregator.Aggregator{MaxPostings: 25}, nil, 0, stubSummarizer{}, logger)
	r := report.Renderer{MaxCards: 30, DescriptionChars: 250}
	defaults := config.DefaultsConfig{JobType: "engineer", Location: "Berlin"}
	return New(p, r, d, defaults, devMode, logger)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil, nil, false)
	rec := doRequest(t, s, http.MethodGet, "/api/search", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestSearch_InvalidJSON(t *testing.T) {
	s := newTestServer(t, nil, nil, false)
	rec := doRequest(t, s, http.MethodPost, "/api/search", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSearch_Success(t *testing.T) {
	s := newTestServer(t, []model.SourceAdapter{&stubAdapter{postings: []model.Posting{samplePosting()}}}, nil, false)

	rec := doRequest(t, s, http.MethodPost, "/api/search", `{"jobType":"engineer","location":"Berlin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	decodeBody(t, rec, &resp)

	if !resp.Success {
		t.Error("expected success")
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].Title != "Engineer" {
		t.Errorf("unexpected jobs %v", resp.Jobs)
	}
	if resp.Summary != "steady demand" {
		t.Errorf("unexpected summary %q", resp.Summary)
	}
	if resp.Stats.TotalUnique != 1 {
		t.Errorf("unexpected stats %+v", resp.Stats)
	}
	if resp.SearchParams.JobType != "engineer" || resp.SearchParams.Location != "Berlin" {
		t.Errorf("unexpected search params %+v", resp.SearchParams)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("expected no errors, got %v", resp.Errors)
	}
	if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", resp.Timestamp)
	}
}

func TestSearch_MissingFieldsFallBackToDefaults(t *testing.T) {
	s := newTestServer(t, []model.SourceAdapter{&stubAdapter{postings: []model.Posting{samplePosting()}}}, nil, false)

	rec := doRequest(t, s, http.MethodPost, "/api/search", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with defaults, got %d", rec.Code)
	}

	var resp searchResponse
	decodeBody(t, rec, &resp)
	if resp.SearchParams.JobType != "engineer" || resp.SearchParams.Location != "Berlin" {
		t.Errorf("defaults not applied: %+v", resp.SearchParams)
	}
}

func TestSearch_NoDefaultsIsBadRequest(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(nil, aggregator.Aggregator{MaxPostings: 25}, nil, 0, stubSummarizer{}, logger)
	s := New(p, report.Renderer{}, nil, config.DefaultsConfig{}, false, logger)

	rec := doRequest(t, s, http.MethodPost, "/api/search", `{"location":"Berlin"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty job type, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/search", `{"jobType":"engineer"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty location, got %d", rec.Code)
	}
}

func TestSearch_EmptyResultIsStillSuccess(t *testing.T) {
	s := newTestServer(t, []model.SourceAdapter{&stubAdapter{}}, nil, false)

	rec := doRequest(t, s, http.MethodPost, "/api/search", `{"jobType":"engineer","location":"Berlin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp searchResponse
	decodeBody(t, rec, &resp)
	if !resp.Success {
		t.Error("zero results should still succeed")
	}
	if resp.Message != "No job postings found for this search." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Summary != model.SummaryUnavailable {
		t.Errorf("unexpected summary %q", resp.Summary)
	}
}

func reportBody(email string) string {
	body, _ := json.Marshal(map[string]any{
		"userEmail": email,
		"jobType":   "engineer",
		"location":  "Berlin",
		"jobs":      []model.Posting{samplePosting()},
		"summary":   "## Market Summary\nSteady.",
	})
	return string(body)
}

func TestReport_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil, &stubDeliverer{}, false)
	rec := doRequest(t, s, http.MethodGet, "/api/report", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestReport_InvalidRecipient(t *testing.T) {
	d := &stubDeliverer{}
	s := newTestServer(t, nil, d, false)

	rec := doRequest(t, s, http.MethodPost, "/api/report", reportBody("not-an-email"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if d.deliverCalls != 0 {
		t.Error("transport must not be invoked for an invalid recipient")
	}
}

func TestReport_EmptyJobs(t *testing.T) {
	s := newTestServer(t, nil, &stubDeliverer{}, false)

	rec := doRequest(t, s, http.MethodPost, "/api/report", `{"userEmail":"user@example.com","jobs":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty jobs, got %d", rec.Code)
	}
}

func TestReport_NoTransportConfigured(t *testing.T) {
	s := newTestServer(t, nil, nil, false)

	rec := doRequest(t, s, http.MethodPost, "/api/report", reportBody("user@example.com"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestReport_VerifyFailure(t *testing.T) {
	d := &stubDeliverer{verifyErr: errors.New("dial tcp: connection refused")}
	s := newTestServer(t, nil, d, false)

	rec := doRequest(t, s, http.MethodPost, "/api/report", reportBody("user@example.com"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if d.deliverCalls != 0 {
		t.Error("delivery must not run when verification fails")
	}
}

func TestReport_DeliveryFailure(t *testing.T) {
	d := &stubDeliverer{deliverErr: errors.New("550 mailbox unavailable")}
	s := newTestServer(t, nil, d, false)

	rec := doRequest(t, s, http.MethodPost, "/api/report", reportBody("user@example.com"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}

	var body errorBody
	decodeBody(t, rec, &body)
	if body.Error != "report delivery failed" {
		t.Errorf("unexpected error message %q", body.Error)
	}
}

func TestReport_Success(t *testing.T) {
	d := &stubDeliverer{}
	s := newTestServer(t, nil, d, false)

	rec := doRequest(t, s, http.MethodPost, "/api/report", reportBody(" user@example.com "))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp reportResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.JobCount != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Message != "Report sent to user@example.com" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	if d.lastTo != "user@example.com" {
		t.Errorf("recipient not trimmed: %q", d.lastTo)
	}
	if d.lastSubject != "Job Market Report: engineer" {
		t.Errorf("unexpected subject %q", d.lastSubject)
	}
	if !strings.Contains(d.lastReport.HTML, "Engineer") || d.lastReport.Text == "" {
		t.Error("expected rendered report passed to the transport")
	}
}

func TestWriteError_DetailsOnlyInDevMode(t *testing.T) {
	d := &stubDeliverer{verifyErr: errors.New("secret internals")}

	prod := newTestServer(t, nil, d, false)
	rec := doRequest(t, prod, http.MethodPost, "/api/report", reportBody("user@example.com"))
	var body errorBody
	decodeBody(t, rec, &body)
	if body.Details != "" {
		t.Errorf("details leaked outside dev mode: %q", body.Details)
	}

	dev := newTestServer(t, nil, d, true)
	rec = doRequest(t, dev, http.MethodPost, "/api/report", reportBody("user@example.com"))
	decodeBody(t, rec, &body)
	if !strings.Contains(body.Details, "secret internals") {
		t.Errorf("expected details in dev mode, got %q", body.Details)
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, nil, nil, false)

	rec := doRequest(t, s, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Errorf("unexpected status body %v", body)
	}
}
