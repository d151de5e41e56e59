package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abhimit04/job-new-agent/internal/model"
	"github.com/abhimit04/job-new-agent/internal/ratelimit"
	"github.com/abhimit04/job-new-agent/internal/retry"
)

func newTestJSearch(srv *httptest.Server, maxPages int) *JSearchAdapter {
	a := NewJSearchAdapter("test-key", maxPages, srv.Client(),
		ratelimit.NewProviderLimiter(time.Millisecond),
		retry.Policy{MaxRetries: 0, BaseDelay: time.Millisecond, Logger: testLogger()},
		testLogger(),
	)
	a.baseURL = srv.URL
	return a
}

func TestJSearchFetch_MapsFields(t *testing.T) {
	payload := `{
		"status": "OK",
		"data": [
			{
				"job_id": "j1",
				"job_title": "Backend Engineer",
				"employer_name": "Globex",
				"job_publisher": "Indeed",
				"job_city": "Munich",
				"job_country": "Germany",
				"job_posted_at_datetime_utc": "2026-08-20T00:00:00Z",
				"job_apply_link": "https://globex.example/apply",
				"job_description": "Go services",
				"job_min_salary": 70000,
				"job_max_salary": 90000,
				"job_salary_currency": "EUR",
				"job_salary_period": "YEAR"
			}
		]
	}`
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if got := r.Header.Get("X-RapidAPI-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if pages == 1 {
			w.Write([]byte(payload))
			return
		}
		w.Write([]byte(`{"status": "OK", "data": []}`))
	}))
	defer srv.Close()

	result := newTestJSearch(srv, 3).Fetch(context.Background(), testReq)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(result.Postings))
	}

	p := result.Postings[0]
	if p.ID != "j1" {
		t.Errorf("expected ID j1, got %s", p.ID)
	}
	if p.Company != "Globex" {
		t.Errorf("unexpected company: %s", p.Company)
	}
	if p.Location != "Munich, Germany" {
		t.Errorf("unexpected location: %s", p.Location)
	}
	if p.Source != "Indeed" {
		t.Errorf("unexpected source: %s", p.Source)
	}
	if p.Salary != "70000-90000 EUR per year" {
		t.Errorf("unexpected salary: %s", p.Salary)
	}
	if p.Link != "https://globex.example/apply" {
		t.Errorf("unexpected link: %s", p.Link)
	}
}

func TestJSearchFetch_StopsOnEmptyPage(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if pages == 1 {
			w.Write([]byte(`{"status": "OK", "data": [{"job_title": "A", "employer_name": "X"}]}`))
			return
		}
		w.Write([]byte(`{"status": "OK", "data": []}`))
	}))
	defer srv.Close()

	result := newTestJSearch(srv, 3).Fetch(context.Background(), testReq)

	if pages != 2 {
		t.Errorf("expected fetch to stop after the first empty page, got %d requests", pages)
	}
	if len(result.Postings) != 1 {
		t.Errorf("expected 1 posting, got %d", len(result.Postings))
	}
}

func TestJSearchFetch_DefaultsForMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(`{"status": "OK", "data": [{}]}`))
			return
		}
		w.Write([]byte(`{"status": "OK", "data": []}`))
	}))
	defer srv.Close()

	result := newTestJSearch(srv, 3).Fetch(context.Background(), testReq)
	if len(result.Postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(result.Postings))
	}

	p := result.Postings[0]
	if p.ID != "jsearch-1-0" {
		t.Errorf("expected synthesized ID, got %s", p.ID)
	}
	if p.Title != model.DefaultTitle || p.Company != model.DefaultCompany {
		t.Errorf("expected defaults, got %s / %s", p.Title, p.Company)
	}
	if p.Location != testReq.Location {
		t.Errorf("expected request location fallback, got %s", p.Location)
	}
	if p.Salary != model.DefaultSalary {
		t.Errorf("expected default salary, got %s", p.Salary)
	}
	if p.Link == "" {
		t.Error("link must never be empty")
	}
}

func TestJSearchFetch_HTTPErrorRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := newTestJSearch(srv, 3).Fetch(context.Background(), testReq)

	if len(result.Postings) != 0 {
		t.Errorf("expected no postings, got %d", len(result.Postings))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "401") {
		t.Errorf("error should carry the status code: %q", result.Errors[0])
	}
}

func TestFormatSalary(t *testing.T) {
	tests := []struct {
		name string
		job  jsearchJob
		want string
	}{
		{"none", jsearchJob{}, model.DefaultSalary},
		{"range", jsearchJob{MinSalary: 50000, MaxSalary: 70000, SalaryCurrency: "USD"}, "50000-70000 USD"},
		{"min only", jsearchJob{MinSalary: 50000, SalaryCurrency: "EUR"}, "from 50000 EUR"},
		{"max only", jsearchJob{MaxSalary: 70000}, "up to 70000 USD"},
		{"with period", jsearchJob{MinSalary: 40, MaxSalary: 60, SalaryCurrency: "USD", SalaryPeriod: "HOUR"}, "40-60 USD per hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSalary(tt.job); got != tt.want {
				t.Errorf("formatSalary = %q, want %q", got, tt.want)
			}
		})
	}
}
