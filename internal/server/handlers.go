package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/abhimit04/job-new-agent/internal/delivery"
	"github.com/abhimit04/job-new-agent/internal/model"
)

// searchRequest is the POST /api/search body.
type searchRequest struct {
	JobType  string `json:"jobType"`
	Location string `json:"location"`
}

// searchResponse is the aggregation response shape.
type searchResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	Jobs         []model.Posting     `json:"jobs"`
	Summary      string              `json:"summary"`
	Stats        searchStats         `json:"stats"`
	SearchParams model.SearchRequest `json:"searchParams"`
	Errors       []string            `json:"errors,omitempty"`
	Timestamp    string              `json:"timestamp"`
}

type searchStats struct {
	PerSource         map[string]int `json:"perSource"`
	TotalUnique       int            `json:"totalUnique"`
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
}

// handleSearch runs one aggregation pass. Missing fields fall back to
// the configured defaults; a field with neither value is a 400. Zero
// results and summarizer unavailability are both 200s.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body", err)
		return
	}

	if req.JobType == "" {
		req.JobType = s.defaults.JobType
	}
	if req.Location == "" {
		req.Location = s.defaults.Location
	}

	out, err := s.pipeline.Aggregate(r.Context(), model.SearchRequest{
		JobType:  req.JobType,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmptyQuery) || errors.Is(err, model.ErrEmptyLocation) {
			s.writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		s.logger.Error("aggregation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Message: out.Message,
		Jobs:    out.Result.Postings,
		Summary: out.Summary,
		Stats: searchStats{
			PerSource:         out.Result.PerSourceCounts,
			TotalUnique:       len(out.Result.Postings),
			DuplicatesRemoved: out.Result.DuplicatesRemoved,
		},
		SearchParams: model.SearchRequest{JobType: req.JobType, Location: req.Location},
		Errors:       nonEmpty(out.Result.Errors),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}

// reportRequest is the POST /api/report body. Delivery is decoupled from
// aggregation: the caller supplies a previously computed posting set.
type reportRequest struct {
	UserEmail string          `json:"userEmail"`
	JobType   string          `json:"jobType"`
	Location  string          `json:"location"`
	Jobs      []model.Posting `json:"jobs"`
	Summary   string          `json:"summary"`
	Stats     *searchStats    `json:"stats"`
	Timestamp string          `json:"timestamp"`
}

// reportResponse is the delivery success shape.
type reportResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	JobCount  int    `json:"jobCount"`
	Timestamp string `json:"timestamp"`
}

// handleReport renders and emails a report from a caller-supplied
// payload. 400 for bad input, 503 when the transport is unconfigured or
// fails verification, 500 when the transport rejects the send.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body", err)
		return
	}

	recipient, err := delivery.ValidateAddress(req.UserEmail)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if len(req.Jobs) == 0 {
		s.writeError(w, http.StatusBadRequest, model.ErrNoPostings.Error(), nil)
		return
	}

	if s.deliverer == nil {
		s.writeError(w, http.StatusServiceUnavailable, model.ErrTransportUnconfigured.Error(), nil)
		return
	}
	if err := s.deliverer.Verify(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "email transport verification failed", err)
		return
	}

	result := model.AggregationResult{
		Postings:        req.Jobs,
		PerSourceCounts: map[string]int{},
		Errors:          []string{},
	}
	if req.Stats != nil {
		result.PerSourceCounts = req.Stats.PerSource
		result.DuplicatesRemoved = req.Stats.DuplicatesRemoved
	}

	searchReq := model.SearchRequest{JobType: req.JobType, Location: req.Location}
	rendered, err := s.renderer.Render(searchReq, req.Summary, result)
	if err != nil {
		s.logger.Error("report render failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	subject := "Job Market Report"
	if req.JobType != "" {
		subject = "Job Market Report: " + req.JobType
	}

	if err := s.deliverer.Deliver(r.Context(), recipient, subject, rendered); err != nil {
		// Transport rejection, told apart from the 503 config path above.
		s.writeError(w, http.StatusInternalServerError, "report delivery failed", err)
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Success:   true,
		Message:   "Report sent to " + recipient,
		JobCount:  len(req.Jobs),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// nonEmpty returns nil for an empty slice so the errors field is omitted
// from successful responses.
func nonEmpty(errs []string) []string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
