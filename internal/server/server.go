// Package server exposes the aggregation pipeline over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/abhimit04/job-new-agent/internal/config"
	"github.com/abhimit04/job-new-agent/internal/model"
	"github.com/abhimit04/job-new-agent/internal/pipeline"
	"github.com/abhimit04/job-new-agent/internal/report"
)

// Server wires the pipeline, renderer, and optional deliverer behind the
// HTTP API. deliverer is nil when no email transport is configured.
type Server struct {
	pipeline  *pipeline.Pipeline
	renderer  report.Renderer
	deliverer model.Deliverer
	defaults  config.DefaultsConfig
	devMode   bool
	logger    *slog.Logger
	startedAt time.Time
}

// New creates a Server. Pass a nil deliverer when email is unconfigured;
// the report endpoint then answers 503.
func New(p *pipeline.Pipeline, r report.Renderer, d model.Deliverer, defaults config.DefaultsConfig, devMode bool, logger *slog.Logger) *Server {
	return &Server{
		pipeline:  p,
		renderer:  r,
		deliverer: d,
		defaults:  defaults,
		devMode:   devMode,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// Handler returns the HTTP mux for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the failure response shape shared by both endpoints.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := errorBody{Success: false, Error: msg}
	if err != nil && s.devMode {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}
