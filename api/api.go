// Package api exposes the export pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/pevans/bylines/admin"
	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/export"
	"github.com/pevans/bylines/pipeline"
	"github.com/pevans/bylines/trends"
)

// maxRequestBytes bounds export request bodies.
const maxRequestBytes = 1 << 16

// Server is the HTTP API server. The run store and trends scorer are
// optional; endpoints that need a missing collaborator degrade rather
// than fail at startup.
type Server struct {
	pipeline *pipeline.Pipeline
	store    *admin.RunStore
	scorer   *trends.Scorer
	logger   *log.Logger
}

// NewServer creates an API server. A nil logger falls back to the default
// logger so failures during request handling are never silent.
func NewServer(p *pipeline.Pipeline, store *admin.RunStore, scorer *trends.Scorer, logger *log.Logger) *Server {
	if p == nil {
		p = pipeline.New(nil, nil, nil, logger)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		pipeline: p,
		store:    store,
		scorer:   scorer,
		logger:   logger,
	}
}

// ExportRequest is the body for POST /api/v1/exports.
type ExportRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// RunsResponse is the response for GET /api/v1/runs.
type RunsResponse struct {
	Runs  []admin.Run `json:"runs"`
	Total int         `json:"total"`
}

// SuggestionsResponse is the response for GET /api/v1/trends/suggestions.
type SuggestionsResponse struct {
	Author      string              `json:"author"`
	Suggestions []trends.Suggestion `json:"suggestions"`
}

// ErrorResponse is the envelope for all error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleExport handles POST /api/v1/exports. Validation failures map to
// 400, an empty crawl to 404, and an empty enrichment result to 422. On
// success the rendered payload is served as an attachment named after the
// author slug.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req ExportRequest
	body := io.LimitReader(r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body: "+err.Error())
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "missing_url", "Field 'url' is required")
		return
	}
	if req.Format == "" {
		req.Format = string(export.FormatCSV)
	}

	started := time.Now().UTC()
	payload, stats, err := s.pipeline.Export(r.Context(), req.URL, req.Format)
	s.recordRun(stats, err, started)

	if err != nil {
		switch {
		case errors.Is(err, author.ErrInvalidURL):
			s.writeError(w, http.StatusBadRequest, "invalid_url", err.Error())
		case errors.Is(err, author.ErrDomainNotAllowed):
			s.writeError(w, http.StatusBadRequest, "domain_not_allowed", err.Error())
		case errors.Is(err, author.ErrNotAuthorPage):
			s.writeError(w, http.StatusBadRequest, "not_author_page", err.Error())
		case errors.Is(err, export.ErrUnknownFormat):
			s.writeError(w, http.StatusBadRequest, "unknown_format", err.Error())
		case errors.Is(err, pipeline.ErrNoArticles):
			s.writeError(w, http.StatusNotFound, "no_articles", err.Error())
		case errors.Is(err, pipeline.ErrNoEnriched):
			s.writeError(w, http.StatusUnprocessableEntity, "no_enriched_articles", err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	filename := fmt.Sprintf("%s.%s", stats.AuthorSlug, payload.Extension)
	w.Header().Set("Content-Type", payload.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(payload.Body)
}

// recordRun persists a run record when a store is configured. Storage
// failures are logged and never surfaced to the client.
func (s *Server) recordRun(stats *pipeline.Stats, exportErr error, started time.Time) {
	if s.store == nil || stats == nil {
		return
	}

	run := &admin.Run{
		AuthorSlug:       stats.AuthorSlug,
		ListingURL:       stats.ListingURL,
		Format:           stats.Format,
		PagesVisited:     stats.PagesVisited,
		ArticlesFound:    stats.ArticlesFound,
		ArticlesEnriched: stats.ArticlesEnriched,
		Status:           admin.StatusOK,
		StartedAt:        started,
		FinishedAt:       time.Now().UTC(),
	}
	switch {
	case exportErr == nil:
	case errors.Is(exportErr, pipeline.ErrNoArticles), errors.Is(exportErr, pipeline.ErrNoEnriched):
		run.Status = admin.StatusEmpty
		run.Error = exportErr.Error()
	default:
		run.Status = admin.StatusError
		run.Error = exportErr.Error()
	}

	if err := s.store.Record(run); err != nil {
		s.logger.Printf("WARN: Failed to record run for %s: %v", stats.AuthorSlug, err)
	}
}

// HandleListRuns handles GET /api/v1/runs. Returns the most recent runs,
// newest first.
func (s *Server) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "store_unavailable", "Run store is not configured")
		return
	}

	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		if parsed > 500 {
			parsed = 500
		}
		limit = parsed
	}

	runs, err := s.store.List(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []admin.Run{}
	}

	s.writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Total: len(runs)})
}

// HandleTrendSuggestions handles GET /api/v1/trends/suggestions. Crawls the
// author's listing for previews and scores them against the configured
// trends feed.
func (s *Server) HandleTrendSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	if s.scorer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "trends_unavailable", "Trends scoring is not configured")
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.writeError(w, http.StatusBadRequest, "missing_url", "Query parameter 'url' is required")
		return
	}

	limit := 10
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	result, actx, err := s.pipeline.Previews(r.Context(), rawURL)
	if err != nil {
		switch {
		case errors.Is(err, author.ErrInvalidURL):
			s.writeError(w, http.StatusBadRequest, "invalid_url", err.Error())
		case errors.Is(err, author.ErrDomainNotAllowed):
			s.writeError(w, http.StatusBadRequest, "domain_not_allowed", err.Error())
		case errors.Is(err, author.ErrNotAuthorPage):
			s.writeError(w, http.StatusBadRequest, "not_author_page", err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	suggestions, err := s.scorer.Suggest(r.Context(), result.Previews, limit)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "trends_feed_error", "Failed to score trends: "+err.Error())
		return
	}
	if suggestions == nil {
		suggestions = []trends.Suggestion{}
	}

	s.writeJSON(w, http.StatusOK, SuggestionsResponse{Author: actx.Slug, Suggestions: suggestions})
}

// HandleHealth handles GET /api/v1/health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/exports", s.HandleExport)
	mux.HandleFunc("/api/v1/runs", s.HandleListRuns)
	mux.HandleFunc("/api/v1/trends/suggestions", s.HandleTrendSuggestions)
	mux.HandleFunc("/api/v1/health", s.HandleHealth)
	return CORSMiddleware(mux)
}

// Start runs the HTTP server on the given address. Blocks until the server
// stops.
func (s *Server) Start(addr string) error {
	s.logger.Printf("INFO: API server listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard envelope.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// CORSMiddleware adds CORS headers and answers preflight requests.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
