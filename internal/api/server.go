// Package api exposes the research pipeline over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/nugget/research-assistant/internal/buildinfo"
	"github.com/nugget/research-assistant/internal/history"
	"github.com/nugget/research-assistant/internal/research"
)

// maxRequestBody bounds the size of a research request.
const maxRequestBody = 64 << 10

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Researcher is the part of [research.Agent] the server needs.
type Researcher interface {
	HandleQuery(ctx context.Context, query string) research.Result
	History() *history.Log
}

// Server is the HTTP API server.
type Server struct {
	address    string
	port       int
	researcher Researcher
	logger     *slog.Logger
	server     *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, researcher Researcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address:    address,
		port:       port,
		researcher: researcher,
		logger:     logger.With("component", "api"),
	}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/research", s.handleResearch)
	mux.HandleFunc("GET /v1/history", s.handleHistory)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests. It blocks until the server stops
// and returns [http.ErrServerClosed] after a clean [Server.Shutdown].
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // a query may wait on search and model calls
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

// ResearchRequest is the body of POST /v1/research.
type ResearchRequest struct {
	Query string `json:"query"`
}

// ResearchResponse is returned by POST /v1/research.
type ResearchResponse struct {
	Summary       string   `json:"summary"`
	SummaryHTML   string   `json:"summary_html,omitempty"`
	Sources       []string `json:"sources"`
	SearchOrigin  string   `json:"search_origin"`
	SummaryMethod string   `json:"summary_method"`
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.errorResponse(w, http.StatusBadRequest, "query is required")
		return
	}

	res := s.researcher.HandleQuery(r.Context(), req.Query)

	html, err := markdownToHTML(res.Summary)
	if err != nil {
		s.logger.Debug("failed to render summary HTML", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ResearchResponse{
		Summary:       res.Summary,
		SummaryHTML:   html,
		Sources:       res.Sources,
		SearchOrigin:  res.SearchOrigin.String(),
		SummaryMethod: res.SummaryMethod.String(),
	}, s.logger)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := history.DefaultLast
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			s.errorResponse(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		n = parsed
	}

	entries := s.researcher.History().Last(n)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"entries": entries,
		"total":   s.researcher.History().Len(),
	}, s.logger)
}

// markdownToHTML renders a summary (often a bulleted list from the
// model) to an HTML fragment.
func markdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
