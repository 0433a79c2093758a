package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phishguard/phishguard/internal/model"
	"github.com/phishguard/phishguard/internal/report"
	"github.com/phishguard/phishguard/internal/scan"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8790"

	// maxRequestBody caps the request body size. Email bodies are text;
	// anything above this is not a scan request.
	maxRequestBody = 1 << 20 // 1 MiB

	// defaultHistoryLimit is used when the history endpoint receives no
	// limit parameter.
	defaultHistoryLimit = 20

	// maxHistoryLimit caps how many records a single request may fetch.
	maxHistoryLimit = 500

	shutdownTimeout = 5 * time.Second
)

// HistoryStore is the subset of the scan history database the server
// needs. Implemented by database.HistoryDB; a nil store disables
// persistence without disabling scanning.
type HistoryStore interface {
	InsertScan(ctx context.Context, verdict model.Verdict, score float64) (int64, error)
	RecentScans(ctx context.Context, limit int) ([]model.HistoryRecord, error)
	Stats(ctx context.Context) (model.HistoryStats, error)
}

// Server handles the HTTP API on top of a shared scan engine.
type Server struct {
	engine  *scan.Engine
	history HistoryStore
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHistory attaches a scan history store. Scans served over HTTP are
// recorded in it, and the history endpoint reads from it.
func WithHistory(store HistoryStore) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithLogger sets a custom logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server backed by the given engine.
func New(engine *scan.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Router returns the chi router with all API routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Post("/report", s.handleReport)
		r.Get("/history", s.handleHistory)
	})
	return r
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("API server listening", "addr", addr)

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down API server")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// scanRequest is the body of POST /api/v1/scan and POST /api/v1/report.
type scanRequest struct {
	EmailContent string `json:"email_content"`
}

// historyResponse is the body of GET /api/v1/history.
type historyResponse struct {
	Records []model.HistoryRecord `json:"records"`
	Stats   model.HistoryStats    `json:"stats"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeScanRequest(w, r)
	if !ok {
		return
	}

	result := s.engine.Scan(r.Context(), req.EmailContent)
	s.recordScan(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeScanRequest(w, r)
	if !ok {
		return
	}

	result := s.engine.Scan(r.Context(), req.EmailContent)
	s.recordScan(r.Context(), result)

	var doc strings.Builder
	if _, err := report.NewMarkdownWriter(&doc).Write(result, req.EmailContent); err != nil {
		s.logger.Error("failed to render report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="phishguard_audit.md"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc.String())); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "scan history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.RecentScans(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read scan history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read scan history")
		return
	}
	stats, err := s.history.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to read scan statistics", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read scan history")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Records: records, Stats: stats})
}

// decodeScanRequest parses the shared scan/report request body. On failure
// it writes the error response and returns ok=false. Empty or absent
// email_content is valid input: the engine scans the empty string to a
// low-score LEGITIMATE result. Unknown fields are ignored so older or
// richer clients keep working.
func (s *Server) decodeScanRequest(w http.ResponseWriter, r *http.Request) (scanRequest, bool) {
	var req scanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return scanRequest{}, false
	}
	return req, true
}

// recordScan persists a scan outcome when a history store is attached.
// Persistence failures are logged and never fail the request.
func (s *Server) recordScan(ctx context.Context, result *model.ScanResult) {
	if s.history == nil {
		return
	}
	if _, err := s.history.InsertScan(ctx, result.Verdict, result.Score); err != nil {
		s.logger.Error("failed to record scan", "error", err)
	}
}

// logRequests logs each request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
