// Package api serves the household chore boards over HTTP, a websocket and
// an iCalendar feed.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

// CorrelationHeader carries the correlation id in and out of requests.
const CorrelationHeader = "X-Correlation-ID"

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *BoardHandler
	hub     *Hub
	health  *observability.HealthRegistry
	metrics observability.Metrics
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ServerDeps are the collaborators of the server. Hub, Health and Metrics
// are optional.
type ServerDeps struct {
	Handler *BoardHandler
	Hub     *Hub
	Health  *observability.HealthRegistry
	Metrics observability.Metrics
	Logger  *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		handler: deps.Handler,
		hub:     deps.Hub,
		health:  deps.Health,
		metrics: metrics,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/v1/entries", s.handler.ListEntries)
	s.mux.HandleFunc("GET /api/v1/boards/{entryID}", s.handler.GetBoard)
	s.mux.HandleFunc("PUT /api/v1/boards/{entryID}", s.handler.SaveBoard)
	s.mux.HandleFunc("POST /api/v1/boards/{entryID}/cleanup", s.handler.RemoveDoneTasks)
	s.mux.HandleFunc("POST /api/v1/boards/{entryID}/refresh", s.handler.WeeklyRefresh)
	s.mux.HandleFunc("GET /api/v1/boards/{entryID}/people/{personID}/week", s.handler.PersonWeekStats)
	s.mux.HandleFunc("GET /api/v1/boards/{entryID}/next", s.handler.NextTasks)
	s.mux.HandleFunc("GET /api/v1/boards/{entryID}/calendar.ics", s.handler.Calendar)

	if s.hub != nil {
		s.mux.HandleFunc("GET /api/v1/boards/{entryID}/ws", s.hub.ServeWS)
	}
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.mux)
}

// withRequestContext stamps request and correlation ids and counts requests.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get(CorrelationHeader))
		w.Header().Set(CorrelationHeader, observability.CorrelationIDFromContext(ctx))
		s.metrics.Counter(observability.MetricHTTPRequests, 1, observability.T("method", r.Method))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleHealth reports the health registry, or plain liveness without one.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	overall := s.health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if overall.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, overall)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting board API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down board API server")
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := sonic.ConfigStd.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, apiErr *APIError) {
	writeJSON(w, apiErr.Status, errorBody{Error: apiErr})
}

type errorBody struct {
	Error *APIError `json:"error"`
}

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// withMessage copies e with a specific message.
func (e *APIError) withMessage(message string) *APIError {
	out := *e
	out.Message = message
	return &out
}

// Common API errors
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "Invalid request",
	}
	ErrInvalidPayload = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_payload",
		Message: "Board payload must be a JSON object",
	}
	ErrEntryNotFound = &APIError{
		Status:  http.StatusNotFound,
		Code:    "entry_not_found",
		Message: "Entry not found",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)

// toAPIError maps application errors onto API errors.
func toAPIError(err error) *APIError {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		return ErrEntryNotFound.withMessage(err.Error())
	case errors.Is(err, domain.ErrInvalidPayload):
		return ErrInvalidPayload
	default:
		return ErrInternalServer
	}
}
