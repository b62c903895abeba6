package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/auth"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/feedback"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/rerank"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/runs"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/storage"
)

// Server is the Plana QC HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// ServerConfig holds all dependencies and configuration for creating a Server.
type ServerConfig struct {
	DB          *storage.DB
	JWTMgr      *auth.JWTManager
	RunSvc      *runs.Service
	FeedbackSvc *feedback.Service
	RerankSvc   *rerank.Service
	Logger      *slog.Logger

	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	APIKeyHash          string
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		DB:          cfg.DB,
		JWTMgr:      cfg.JWTMgr,
		RunSvc:      cfg.RunSvc,
		FeedbackSvc: cfg.FeedbackSvc,
		RerankSvc:   cfg.RerankSvc,
		Logger:      cfg.Logger,
		APIKeyHash:  cfg.APIKeyHash,
		Version:     cfg.Version,
	})

	mux := http.NewServeMux()

	// Auth endpoint (no auth required).
	mux.HandleFunc("POST /auth/token", h.HandleAuthToken)

	// Run ingestion.
	mux.HandleFunc("POST /v1/runs", h.HandleCreateRun)

	// Feedback endpoints.
	mux.HandleFunc("POST /v1/feedback", h.HandleSubmitFeedback)
	mux.HandleFunc("GET /v1/feedback/summary", h.HandleFeedbackSummary)

	// Weight and rerank endpoints.
	mux.HandleFunc("GET /v1/weights/{application_type}", h.HandleWeightSummary)
	mux.HandleFunc("POST /v1/rerank/policies", h.HandleRerankPolicies)
	mux.HandleFunc("POST /v1/rerank/cases", h.HandleRerankCases)

	// Confidence lookup; the trailing wildcard keeps slashes in
	// planning references intact.
	mux.HandleFunc("GET /v1/confidence/{reference...}", h.HandleConfidence)

	// Health (no auth).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = http.MaxBytesHandler(handler, cfg.MaxRequestBodyBytes)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
