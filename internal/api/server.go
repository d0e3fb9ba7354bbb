package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-health/centinela/internal/audit"
	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/normalizer"
	"github.com/opensource-health/centinela/internal/policy"
	"github.com/opensource-health/centinela/internal/rules"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, n *normalizer.Normalizer, validator *policy.Validator, pipeline *audit.Pipeline, version string) *Server {
	handler := NewHandler(repo, cache, bus, engine, n, validator, pipeline, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression
	router.Use(BodyLimitMiddleware)    // Cap request bodies

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Claim auditing
		r.Post("/audits", handler.CreateAudit)
		r.Get("/audits/{id}", handler.GetAudit)

		// Claim retrieval
		r.Get("/claims/{id}", handler.GetClaim)
		r.Get("/claims/{id}/audits", handler.ListClaimAudits)

		// Standalone policy cross-reference
		r.Post("/validate", handler.ValidatePolicy)

		// Rule management
		r.Get("/rules", handler.ListRules)
		r.Get("/rules/{id}", handler.GetRule)
		r.Post("/rules", handler.CreateRule)
		r.Put("/rules/{id}", handler.UpdateRule)
		r.Delete("/rules/{id}", handler.DeleteRule)
		r.Post("/rules/reload", handler.ReloadRules)

		// Insurer mapping tables
		r.Get("/insurers", handler.ListInsurers)
		r.Get("/insurers/{code}", handler.GetInsurer)
		r.Put("/insurers/{code}", handler.UpdateInsurer)

		// Patient policies
		r.Post("/policies", handler.CreatePolicy)
		r.Get("/policies/{numero}", handler.GetPolicy)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
