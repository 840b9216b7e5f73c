// Package api provides the HTTP API server for the collaboration core.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scribehub/scribe-server/internal/api/handlers"
	"github.com/scribehub/scribe-server/internal/api/health"
	"github.com/scribehub/scribe-server/internal/api/middleware"
	"github.com/scribehub/scribe-server/internal/auth"
	"github.com/scribehub/scribe-server/internal/documents"
	"github.com/scribehub/scribe-server/internal/invitations"
	"github.com/scribehub/scribe-server/internal/relay"
	"github.com/scribehub/scribe-server/internal/store"
	"github.com/scribehub/scribe-server/internal/versions"
	"github.com/scribehub/scribe-server/pkg/config"
)

// Version is the current version of the API server.
// This should be set at build time using ldflags.
var Version = "dev"

// Services bundles the domain services the server exposes.
type Services struct {
	Documents   *documents.Service
	Invitations *invitations.Service
	Versions    *versions.Service
	Relay       *relay.Broker
}

// Server represents the HTTP API server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	store         store.Store
	services      Services
	auth          *auth.Service
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker
	registry      *prometheus.Registry
}

// NewServer creates a new API server with the given dependencies.
func NewServer(cfg *config.Config, st store.Store, svcs Services, authSvc *auth.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:    st,
		services: svcs,
		auth:     authSvc,
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	s.healthChecker = health.NewChecker(st, Version)
	s.setupRouter()
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	metrics, err := middleware.NewMetrics(s.registry)
	if err != nil {
		s.logger.Error("failed to register HTTP metrics", "error", err)
	} else {
		r.Use(metrics.Handler)
	}

	// Unauthenticated endpoints.
	r.Get("/health", s.healthChecker.Handler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		authMiddleware := middleware.NewAuthMiddleware(s.auth, s.logger)
		r.Use(authMiddleware.Authenticate)

		documentHandler := handlers.NewDocumentHandler(s.services.Documents, s.logger)
		invitationHandler := handlers.NewInvitationHandler(s.services.Invitations, s.logger)
		versionHandler := handlers.NewVersionHandler(s.services.Documents, s.services.Versions, s.logger)
		relayHandler := handlers.NewRelayHandler(s.services.Documents, s.services.Relay, s.logger)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentHandler.Create)
			r.Get("/", documentHandler.List)
			r.Route("/{documentID}", func(r chi.Router) {
				r.Get("/", documentHandler.Get)
				r.Patch("/", documentHandler.Update)
				r.Delete("/", documentHandler.Delete)
				r.Post("/share", documentHandler.Share)

				r.Post("/invitations", invitationHandler.Send)

				r.Post("/versions", versionHandler.Create)
				r.Get("/versions", versionHandler.History)
				r.Post("/versions/{versionID}/revert", versionHandler.Revert)
				r.Get("/contributions", versionHandler.Contributions)

				r.Get("/ws", relayHandler.ServeWS)
			})
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", invitationHandler.ListPending)
			r.Get("/count", invitationHandler.CountPending)
			r.Post("/{invitationID}/accept", invitationHandler.Accept)
			r.Post("/{invitationID}/decline", invitationHandler.Decline)
			r.Delete("/{invitationID}", invitationHandler.Cancel)
		})

		r.Get("/versions/{versionID}", versionHandler.Get)
	})

	s.router = r
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start begins listening for HTTP requests. It blocks until the server
// stops or fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr, "version", Version)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
