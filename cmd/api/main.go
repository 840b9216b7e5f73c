// Package main provides the entry point for the collaboration API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/scribehub/scribe-server/internal/api"
	"github.com/scribehub/scribe-server/internal/auth"
	"github.com/scribehub/scribe-server/internal/documents"
	"github.com/scribehub/scribe-server/internal/identity"
	"github.com/scribehub/scribe-server/internal/invitations"
	"github.com/scribehub/scribe-server/internal/relay"
	"github.com/scribehub/scribe-server/internal/shutdown"
	pgstore "github.com/scribehub/scribe-server/internal/store/postgres"
	"github.com/scribehub/scribe-server/internal/versions"
	"github.com/scribehub/scribe-server/pkg/config"
	"github.com/scribehub/scribe-server/pkg/logger"
)

func main() {
	// Optional .env bootstrap for local development.
	_ = godotenv.Load()

	log := logger.New(slog.LevelInfo, true)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storeCfg := pgstore.DefaultConfig(cfg.DatabaseDSN)
	store, err := pgstore.NewPostgresStore(storeCfg, log.Logger)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}, log.Logger)

	resolver := identity.NewHTTPResolver(&identity.Config{
		BaseURL: cfg.Identity.BaseURL,
		Timeout: cfg.Identity.Timeout,
	}, log)

	services := api.Services{
		Documents:   documents.NewService(store, cfg.Documents.CascadeOnDelete(), log),
		Invitations: invitations.NewService(store, resolver, cfg.Documents.InvitationTTL, log),
		Versions:    versions.NewService(store, log),
		Relay:       relay.NewBroker(cfg.Relay.SubscriberBuffer, log.Logger),
	}

	server := api.NewServer(cfg, store, services, authService, log.Logger)

	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	coordinator.RegisterFunc("store", func(ctx context.Context) error {
		return store.Close()
	})
	coordinator.RegisterFunc("api-server", server.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	go coordinator.WaitForSignal()

	done := make(chan struct{})
	go func() {
		coordinator.Wait()
		close(done)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-done:
	}

	log.Info("server stopped")
	os.Exit(coordinator.ExitCode())
}
