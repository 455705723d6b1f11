// Package main implements the HTTP API server for synfinder.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/app"
	apihttp "github.com/dsjohal14/synfinder/internal/http"
	"github.com/dsjohal14/synfinder/internal/libs/config"
	"github.com/dsjohal14/synfinder/internal/libs/jobs"
	"github.com/dsjohal14/synfinder/internal/libs/obs"
)

// pruneInterval is how often completed jobs past retention are dropped
const pruneInterval = time.Minute

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Init logger
	obs.InitLogger(cfg.LogLevel)
	logger := obs.Logger("api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close cache")
		}
	}()

	// Create HTTP handler
	handler := apihttp.NewHandler(a.Service, a.Registry, cfg, logger)

	go pruneJobs(ctx, a.Registry, cfg.Jobs.Retention.Duration, logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           setupRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("addr", addr).Int("databases", len(cfg.Databases)).Msg("starting API server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}

func setupRouter(h *apihttp.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Routes
	h.Mount(r)

	return r
}

// pruneJobs drops completed jobs older than retention until ctx is done
func pruneJobs(ctx context.Context, registry *jobs.Registry, retention time.Duration, logger zerolog.Logger) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Prune(retention); n > 0 {
				logger.Debug().Int("pruned", n).Int("remaining", registry.Count()).Msg("pruned jobs")
			}
		}
	}
}
