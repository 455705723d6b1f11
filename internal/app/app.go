// Package app wires the synfinder components shared by the api, worker and
// cli entry points.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/libs/config"
	"github.com/dsjohal14/synfinder/internal/libs/jobs"
	"github.com/dsjohal14/synfinder/internal/scope/cache"
	"github.com/dsjohal14/synfinder/internal/scope/db"
	"github.com/dsjohal14/synfinder/internal/scope/pipeline"
	"github.com/dsjohal14/synfinder/internal/scope/search"
	"github.com/dsjohal14/synfinder/internal/streamlite"
)

// App holds the wired service and the resources it owns
type App struct {
	Config   *config.Config
	Backend  db.Backend
	Cache    *cache.TermCache
	Registry *jobs.Registry
	Service  *pipeline.Service
}

// New opens the configured cache backend and wires the pipeline. Jobs run
// under ctx; cancelling it stops them.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	backend, err := db.Open(openCtx, cfg.Cache, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.Cache.Backend, err)
	}

	logger.Info().
		Str("backend", cfg.Cache.Backend).
		Str("data_dir", cfg.DataDir).
		Int("chunk_size", cfg.Cache.ChunkSize).
		Msg("term cache opened")

	termCache := cache.New(backend, logger.With().Str("component", "cache").Logger())
	registry := jobs.NewRegistry(ctx, logger.With().Str("component", "jobs").Logger())
	svc := pipeline.NewService(
		termCache,
		registry,
		search.NewEngine(nil, logger.With().Str("component", "engine").Logger()),
		streamlite.NewClient(&http.Client{Timeout: 2 * time.Minute}, logger.With().Str("component", "brapi").Logger()),
		cfg.Cache.ChunkSize,
		logger,
	)

	return &App{
		Config:   cfg,
		Backend:  backend,
		Cache:    termCache,
		Registry: registry,
		Service:  svc,
	}, nil
}

// Close waits for running jobs and closes the cache backend. Cancel the
// context given to New first to stop jobs early.
func (a *App) Close() error {
	a.Registry.Wait()
	return a.Backend.Close()
}
