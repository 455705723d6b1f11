// Package main implements the background worker that keeps the term caches
// of the configured databases up to date.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/app"
	"github.com/dsjohal14/synfinder/internal/libs/config"
	"github.com/dsjohal14/synfinder/internal/libs/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	obs.InitLogger(cfg.LogLevel)
	logger := obs.Logger("worker")

	if cfg.Cache.AutoUpdate.Duration <= 0 {
		logger.Info().Msg("auto update disabled, set AUTO_UPDATE_INTERVAL to enable")
		return
	}
	if len(cfg.Databases) == 0 {
		logger.Info().Msg("no databases configured, nothing to update")
		return
	}

	// One worker per data directory
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create data directory")
	}
	lock := flock.New(filepath.Join(cfg.DataDir, "worker.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to acquire worker lock")
	}
	if !locked {
		logger.Fatal().Str("lock", lock.Path()).Msg("another worker is already running")
	}
	defer func() { _ = lock.Unlock() }()

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

	logger.Info().
		Dur("interval", cfg.Cache.AutoUpdate.Duration).
		Int("databases", len(cfg.Databases)).
		Msg("worker started")

	run(ctx, a, cfg.Cache.AutoUpdate.Duration, logger)
	logger.Info().Msg("worker stopped")
}

// run updates every database now and then once per interval until ctx is
// done
func run(ctx context.Context, a *app.App, interval time.Duration, logger zerolog.Logger) {
	update := func() {
		started := time.Now()
		if err := a.Service.RefreshAll(ctx, a.Config.Databases); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("auto update finished with errors")
			return
		}
		logger.Info().Dur("elapsed", time.Since(started)).Msg("auto update finished")
	}

	update()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
