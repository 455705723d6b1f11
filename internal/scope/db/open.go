package db

import (
	"context"
	"fmt"

	"github.com/dsjohal14/synfinder/internal/libs/config"
)

// Open creates the backend selected by cfg
func Open(ctx context.Context, cfg config.CacheConfig, dataDir string) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemStore(), nil
	case config.BackendFile:
		return NewFileStore(dataDir)
	case config.BackendSQLite:
		return NewSQLiteStore(dataDir)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
