// Package config provides application configuration management from a TOML
// file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dsjohal14/synfinder/internal/scope/search/routines"
	"github.com/dsjohal14/synfinder/internal/streamlite"
)

// Cache backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	APIPort  string `toml:"api_port"`
	APIHost  string `toml:"api_host"`
	LogLevel string `toml:"log_level"`
	DataDir  string `toml:"data_dir"`

	Cache     CacheConfig           `toml:"cache"`
	Jobs      JobsConfig            `toml:"jobs"`
	Search    SearchDefaults        `toml:"search"`
	Databases []streamlite.Database `toml:"databases"`
}

// CacheConfig controls where fetched corpora are persisted
type CacheConfig struct {
	Backend     string `toml:"backend"`
	DatabaseURL string `toml:"database_url"`
	ChunkSize   int    `toml:"chunk_size"`

	// AutoUpdate is how often the worker refreshes every configured
	// database. Zero disables auto update.
	AutoUpdate Duration `toml:"auto_update"`
}

// JobsConfig controls the job registry housekeeping
type JobsConfig struct {
	Retention Duration `toml:"retention"`
}

// SearchDefaults seeds search requests that leave options unset
type SearchDefaults struct {
	Routines           []string `toml:"routines"`
	MaxEditDistance    int      `toml:"max_edit_distance"`
	SubstringMinLength int      `toml:"substring_min_length"`
	CaseSensitive      bool     `toml:"case_sensitive"`

	Prefixes          []string `toml:"prefixes"`
	FindDBPrefixes    bool     `toml:"find_db_prefixes"`
	PrefixLengthMin   int      `toml:"prefix_length_min"`
	PrefixLengthMax   int      `toml:"prefix_length_max"`
	PrefixThreshold   int      `toml:"prefix_threshold"`
	MaxAccentVariants int      `toml:"max_accent_variants"`
}

// Options returns the routine options these defaults describe
func (d SearchDefaults) Options() routines.Options {
	return routines.Options{
		MaxEditDistance:    d.MaxEditDistance,
		SubstringMinLength: d.SubstringMinLength,
		Prefixes:           d.Prefixes,
		FindDBPrefixes:     d.FindDBPrefixes,
		PrefixLengthMin:    d.PrefixLengthMin,
		PrefixLengthMax:    d.PrefixLengthMax,
		PrefixThreshold:    d.PrefixThreshold,
		MaxAccentVariants:  d.MaxAccentVariants,
	}
}

// Duration is a time.Duration that decodes from TOML strings like "6h"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		APIPort:  "8080",
		APIHost:  "0.0.0.0",
		LogLevel: "info",
		DataDir:  "data",
		Cache: CacheConfig{
			Backend:   BackendFile,
			ChunkSize: 50000,
		},
		Jobs: JobsConfig{
			Retention: Duration{time.Hour},
		},
		Search: SearchDefaults{
			Routines:           []string{"exact", "punctuation", "edit_distance"},
			MaxEditDistance:    2,
			SubstringMinLength: 4,
		},
	}
}

// Load reads configuration from the optional CONFIG_FILE (default
// config.toml) and then applies environment overrides
func Load() (*Config, error) {
	cfg := Default()

	path := getEnv("CONFIG_FILE", "config.toml")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.APIPort = getEnv("API_PORT", c.APIPort)
	c.APIHost = getEnv("API_HOST", c.APIHost)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.Cache.Backend = strings.ToLower(getEnv("CACHE_BACKEND", c.Cache.Backend))
	c.Cache.DatabaseURL = getEnv("DATABASE_URL", c.Cache.DatabaseURL)

	if v := os.Getenv("CACHE_CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_CHUNK_SIZE: %w", err)
		}
		c.Cache.ChunkSize = n
	}
	if v := os.Getenv("AUTO_UPDATE_INTERVAL"); v != "" {
		if err := c.Cache.AutoUpdate.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("AUTO_UPDATE_INTERVAL: %w", err)
		}
	}
	if v := os.Getenv("JOB_RETENTION"); v != "" {
		if err := c.Jobs.Retention.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("JOB_RETENTION: %w", err)
		}
	}
	return nil
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Cache.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if err := routines.Validate(c.Search.Routines); err != nil {
		return fmt.Errorf("search defaults: %w", err)
	}

	if c.Cache.ChunkSize <= 0 {
		return fmt.Errorf("cache chunk size must be positive, got %d", c.Cache.ChunkSize)
	}

	names := make(map[string]bool, len(c.Databases))
	for i, db := range c.Databases {
		if db.Address == "" {
			return fmt.Errorf("database %d: address is required", i)
		}
		if db.Name != "" {
			if names[db.Name] {
				return fmt.Errorf("duplicate database name %q", db.Name)
			}
			names[db.Name] = true
		}
	}
	return nil
}

// Database returns the configured database with the given name
func (c *Config) Database(name string) (streamlite.Database, bool) {
	for _, db := range c.Databases {
		if db.Name == name {
			return db, true
		}
	}
	return streamlite.Database{}, false
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
