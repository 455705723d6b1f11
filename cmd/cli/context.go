package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dsjohal14/synfinder/internal/app"
	"github.com/dsjohal14/synfinder/internal/libs/config"
	"github.com/dsjohal14/synfinder/internal/libs/obs"
	"github.com/dsjohal14/synfinder/internal/streamlite"
)

// commandContext lazily loads the configuration and the wired app shared by
// every subcommand
type commandContext struct {
	configFlag *string

	cfg *config.Config
	app *app.App
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	if c.configFlag != nil && *c.configFlag != "" {
		if err := os.Setenv("CONFIG_FILE", *c.configFlag); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	obs.InitLogger(cfg.LogLevel)
	c.cfg = cfg
	return cfg, nil
}

// ensureApp wires the app under ctx. Call close when done.
func (c *commandContext) ensureApp(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, obs.Logger("cli"))
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// database resolves a configured database by name, or an ad hoc one by
// address
func (c *commandContext) database(name, address string) (streamlite.Database, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return streamlite.Database{}, err
	}
	if address != "" {
		return streamlite.Database{Name: name, Address: address}, nil
	}
	if name == "" {
		if len(cfg.Databases) == 1 {
			return cfg.Databases[0], nil
		}
		return streamlite.Database{}, fmt.Errorf("--database or --address is required")
	}
	db, ok := cfg.Database(name)
	if !ok {
		known := make([]string, len(cfg.Databases))
		for i, d := range cfg.Databases {
			known[i] = d.Name
		}
		return streamlite.Database{}, fmt.Errorf("unknown database %q (known: %s)", name, strings.Join(known, ", "))
	}
	return db, nil
}
