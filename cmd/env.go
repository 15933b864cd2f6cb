package cmd

import (
	"context"
	"fmt"

	"github.com/mj1618/navsync/internal/config"
	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/logging"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/mj1618/navsync/internal/server"
	"github.com/mj1618/navsync/internal/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env is what every command needs: configuration, logging, the UI backend
// and the on-disk stores.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider *platform.Provider
	store    *state.Store
	indexes  *index.Store
	table    *navconfig.Table
}

// loadConfig reads the config file and applies the persistent flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dir, _ := flags.GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if nav, _ := flags.GetString("nav-config"); nav != "" {
		cfg.NavConfigPath = nav
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	store, err := state.New(cfg.StateDir(), state.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	indexes, err := index.NewStore(cfg.IndexDir())
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	table, err := navconfig.Load(cfg.NavConfigPath)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		store:    store,
		indexes:  indexes,
		table:    table,
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

func (e *env) deps() server.Deps {
	return server.Deps{
		Provider:    e.provider,
		Store:       e.store,
		Indexes:     e.indexes,
		Table:       e.table,
		Logger:      e.logger,
		DataDir:     e.cfg.DataDir,
		ActionDelay: e.cfg.ActionDelay,
		CallTimeout: e.cfg.CallTimeout,
	}
}

// navigator opens a Navigator for app, or for the active bundle when app
// is empty.
func (e *env) navigator(ctx context.Context, app string) (*navcache.Navigator, error) {
	d := e.deps()
	bundleID, err := d.ResolveApp(ctx, app)
	if err != nil {
		return nil, err
	}
	return d.Open(ctx, bundleID)
}
