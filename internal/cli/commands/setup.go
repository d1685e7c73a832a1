package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rbridge/internal/cache"
	"github.com/leapstack-labs/rbridge/internal/cli/config"
	"github.com/leapstack-labs/rbridge/internal/cli/output"
	"github.com/leapstack-labs/rbridge/pkg/bridge"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Runner   *bridge.ExecRunner
	Bridge   *bridge.Bridge
	// Store is the persistent cache tier, nil unless cache.path is set.
	Store *cache.SQLiteStore
}

// NewCommandContext creates a CommandContext with a bridge wired from the
// loaded configuration. Returns the context and a cleanup function that must
// be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutBridge(cmd)
	cfg := cc.Cfg

	mode, err := bridge.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, err
	}

	opts := []bridge.Option{
		bridge.WithRunner(cc.Runner),
		bridge.WithTimeout(cfg.Timeout),
		bridge.WithMode(mode),
		bridge.WithLogger(cc.Logger),
		bridge.WithVerbose(cfg.Verbose),
	}

	memo, store, err := openCache(cfg.Cache, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	if memo != nil {
		opts = append(opts, bridge.WithCache(memo))
	}
	cc.Store = store
	cc.Bridge = bridge.New(opts...)

	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutBridge creates a CommandContext without a bridge.
// Useful for commands that only inspect the environment.
func NewCommandContextWithoutBridge(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Runner:   &bridge.ExecRunner{Binary: cfg.Rscript, Logger: logger},
	}
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// openCache builds the cache tiers named by cfg: an in-memory LRU in front
// of an optional SQLite file. It returns a nil cache when neither is set.
func openCache(cfg config.CacheConfig, logger *slog.Logger) (bridge.Cache, *cache.SQLiteStore, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}

	var tiers []cache.Cache
	if cfg.Size > 0 {
		tiers = append(tiers, cache.NewLRU(cfg.Size))
	}

	var store *cache.SQLiteStore
	if cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
		store = cache.NewSQLiteStore(cfg.MaxEntries, logger)
		if err := store.Open(cfg.Path); err != nil {
			return nil, nil, fmt.Errorf("failed to open cache %s: %w", cfg.Path, err)
		}
		tiers = append(tiers, store)
	}

	return cache.NewChain(tiers...), store, nil
}
