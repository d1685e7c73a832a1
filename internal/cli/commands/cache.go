package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rbridge/internal/cache"
	"github.com/leapstack-labs/rbridge/internal/cli/output"
)

var errNoStore = errors.New("no persistent cache configured (set cache.path or RBRIDGE_CACHE_PATH)")

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the persistent result cache",
		Long: `Inspect or clear the SQLite file that memoizes call results across runs.

Only deterministic R code should be cached: a cached call is not re-run, so
code that draws random numbers without a fixed seed returns the first
result forever.`,
	}

	cmd.AddCommand(newCacheStatsCommand())
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry and hit counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if cc.Store == nil {
				return errNoStore
			}

			st, err := cc.Store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return renderCacheStats(cc.Renderer, cc.Store.Path(), st)
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if cc.Store == nil {
				return errNoStore
			}

			n, err := cc.Store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			cc.Renderer.Success(fmt.Sprintf("Removed %d cached results from %s", n, cc.Store.Path()))
			return nil
		},
	}
}

// CacheStatsOutput is the structured output of cache stats.
type CacheStatsOutput struct {
	Path    string `json:"path" yaml:"path"`
	Entries int    `json:"entries" yaml:"entries"`
	Hits    int64  `json:"hits" yaml:"hits"`
}

func renderCacheStats(r *output.Renderer, path string, st cache.Stats) error {
	out := CacheStatsOutput{Path: path, Entries: st.Entries, Hits: st.Hits}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeYAML:
		return r.YAML(out)
	}
	r.Printf("path:    %s\n", out.Path)
	r.Printf("entries: %d\n", out.Entries)
	r.Printf("hits:    %d\n", out.Hits)
	return nil
}
