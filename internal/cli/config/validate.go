package config

import (
	"fmt"
	"slices"
	"strings"
)

// Modes and OutputFormats list the accepted values of mode and output.
var (
	Modes         = []string{"json", "text"}
	OutputFormats = []string{"auto", "text", "json", "yaml", "table"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Rscript) == "" {
		return fmt.Errorf("rscript is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if !slices.Contains(Modes, strings.ToLower(c.Mode)) {
		return fmt.Errorf("unknown mode %q (want one of %s)", c.Mode, strings.Join(Modes, ", "))
	}
	if !slices.Contains(OutputFormats, strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got %d", c.Cache.MaxEntries)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}
