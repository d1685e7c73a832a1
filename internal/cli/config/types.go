// Package config provides configuration management for the rbridge CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults, an
// rbridge.yaml file, RBRIDGE_ environment variables and explicitly set flags.
package config

import "time"

// Default configuration values.
const (
	DefaultRscript     = "Rscript"
	DefaultTimeout     = 300 * time.Second
	DefaultMode        = "json"
	DefaultOutput      = "auto"
	DefaultCacheSize   = 256
	DefaultMaxEntries  = 10000
	DefaultConcurrency = 4
)

// Config holds all CLI configuration options.
type Config struct {
	Rscript      string        `koanf:"rscript"`
	Timeout      time.Duration `koanf:"timeout"`
	Mode         string        `koanf:"mode"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Cache        CacheConfig   `koanf:"cache"`
	Concurrency  int           `koanf:"concurrency"`
}

// CacheConfig controls result memoization.
type CacheConfig struct {
	// Size is the number of in-memory entries. Zero disables the memory tier.
	Size int `koanf:"size"`
	// Path is a SQLite file for results that outlive the process. Empty
	// keeps the cache in memory only.
	Path string `koanf:"path"`
	// MaxEntries bounds the SQLite file. Zero means unbounded.
	MaxEntries int `koanf:"max_entries"`
}

// Enabled reports whether any cache tier is configured.
func (c CacheConfig) Enabled() bool {
	return c.Size > 0 || c.Path != ""
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Rscript:      DefaultRscript,
		Timeout:      DefaultTimeout,
		Mode:         DefaultMode,
		OutputFormat: DefaultOutput,
		Cache:        CacheConfig{Size: DefaultCacheSize, MaxEntries: DefaultMaxEntries},
		Concurrency:  DefaultConcurrency,
	}
}
