package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all tunable settings. Populated from defaults, the config
// file, KRANK_* environment variables, and CLI flags, in that order.
type Config struct {
	// CacheDir is the root directory for downloaded corpus files.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`

	// RegistryPath overrides the embedded registry with an external YAML
	// file. Empty means use the registry shipped with the binary.
	RegistryPath string `mapstructure:"registry_path" yaml:"registry_path"`

	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Aggregate AggregateConfig `mapstructure:"aggregate" yaml:"aggregate"`
}

// HTTPConfig controls the download client.
type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	HTTPProxy         string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy        string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
}

// AggregateConfig controls cross-corpus aggregation.
type AggregateConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheDir:     defaultCacheDir(),
		RegistryPath: "",
		HTTP: HTTPConfig{
			Timeout:           60 * time.Second,
			UserAgent:         "krank/0.1 (+https://github.com/krankdata/krank)",
			MaxBodyBytes:      512 << 20, // corpus archives can be large
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Aggregate: AggregateConfig{
			Concurrency: runtime.NumCPU(),
		},
	}
}

// defaultCacheDir mirrors the OS cache convention: ~/.cache/krank on
// Linux, the platform cache dir elsewhere, falling back to a temp dir.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "krank")
	}
	return filepath.Join(base, "krank")
}
