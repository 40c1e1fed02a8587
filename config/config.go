// Package config loads identity store settings from FACEID_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every variable, e.g. FACEID_DB_PATH.
const EnvPrefix = "FACEID"

// Config holds the runtime settings of the face service.
type Config struct {
	// DBPath is the SQLite database path, or ":memory:".
	DBPath string `envconfig:"DB_PATH"`
	// Table is the faces table name.
	Table string `envconfig:"TABLE"`
	// Dimension fixes D upfront; 0 learns it from the first registration.
	Dimension int `envconfig:"DIMENSION"`
	// Threshold is the minimum similarity for Verify and Identify.
	Threshold float64 `envconfig:"THRESHOLD"`
	// TopN is the FindSimilar result size.
	TopN int `envconfig:"TOP_N"`

	LogLevel  string `envconfig:"LOG_LEVEL"`
	LogFormat string `envconfig:"LOG_FORMAT"`

	// IndexParallelism bounds scoring goroutines; 0 uses GOMAXPROCS.
	IndexParallelism int `envconfig:"INDEX_PARALLELISM"`
	// ParallelMinItems is the enrolled count from which scoring fans out.
	ParallelMinItems int `envconfig:"PARALLEL_MIN_ITEMS"`
}

// Default returns the configuration used when no variable is set. Load
// starts from it, so it is the only place defaults are defined.
func Default() *Config {
	return &Config{
		DBPath:           "face_db.sqlite",
		Table:            "users",
		Threshold:        0.6,
		TopN:             3,
		LogLevel:         "info",
		LogFormat:        "text",
		ParallelMinItems: 4096,
	}
}

// Load overlays the environment on Default and validates the result. Unset
// variables keep their default.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("config: db path is empty")
	case c.Dimension < 0:
		return fmt.Errorf("config: invalid dimension %d", c.Dimension)
	case c.Threshold < -1 || c.Threshold > 1:
		return fmt.Errorf("config: threshold %v outside [-1, 1]", c.Threshold)
	case c.TopN < 0:
		return fmt.Errorf("config: invalid top n %d", c.TopN)
	case c.IndexParallelism < 0:
		return fmt.Errorf("config: invalid index parallelism %d", c.IndexParallelism)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
