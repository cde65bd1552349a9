// Package config loads strata settings. Values come from three places,
// later ones winning: built-in defaults, an optional TOML file, and
// STRATA_* environment variables. A .env file sitting next to the TOML
// file is folded into the environment first, without clobbering
// variables the caller already exported.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Errors returned by configuration operations.
var (
	// ErrInvalidValue indicates a setting holds a value outside its
	// accepted range.
	ErrInvalidValue = errors.New("invalid config value")
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "strata.toml"

// Offset is a canvas displacement in points.
type Offset struct {
	X float64 `toml:"x" env:"X"`
	Y float64 `toml:"y" env:"Y"`
}

// Config carries every tunable setting of the engine and its front ends.
type Config struct {
	// HistoryLimit caps the number of retained undo checkpoints.
	HistoryLimit int `toml:"history_limit" env:"STRATA_HISTORY_LIMIT"`

	// IDStrategy selects how layer ids are minted ("sequential", "nano", "uuid").
	IDStrategy string `toml:"id_strategy" env:"STRATA_ID_STRATEGY"`

	// IDPrefix is prepended to every generated id when set.
	IDPrefix string `toml:"id_prefix" env:"STRATA_ID_PREFIX"`

	// LogLevel is the minimum level that gets logged ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level" env:"STRATA_LOG_LEVEL"`

	// LogFormat selects the log handler ("text", "json", "discard").
	LogFormat string `toml:"log_format" env:"STRATA_LOG_FORMAT"`

	// DuplicateOffset shifts a duplicated layer relative to its source.
	DuplicateOffset Offset `toml:"duplicate_offset" envPrefix:"STRATA_DUPLICATE_"`

	// PasteOffset staggers each paste relative to the previous one.
	PasteOffset Offset `toml:"paste_offset" envPrefix:"STRATA_PASTE_"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HistoryLimit:    100,
		IDStrategy:      "sequential",
		LogLevel:        "info",
		LogFormat:       "text",
		DuplicateOffset: Offset{X: 10, Y: 10},
		PasteOffset:     Offset{X: 10, Y: 10},
	}
}

// Load builds the effective configuration. An empty path skips the file
// layer entirely; a missing file at an explicit path is an error. The
// returned config is already validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadDotenv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
			return Config{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotenv folds a .env file into the process environment. Existing
// variables keep their values. A missing file is fine.
func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var (
	idStrategies = []string{"sequential", "nano", "uuid"}
	logLevels    = []string{"debug", "info", "warn", "error"}
	logFormats   = []string{"text", "json", "discard"}
)

// Validate checks every setting against its accepted range.
func (c Config) Validate() error {
	if c.HistoryLimit < 1 {
		return fmt.Errorf("%w: history_limit %d, must be at least 1", ErrInvalidValue, c.HistoryLimit)
	}
	if !slices.Contains(idStrategies, c.IDStrategy) {
		return fmt.Errorf("%w: id_strategy %q, want one of %v", ErrInvalidValue, c.IDStrategy, idStrategies)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("%w: log_level %q, want one of %v", ErrInvalidValue, c.LogLevel, logLevels)
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("%w: log_format %q, want one of %v", ErrInvalidValue, c.LogFormat, logFormats)
	}
	return nil
}
