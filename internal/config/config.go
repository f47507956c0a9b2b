// Package config handles gltut configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/gltut/internal/logger"
	"github.com/Faultbox/gltut/internal/texture"
)

// ErrInvalidConfig is wrapped by every error Validate reports.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all tool settings.
type Config struct {
	Assets  AssetsConfig  `yaml:"assets"`
	Convert ConvertConfig `yaml:"convert"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// AssetsConfig holds asset search and decoding settings.
type AssetsConfig struct {
	Roots   []string `yaml:"roots"`   // Directories searched for assets, last wins
	Workers int      `yaml:"workers"` // Decoders run concurrently by validate
	Cache   bool     `yaml:"cache"`
}

// ConvertConfig holds texture conversion settings.
type ConvertConfig struct {
	Format         string `yaml:"format"`
	MaxSize        int    `yaml:"max_size"`
	ColorKey       string `yaml:"color_key"`
	ColorTolerance int    `yaml:"color_tolerance"`
}

// MeshConfig holds mesh building settings.
type MeshConfig struct {
	FlipV           bool `yaml:"flip_v"`
	GenerateNormals bool `yaml:"generate_normals"`
	Indexed         bool `yaml:"indexed"`
}

// WatchConfig holds file watcher settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Roots:   []string{"."},
			Workers: runtime.NumCPU(),
			Cache:   true,
		},
		Convert: ConvertConfig{
			Format:         "png",
			MaxSize:        0,
			ColorKey:       "",
			ColorTolerance: 0,
		},
		Mesh: MeshConfig{
			FlipV:           false,
			GenerateNormals: true,
			Indexed:         false,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var err error

	if len(c.Assets.Roots) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: assets.roots is empty", ErrInvalidConfig))
	}
	if c.Assets.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: assets.workers must be at least 1, got %d", ErrInvalidConfig, c.Assets.Workers))
	}
	if _, ferr := texture.ParseFormat(c.Convert.Format); ferr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: convert.format: %w", ErrInvalidConfig, ferr))
	}
	if c.Convert.MaxSize < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: convert.max_size must not be negative, got %d", ErrInvalidConfig, c.Convert.MaxSize))
	}
	if _, _, kerr := texture.ParseColorKey(c.Convert.ColorKey); kerr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: convert.color_key: %w", ErrInvalidConfig, kerr))
	}
	if c.Convert.ColorTolerance < 0 || c.Convert.ColorTolerance > 255 {
		err = multierr.Append(err, fmt.Errorf("%w: convert.color_tolerance must be in [0, 255], got %d", ErrInvalidConfig, c.Convert.ColorTolerance))
	}
	if c.Watch.Debounce < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: watch.debounce must not be negative, got %v", ErrInvalidConfig, c.Watch.Debounce))
	}
	if !slices.Contains(logger.Levels, c.Logging.Level) {
		err = multierr.Append(err, fmt.Errorf("%w: logging.level %q is not one of %v", ErrInvalidConfig, c.Logging.Level, logger.Levels))
	}

	return err
}
