package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/gogpu/stroke/internal/logger"
)

// EnvPrefix prefixes environment overrides, e.g. STROKECTL_LOG_LEVEL.
const EnvPrefix = "STROKECTL"

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the strokectl configuration.
type Config struct {
	DB              string    `toml:"db" mapstructure:"db"`
	Surface         string    `toml:"surface" mapstructure:"surface"`
	Width           int       `toml:"width" mapstructure:"width"`
	Height          int       `toml:"height" mapstructure:"height"`
	Preset          string    `toml:"preset" mapstructure:"preset"`
	Workers         int       `toml:"workers" mapstructure:"workers"`
	MetricsTextfile string    `toml:"metrics_textfile" mapstructure:"metrics_textfile"`
	Log             LogConfig `toml:"log" mapstructure:"log"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Color      bool   `toml:"color" mapstructure:"color"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Logger converts the log section for the logger package.
func (c LogConfig) Logger() logger.Config {
	return logger.Config{
		Level:      c.Level,
		Color:      c.Color,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

var defaults = map[string]any{
	"db":               "strokes.db",
	"surface":          "image",
	"width":            512,
	"height":           512,
	"preset":           "pen",
	"workers":          0,
	"metrics_textfile": "",
	"log.level":        "info",
	"log.color":        false,
	"log.file":         "",
	"log.max_size_mb":  logger.DefaultMaxSizeMB,
	"log.max_backups":  logger.DefaultMaxBackups,
	"log.max_age_days": logger.DefaultMaxAgeDays,
	"log.compress":     false,
}

// New returns a viper instance with defaults and environment overrides.
// path, if not empty, names a TOML, YAML or JSON config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return v, nil
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads defaults, the optional file at path and the environment.
func Load(path string) (Config, error) {
	v, err := New(path)
	if err != nil {
		return Config{}, err
	}
	return Decode(v)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	if c.Surface == "" {
		return fmt.Errorf("%w: empty surface name", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
