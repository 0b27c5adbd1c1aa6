package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const Prefix = "EPUBPAGER_"

const (
	MinFontSize = 8
	MaxFontSize = 96
)

type Config struct {
	FontSize int      `env:"FONT_SIZE" envDefault:"18"`
	Logger   Logger   `envPrefix:"LOGGER_"`
	Database Database `envPrefix:"DATABASE_"`
	Covers   Covers
	Cache    Cache `envPrefix:"CACHE_"`
}

type Logger struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

type Database struct {
	DSN string `env:"DSN,expand" envDefault:"epubpager.sqlite"`
}

type Covers struct {
	Dir      string `env:"COVERS_DIR,expand" envDefault:"covers"`
	MaxWidth int    `env:"COVER_MAX_WIDTH" envDefault:"600"`
}

type Cache struct {
	Size int           `env:"SIZE" envDefault:"32"`
	TTL  time.Duration `env:"TTL" envDefault:"1h"`
}

// Parse reads the configuration from EPUBPAGER_* environment variables.
func Parse() (*Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// ParseEnviron reads the configuration from environ instead of the process
// environment. Keys carry the EPUBPAGER_ prefix.
func ParseEnviron(environ map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	return &conf, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.FontSize < MinFontSize || c.FontSize > MaxFontSize {
		return fmt.Errorf("font-size must be between %d and %d, got %d", MinFontSize, MaxFontSize, c.FontSize)
	}
	if c.Covers.MaxWidth < 0 {
		return fmt.Errorf("cover-max-width must not be negative, got %d", c.Covers.MaxWidth)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache-size must be positive, got %d", c.Cache.Size)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache-ttl must not be negative, got %s", c.Cache.TTL)
	}
	if _, err := ParseLevel(c.Logger.Level); err != nil {
		return err
	}
	if _, err := ParseFormat(c.Logger.Format); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a log level name: debug, info, warn or error.
func ParseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return 0, fmt.Errorf("invalid log-level %q: expected debug|info|warn|error", level)
	}
	return lvl, nil
}

// ParseFormat normalises a log format name: text or json, case-insensitive.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "text", "json":
		return f, nil
	default:
		return "", fmt.Errorf("invalid log-format %q: expected text|json", format)
	}
}
