// Package config loads the webdisplay configuration from an optional TOML
// file and WEBDISPLAY_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/SimonMacLean/Website-Display/internal/crawl"
	"github.com/SimonMacLean/Website-Display/internal/layout"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Source kinds.
const (
	KindWeb  = "web"
	KindMark = "mark"
	KindDir  = "dir"
)

// Config is the full configuration.
type Config struct {
	Source SourceConfig `toml:"source"`
	Crawl  CrawlConfig  `toml:"crawl"`
	Layout LayoutConfig `toml:"layout"`
	Log    LogConfig    `toml:"log"`
}

// SourceConfig selects and tunes the document source.
type SourceConfig struct {
	Kind        string        `toml:"kind"`
	Base        string        `toml:"base"`
	Prefix      string        `toml:"prefix"`
	Dir         string        `toml:"dir"`
	Insecure    bool          `toml:"insecure"`
	CacheDir    string        `toml:"cache_dir"`
	CacheMaxAge time.Duration `toml:"cache_max_age"`
	Timeout     time.Duration `toml:"timeout"`
}

// CrawlConfig bounds the crawl.
type CrawlConfig struct {
	Root         string `toml:"root"`
	LinksPerNode int    `toml:"links_per_node"`
	MaxDepth     int    `toml:"max_depth"`
}

// LayoutConfig holds the simulation constants and tick rate.
type LayoutConfig struct {
	Dt       float64       `toml:"dt"`
	MaxDt    float64       `toml:"max_dt"`
	Cutoff   float64       `toml:"cutoff"`
	Drag     float64       `toml:"drag"`
	Spring   float64       `toml:"spring"`
	Friction float64       `toml:"friction"`
	Interval time.Duration `toml:"interval"`
	Workers  int           `toml:"workers"`
	Jitter   float64       `toml:"jitter"`
}

// LogConfig configures logging. An empty File means stderr.
type LogConfig struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Default returns the stock configuration.
func Default() *Config {
	l := layout.DefaultConfig()
	return &Config{
		Source: SourceConfig{
			Kind:        KindWeb,
			Base:        "https://en.wikipedia.org",
			Prefix:      "/wiki/",
			CacheMaxAge: 24 * time.Hour,
			Timeout:     10 * time.Second,
		},
		Crawl: CrawlConfig{
			LinksPerNode: 5,
			MaxDepth:     100,
		},
		Layout: LayoutConfig{
			Dt:       l.Dt,
			MaxDt:    l.MaxDt,
			Cutoff:   l.Cutoff,
			Drag:     l.Drag,
			Spring:   l.Spring,
			Friction: l.Friction,
			Interval: 10 * time.Millisecond,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file. The result is not validated, so callers can
// layer flags on top before calling Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Source.Kind = getEnv("WEBDISPLAY_SOURCE", c.Source.Kind)
	c.Source.Base = getEnv("WEBDISPLAY_BASE", c.Source.Base)
	c.Source.Prefix = getEnv("WEBDISPLAY_PREFIX", c.Source.Prefix)
	c.Source.Dir = getEnv("WEBDISPLAY_DIR", c.Source.Dir)
	c.Source.Insecure = getEnvAsBool("WEBDISPLAY_INSECURE", c.Source.Insecure)
	c.Source.CacheDir = getEnv("WEBDISPLAY_CACHE_DIR", c.Source.CacheDir)
	c.Source.Timeout = getEnvAsDuration("WEBDISPLAY_TIMEOUT", c.Source.Timeout)

	c.Crawl.Root = getEnv("WEBDISPLAY_ROOT", c.Crawl.Root)
	c.Crawl.LinksPerNode = getEnvAsInt("WEBDISPLAY_LINKS_PER_NODE", c.Crawl.LinksPerNode)
	c.Crawl.MaxDepth = getEnvAsInt("WEBDISPLAY_MAX_DEPTH", c.Crawl.MaxDepth)

	c.Layout.Workers = getEnvAsInt("WEBDISPLAY_WORKERS", c.Layout.Workers)
	c.Layout.Interval = getEnvAsDuration("WEBDISPLAY_INTERVAL", c.Layout.Interval)

	c.Log.Format = getEnv("WEBDISPLAY_LOG_FORMAT", c.Log.Format)
	c.Log.Level = getEnv("WEBDISPLAY_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("WEBDISPLAY_LOG_FILE", c.Log.File)
}

// Validate reports the first setting that would break the crawl or the
// simulation.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case KindWeb, KindMark:
	case KindDir:
		if c.Source.Dir == "" {
			return fmt.Errorf("%w: source.dir is required for kind %q", ErrInvalid, KindDir)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", ErrInvalid, c.Source.Kind)
	}
	l := c.Layout
	switch {
	case c.Crawl.LinksPerNode <= 0:
		return fmt.Errorf("%w: crawl.links_per_node must be positive", ErrInvalid)
	case c.Crawl.MaxDepth <= 0:
		return fmt.Errorf("%w: crawl.max_depth must be positive", ErrInvalid)
	case l.Dt <= 0 || l.Dt > l.MaxDt:
		return fmt.Errorf("%w: layout.dt must be in (0, max_dt], got %g with max_dt %g", ErrInvalid, l.Dt, l.MaxDt)
	case l.Cutoff <= 0:
		return fmt.Errorf("%w: layout.cutoff must be positive", ErrInvalid)
	case l.Drag < 0:
		return fmt.Errorf("%w: layout.drag must not be negative", ErrInvalid)
	case l.Spring <= 0:
		return fmt.Errorf("%w: layout.spring must be positive", ErrInvalid)
	case l.Friction < 0:
		return fmt.Errorf("%w: layout.friction must not be negative", ErrInvalid)
	case l.Interval <= 0:
		return fmt.Errorf("%w: layout.interval must be positive", ErrInvalid)
	}
	return nil
}

// LayoutConfig converts the layout section for the engine.
func (c *Config) LayoutConfig() layout.Config {
	return layout.Config{
		Dt:       c.Layout.Dt,
		MaxDt:    c.Layout.MaxDt,
		Cutoff:   c.Layout.Cutoff,
		Drag:     c.Layout.Drag,
		Spring:   c.Layout.Spring,
		Friction: c.Layout.Friction,
		Workers:  c.Layout.Workers,
		Jitter:   c.Layout.Jitter,
	}
}

// CrawlOptions converts the crawl section for the builder.
func (c *Config) CrawlOptions() crawl.Options {
	return crawl.Options{
		LinksPerNode: c.Crawl.LinksPerNode,
		MaxDepth:     c.Crawl.MaxDepth,
	}
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
