// Package config loads the YAML file configuration for the bylines
// binaries. A missing file yields the defaults so unconfigured binaries
// still run; a file that exists but cannot be parsed is an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "12s"
// or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the structure of the bylines config file.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Crawl struct {
		MaxPages      int      `yaml:"max_pages"`
		MaxArticles   int      `yaml:"max_articles"`
		MaxSeedPages  int      `yaml:"max_seed_pages"`
		FrontierLimit int      `yaml:"frontier_limit"`
		FetchTimeout  Duration `yaml:"fetch_timeout"`
	} `yaml:"crawl"`
	Enrich struct {
		Concurrency  int      `yaml:"concurrency"`
		FetchTimeout Duration `yaml:"fetch_timeout"`
	} `yaml:"enrich"`
	Admin struct {
		DSN string `yaml:"dsn"`
	} `yaml:"admin"`
	Trends struct {
		FeedURL string   `yaml:"feed_url"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"trends"`
	// Domains overrides the allowed site family; empty keeps the default.
	Domains []string `yaml:"domains"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Crawl.MaxPages = 35
	cfg.Crawl.MaxArticles = 60
	cfg.Crawl.MaxSeedPages = 30
	cfg.Crawl.FrontierLimit = 500
	cfg.Crawl.FetchTimeout = Duration(12 * time.Second)
	cfg.Enrich.Concurrency = 6
	cfg.Enrich.FetchTimeout = Duration(12 * time.Second)
	cfg.Admin.DSN = "bylines.db"
	cfg.Trends.Timeout = Duration(8 * time.Second)
	return &cfg
}

// Load reads configuration from path. A missing file is not an error -- the
// defaults are returned. Values absent from the file keep their defaults and
// out-of-range bounds are clamped.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.clamp()
	return cfg, nil
}

// clamp pulls configured bounds back into their supported ranges.
func (c *Config) clamp() {
	c.Crawl.MaxPages = clampInt(c.Crawl.MaxPages, 1, 40)
	c.Enrich.Concurrency = clampInt(c.Enrich.Concurrency, 1, 16)
	if c.Crawl.MaxArticles < 1 {
		c.Crawl.MaxArticles = 1
	}
	if c.Crawl.MaxSeedPages < 1 {
		c.Crawl.MaxSeedPages = 1
	}
	if c.Crawl.FrontierLimit < 1 {
		c.Crawl.FrontierLimit = 1
	}
	if c.Crawl.FetchTimeout <= 0 {
		c.Crawl.FetchTimeout = Duration(12 * time.Second)
	}
	if c.Enrich.FetchTimeout <= 0 {
		c.Enrich.FetchTimeout = Duration(12 * time.Second)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
