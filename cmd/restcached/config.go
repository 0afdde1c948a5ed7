package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/restcache/restcache"
)

// config is the restcached configuration.
// Durations use Go syntax in YAML, e.g. "90s" or "5m".
type config struct {
	Port   int    `yaml:"port"`
	Origin string `yaml:"origin"`
	// Provider is one of memory, sqlite, lru, ristretto or gcache.
	Provider string `yaml:"provider"`
	// DBFile is the database file for the sqlite provider.
	DBFile string `yaml:"db_file"`
	// Size bounds the lru, ristretto and gcache providers.
	Size       int          `yaml:"size"`
	TTL        duration     `yaml:"ttl"`
	Sweep      duration     `yaml:"sweep"`
	Compressor string       `yaml:"compressor"`
	Rules      []ruleConfig `yaml:"rules"`
}

type ruleConfig struct {
	Prefix string            `yaml:"prefix"`
	Path   string            `yaml:"path"`
	Query  map[string]string `yaml:"query"`
	TTL    duration          `yaml:"ttl"`
	Skip   bool              `yaml:"skip"`
}

func (c config) rules() restcache.Rules {
	rules := make(restcache.Rules, 0, len(c.Rules))
	for _, rule := range c.Rules {
		rules = append(rules, restcache.Rule{
			Prefix: rule.Prefix,
			Path:   rule.Path,
			Query:  rule.Query,
			TTL:    time.Duration(rule.TTL),
			Skip:   rule.Skip,
		})
	}
	return rules
}

// duration wraps time.Duration so YAML values can use "90s" style syntax.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func defaultConfig() config {
	return config{
		Port:     8080,
		Provider: "memory",
		DBFile:   "cache.db",
		Size:     10000,
		TTL:      duration(restcache.DefaultTTL),
	}
}

func loadConfig(path string) (config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("reading config file: %w", err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config{}, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.Origin == "" {
		return fmt.Errorf("origin is required")
	}
	if u, err := url.Parse(c.Origin); err != nil || !u.IsAbs() {
		return fmt.Errorf("origin %q is not an absolute URL", c.Origin)
	}
	switch c.Provider {
	case "memory", "sqlite", "lru", "ristretto", "gcache":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.Compressor {
	case "", "none", "snappy", "gzip":
	default:
		return fmt.Errorf("unknown compressor %q", c.Compressor)
	}
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive")
	}
	return nil
}
