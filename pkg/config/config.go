package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sahayak-ai/sahayak/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all Sahayak configuration.
type Config struct {
	Listen    string           `yaml:"listen"`
	DBPath    string           `yaml:"db_path"`
	Providers []ProviderConfig `yaml:"providers"`
	Chains    ChainConfig      `yaml:"chains"`
	Cache     CacheConfig      `yaml:"cache"`
	Retry     RetryConfig      `yaml:"retry"`
	Health    HealthConfig     `yaml:"health"`
	Usage     UsageConfig      `yaml:"usage"`
}

// ProviderConfig defines an upstream LLM provider.
// Type is "openai" (OpenAI-compatible wire format, default) or "anthropic".
type ProviderConfig struct {
	Name              string          `yaml:"name"`
	Type              string          `yaml:"type"`
	URL               string          `yaml:"url"`
	APIKey            string          `yaml:"api_key"`
	Model             string          `yaml:"model"`
	Tier              int             `yaml:"tier"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
	RequestsPerSecond float64         `yaml:"requests_per_second"`
}

// RateLimitConfig is the provider plan's single limiting dimension.
// Per is one of "minute", "hour", "day", "month". Zero requests means unlimited.
type RateLimitConfig struct {
	Requests int    `yaml:"requests"`
	Per      string `yaml:"per"`
}

// ChainConfig maps each query category to an ordered provider fallback chain.
type ChainConfig struct {
	TimeSensitive []string `yaml:"time_sensitive"`
	AppData       []string `yaml:"app_data"`
	General       []string `yaml:"general"`
}

// For returns the chain configured for a category.
func (c ChainConfig) For(cat models.Category) []string {
	switch cat {
	case models.CategoryTimeSensitive:
		return c.TimeSensitive
	case models.CategoryAppData:
		return c.AppData
	default:
		return c.General
	}
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// RetryConfig controls per-provider retries inside the fallback chain.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
}

// HealthConfig controls periodic provider health checks.
type HealthConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
	CheckTimeout  time.Duration `yaml:"check_timeout"`
}

// UsageConfig controls the batched usage logger.
type UsageConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	MaxBacklog    int           `yaml:"max_backlog"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "sahayak.db",
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 250 * time.Millisecond,
			CallTimeout:    30 * time.Second,
		},
		Health: HealthConfig{
			CheckInterval: 5 * time.Minute,
			CheckTimeout:  5 * time.Second,
		},
		Usage: UsageConfig{
			BatchSize:     10,
			FlushInterval: 30 * time.Second,
			MaxBacklog:    50,
		},
	}
}

// Load reads a YAML config file and expands environment variables, so API
// keys can be written as ${OPENAI_API_KEY} and stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider %q", p.Name)
		}
		seen[p.Name] = true
		switch p.RateLimit.Per {
		case "", "minute", "hour", "day", "month":
		default:
			return fmt.Errorf("provider %q: unknown rate limit window %q", p.Name, p.RateLimit.Per)
		}
	}
	for _, chain := range [][]string{c.Chains.TimeSensitive, c.Chains.AppData, c.Chains.General} {
		for _, name := range chain {
			if !seen[name] {
				return fmt.Errorf("chain references unknown provider %q", name)
			}
		}
	}
	return nil
}

// Provider returns the configuration for a named provider, if present.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}
