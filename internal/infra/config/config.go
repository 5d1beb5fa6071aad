package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig controls OpenTelemetry tracing.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// MemoryConfig holds the long-term agent memory store settings.
type MemoryConfig struct {
	Path string `yaml:"path"` // SQLite database path
}

// ProviderConfig defines one upstream model provider endpoint.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key,omitempty"`
	ConnTimeout time.Duration `yaml:"conn_timeout,omitempty"`
	RespTimeout time.Duration `yaml:"resp_timeout,omitempty"`
	// Token-bucket smoothing applied before each upstream call.
	// Zero disables the throttle.
	ThrottleRPS   float64 `yaml:"throttle_rps,omitempty"`
	ThrottleBurst int     `yaml:"throttle_burst,omitempty"`
}

// WindowLimits are the per-window admission limits for one provider.
// A zero value means the window is unlimited.
type WindowLimits struct {
	PerMinute int `yaml:"per_minute"`
	PerHour   int `yaml:"per_hour"`
	PerDay    int `yaml:"per_day"`
}

// RateLimitConfig keys admission limits by provider name, with a fallback
// default for providers not listed.
type RateLimitConfig struct {
	Default   WindowLimits            `yaml:"default"`
	Providers map[string]WindowLimits `yaml:"providers,omitempty"`
}

// TeamConfig holds conversation-registry settings.
type TeamConfig struct {
	Language         string        `yaml:"language"`          // default conversation language tag
	IdleTTL          time.Duration `yaml:"idle_ttl"`          // evict conversations idle longer than this
	MaxConversations int           `yaml:"max_conversations"` // LRU cap; 0 = unbounded
	EvictionSchedule string        `yaml:"eviction_schedule"` // cron expression
}

// Config is the top-level application configuration.
type Config struct {
	Logger    LoggerConfig     `yaml:"logger"`
	Tracer    TracerConfig     `yaml:"tracer"`
	Memory    MemoryConfig     `yaml:"memory"`
	Providers []ProviderConfig `yaml:"providers"`
	RateLimit RateLimitConfig  `yaml:"ratelimit"`
	Team      TeamConfig       `yaml:"team"`
}

// Default returns a configuration with sensible defaults applied.
func Default() Config {
	return Config{
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
		Memory: MemoryConfig{Path: "agentteam.db"},
		RateLimit: RateLimitConfig{
			Default: WindowLimits{PerMinute: 10, PerHour: 100, PerDay: 1000},
		},
		Team: TeamConfig{
			Language:         "en",
			IdleTTL:          24 * time.Hour,
			MaxConversations: 1000,
			EvictionSchedule: "@every 1h",
		},
	}
}

// Load reads a YAML config file, layering it over defaults.
// A missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider %q", p.Name)
		}
		seen[p.Name] = true
		if p.ThrottleRPS < 0 {
			return fmt.Errorf("provider %q: negative throttle_rps", p.Name)
		}
	}
	if c.Team.IdleTTL < 0 {
		return fmt.Errorf("team.idle_ttl must not be negative")
	}
	if c.Team.MaxConversations < 0 {
		return fmt.Errorf("team.max_conversations must not be negative")
	}
	return nil
}
