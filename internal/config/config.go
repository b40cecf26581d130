// Package config loads loremaster settings from an optional YAML file and
// LOREMASTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

// EnvPrefix is prepended to every environment override, e.g.
// LOREMASTER_REDIS_ADDR for redis.addr.
const EnvPrefix = "LOREMASTER"

// Metrics backends
const (
	MetricsSQLite = "sqlite"
	MetricsBadger = "badger"
	MetricsNone   = "none"
)

// Config holds all configuration values
type Config struct {
	Analysis AnalysisConfig           `mapstructure:"analysis"`
	Log      LogConfig                `mapstructure:"log"`
	Redis    RedisConfig              `mapstructure:"redis"`
	Dgraph   DgraphConfig             `mapstructure:"dgraph"`
	Metrics  MetricsConfig            `mapstructure:"metrics"`
	Cache    CacheConfig              `mapstructure:"cache"`
	Agents   []models.AgentDefinition `mapstructure:"agents"`
}

type AnalysisConfig struct {
	WindowSize int `mapstructure:"window_size"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// RedisConfig points at the conversation store
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	ThreadTTL time.Duration `mapstructure:"thread_ttl"`
}

// DgraphConfig points at the agent registry. An empty AlphaAddr selects the
// static registry built from Config.Agents.
type DgraphConfig struct {
	AlphaAddr string `mapstructure:"alpha_addr"`
}

// MetricsConfig selects where analysis records are persisted
type MetricsConfig struct {
	Backend    string  `mapstructure:"backend"`
	SQLitePath string  `mapstructure:"sqlite_path"`
	BadgerPath string  `mapstructure:"badger_path"`
	QueueSize  int     `mapstructure:"queue_size"`
	RateLimit  float64 `mapstructure:"rate_limit"` // records per second
	Burst      int     `mapstructure:"burst"`
}

// CacheConfig controls the Router's analysis cache. It only pays off in a
// process that serves many analyses.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int64         `mapstructure:"max_entries"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			WindowSize: analysis.DefaultWindowSize,
		},
		Log: LogConfig{
			File:  "",
			Level: "info",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			DB:        0,
			KeyPrefix: "loremaster:thread:",
			ThreadTTL: 30 * 24 * time.Hour,
		},
		Dgraph: DgraphConfig{
			AlphaAddr: "",
		},
		Metrics: MetricsConfig{
			Backend:    MetricsSQLite,
			SQLitePath: "loremaster.db",
			BadgerPath: "loremaster-badger",
			QueueSize:  256,
			RateLimit:  50,
			Burst:      10,
		},
		Cache: CacheConfig{
			// off by default: a one-shot CLI run never sees a repeated window
			Enabled:    false,
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
	}
}

// Load reads path, or loremaster.yaml from the working directory when path
// is empty. A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("loremaster")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even
// without a config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("analysis.window_size", cfg.Analysis.WindowSize)

	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.level", cfg.Log.Level)

	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.key_prefix", cfg.Redis.KeyPrefix)
	v.SetDefault("redis.thread_ttl", cfg.Redis.ThreadTTL)

	v.SetDefault("dgraph.alpha_addr", cfg.Dgraph.AlphaAddr)

	v.SetDefault("metrics.backend", cfg.Metrics.Backend)
	v.SetDefault("metrics.sqlite_path", cfg.Metrics.SQLitePath)
	v.SetDefault("metrics.badger_path", cfg.Metrics.BadgerPath)
	v.SetDefault("metrics.queue_size", cfg.Metrics.QueueSize)
	v.SetDefault("metrics.rate_limit", cfg.Metrics.RateLimit)
	v.SetDefault("metrics.burst", cfg.Metrics.Burst)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	switch c.Metrics.Backend {
	case MetricsSQLite, MetricsBadger, MetricsNone:
	default:
		return fmt.Errorf("metrics.backend must be one of %s, %s, %s; got %q",
			MetricsSQLite, MetricsBadger, MetricsNone, c.Metrics.Backend)
	}
	if c.Metrics.QueueSize <= 0 {
		return fmt.Errorf("metrics.queue_size must be positive, got %d", c.Metrics.QueueSize)
	}
	if c.Cache.Enabled && c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	for i, agent := range c.Agents {
		if agent.Name == "" {
			return fmt.Errorf("agents[%d]: name is required", i)
		}
	}
	return nil
}

// SlogLevel parses Log.Level, defaulting to info
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToUpper(c.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
