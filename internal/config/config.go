// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	Cluster     bool          `yaml:"cluster"`
	TLS         bool          `yaml:"tls"`
	PushTimeout time.Duration `yaml:"push_timeout"`
}

// Addr joins host and port unless the url already carries a port.
func (r RedisConfig) Addr() string {
	if _, _, err := net.SplitHostPort(r.URL); err == nil {
		return r.URL
	}
	return net.JoinHostPort(r.URL, strconv.Itoa(r.Port))
}

type BucketConfig struct {
	CodeLockLimit int `yaml:"code_lock_limit"`
}

type WorkersConfig struct {
	Refill int `yaml:"refill"`
}

type MetricsConfig struct {
	PoolStatsInterval time.Duration `yaml:"pool_stats_interval"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Bucket   BucketConfig   `yaml:"bucket"`
	Workers  WorkersConfig  `yaml:"workers"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes raw YAML, applies env overrides and defaults, then validates.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// defaults
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 30
	}
	if cfg.Redis.Port <= 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.PushTimeout <= 0 {
		cfg.Redis.PushTimeout = 2 * time.Second
	}
	if cfg.Bucket.CodeLockLimit < 0 {
		return nil, errors.New("bucket.code_lock_limit must be positive")
	}
	if cfg.Bucket.CodeLockLimit == 0 {
		cfg.Bucket.CodeLockLimit = 100
	}
	if cfg.Workers.Refill <= 0 {
		cfg.Workers.Refill = 4
	}
	if cfg.Metrics.PoolStatsInterval <= 0 {
		cfg.Metrics.PoolStatsInterval = 15 * time.Second
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.Enabled && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required when redis is enabled")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
