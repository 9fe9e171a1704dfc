package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type AlphaVantage struct {
	APIKey                string `yaml:"api_key"`
	BaseURL               string `yaml:"base_url"`
	MaxRequestsPerMinute  int    `yaml:"max_requests_per_minute"`
	Burst                 int    `yaml:"burst"`
	MinRequestIntervalSec int    `yaml:"min_request_interval_sec"`
	MaxConcurrency        int    `yaml:"max_concurrency"`
	CacheTTLSeconds       int    `yaml:"cache_ttl_sec"`
	CacheMaxItems         int    `yaml:"cache_max_items"`
}

// Store is disabled when Driver is empty.
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Redis is disabled when Addr is empty.
type Redis struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_sec"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Server       Server       `yaml:"server"`
	AlphaVantage AlphaVantage `yaml:"alphavantage"`
	Store        Store        `yaml:"store"`
	Redis        Redis        `yaml:"redis"`
	Log          Log          `yaml:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		AlphaVantage: AlphaVantage{
			BaseURL: "https://alphavantage.co/query",
			// free tier
			MaxRequestsPerMinute: 5,
			Burst:                1,
			MaxConcurrency:       2,
			CacheTTLSeconds:      60,
			CacheMaxItems:        1000,
		},
		Redis: Redis{TTLSeconds: 300},
		Log:   Log{Level: "info", Format: "text"},
	}
}

// Load reads YAML config from path. If path is empty, config.yaml in the
// working directory is used when present; a missing file yields defaults.
// Environment variables override file values so secrets stay out of it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.AlphaVantage.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec},
		{"ALPHAVANTAGE_MAX_RPM", &cfg.AlphaVantage.MaxRequestsPerMinute},
		{"ALPHAVANTAGE_BURST", &cfg.AlphaVantage.Burst},
		{"ALPHAVANTAGE_MIN_INTERVAL_SEC", &cfg.AlphaVantage.MinRequestIntervalSec},
		{"ALPHAVANTAGE_MAX_CONCURRENCY", &cfg.AlphaVantage.MaxConcurrency},
		{"ALPHAVANTAGE_CACHE_TTL_SEC", &cfg.AlphaVantage.CacheTTLSeconds},
		{"ALPHAVANTAGE_CACHE_MAX_ITEMS", &cfg.AlphaVantage.CacheMaxItems},
		{"REDIS_DB", &cfg.Redis.DB},
		{"REDIS_TTL_SEC", &cfg.Redis.TTLSeconds},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		x, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", e.name, err)
		}
		*e.dst = x
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if c.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("request timeout must be greater than 0, got %d", c.Server.RequestTimeoutSec)
	}
	if c.AlphaVantage.BaseURL == "" {
		return errors.New("alphavantage base url cannot be empty")
	}
	for name, v := range map[string]int{
		"max_requests_per_minute":  c.AlphaVantage.MaxRequestsPerMinute,
		"burst":                    c.AlphaVantage.Burst,
		"min_request_interval_sec": c.AlphaVantage.MinRequestIntervalSec,
		"max_concurrency":          c.AlphaVantage.MaxConcurrency,
		"cache_ttl_sec":            c.AlphaVantage.CacheTTLSeconds,
		"cache_max_items":          c.AlphaVantage.CacheMaxItems,
		"redis ttl_sec":            c.Redis.TTLSeconds,
		"redis db":                 c.Redis.DB,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative, got %d", name, v)
		}
	}
	switch c.Store.Driver {
	case "":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store dsn cannot be empty for driver %s", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return lvl, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// Logger builds the slog logger described by l, writing to w.
func (l Log) Logger(w io.Writer) *slog.Logger {
	lvl, _ := l.level()
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
