// Package config loads haru-search settings from defaults, an optional TOML
// file, a .env file and HARU_* environment variables, in that order of precedence
// (later sources win).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "HARU_CONFIG"

// DefaultEnvFile is read when present
const DefaultEnvFile = ".env"

// Config holds all runtime settings
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Search    SearchConfig    `toml:"search"`
	HTTP      HTTPConfig      `toml:"http"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	History   HistoryConfig   `toml:"history"`
	Log       LogConfig       `toml:"log"`
}

// StoreConfig configures the SQLite store
type StoreConfig struct {
	DBPath       string `toml:"db_path"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// SearchConfig configures the searcher. Durations are milliseconds.
type SearchConfig struct {
	QueryTimeoutMS int `toml:"query_timeout_ms"`
	CacheSize      int `toml:"cache_size"`
	CacheTTLMS     int `toml:"cache_ttl_ms"`
}

// HTTPConfig configures the HTTP API
type HTTPConfig struct {
	Addr           string `toml:"addr"`
	ShutdownMS     int    `toml:"shutdown_timeout_ms"`
	ReadTimeoutMS  int    `toml:"read_timeout_ms"`
	WriteTimeoutMS int    `toml:"write_timeout_ms"`
}

// RateLimitConfig configures per-caller throttling at the transports
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"rps"`
	Burst             int     `toml:"burst"`
}

// HistoryConfig configures the search history log
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			DBPath:       "haru.db",
			MaxOpenConns: 4,
		},
		Search: SearchConfig{
			QueryTimeoutMS: 5000,
			CacheSize:      0,
			CacheTTLMS:     30000,
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			ShutdownMS:     10000,
			ReadTimeoutMS:  15000,
			WriteTimeoutMS: 15000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1.0 / 0.3,
			Burst:             5,
		},
		History: HistoryConfig{
			MaxEntries: 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. path may be empty, in which case HARU_CONFIG
// is consulted; a missing explicit file is an error. envFiles default to .env
// and are optional.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readEnvFiles merges the given .env files without touching the process environment
func readEnvFiles(files []string) (map[string]string, error) {
	explicit := len(files) > 0
	if !explicit {
		files = []string{DefaultEnvFile}
	}

	merged := map[string]string{}
	for _, f := range files {
		values, err := godotenv.Read(f)
		if err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	str("HARU_DB_PATH", &c.Store.DBPath)
	integer("HARU_MAX_OPEN_CONNS", &c.Store.MaxOpenConns)
	integer("HARU_QUERY_TIMEOUT_MS", &c.Search.QueryTimeoutMS)
	integer("HARU_CACHE_SIZE", &c.Search.CacheSize)
	integer("HARU_CACHE_TTL_MS", &c.Search.CacheTTLMS)
	str("HARU_HTTP_ADDR", &c.HTTP.Addr)
	float("HARU_RATE_LIMIT_RPS", &c.RateLimit.RequestsPerSecond)
	integer("HARU_RATE_LIMIT_BURST", &c.RateLimit.Burst)
	integer("HARU_HISTORY_MAX_ENTRIES", &c.History.MaxEntries)
	str("HARU_LOG_LEVEL", &c.Log.Level)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Store.DBPath) == "" {
		errs = append(errs, errors.New("store.db_path must be set"))
	}
	if c.Store.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("store.max_open_conns must be positive"))
	}
	if c.Search.QueryTimeoutMS <= 0 {
		errs = append(errs, errors.New("search.query_timeout_ms must be positive"))
	}
	if c.Search.CacheSize < 0 {
		errs = append(errs, errors.New("search.cache_size must not be negative"))
	}
	if c.Search.CacheSize > 0 && c.Search.CacheTTLMS <= 0 {
		errs = append(errs, errors.New("search.cache_ttl_ms must be positive when caching"))
	}
	if c.HTTP.ShutdownMS <= 0 || c.HTTP.ReadTimeoutMS <= 0 || c.HTTP.WriteTimeoutMS <= 0 {
		errs = append(errs, errors.New("http timeouts must be positive"))
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}
	if c.History.MaxEntries <= 0 {
		errs = append(errs, errors.New("history.max_entries must be positive"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// QueryTimeout is the per-query store timeout
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Search.QueryTimeoutMS) * time.Millisecond
}

// CacheTTL is the global search cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLMS) * time.Millisecond
}

// ShutdownTimeout bounds graceful HTTP shutdown
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.HTTP.ShutdownMS) * time.Millisecond
}

// ReadTimeout is the HTTP server read timeout
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.HTTP.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout is the HTTP server write timeout
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.HTTP.WriteTimeoutMS) * time.Millisecond
}

// LogLevel returns the configured slog level
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
