package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.Equal(t, 20, cfg.History.MaxEntries)
	assert.Zero(t, cfg.Search.CacheSize, "response cache is opt-in")
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	path := writeFile(t, "haru.toml", `
[store]
db_path = "/var/lib/haru/search.db"

[search]
query_timeout_ms = 2500
cache_size = 50

[log]
level = "debug"
`)
	envFile := writeFile(t, ".env", "HARU_CACHE_SIZE=75\nHARU_HTTP_ADDR=:9090\n")
	t.Setenv("HARU_CACHE_SIZE", "100")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/haru/search.db", cfg.Store.DBPath)
	assert.Equal(t, 2500*time.Millisecond, cfg.QueryTimeout())
	assert.Equal(t, 100, cfg.Search.CacheSize, "process env beats .env")
	assert.Equal(t, ":9090", cfg.HTTP.Addr, ".env beats defaults")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, 30000, cfg.Search.CacheTTLMS, "unset keys keep defaults")
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeFile(t, "haru.toml", "[http]\naddr = \":7070\"\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("", writeFile(t, ".env", ""))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	empty := writeFile(t, ".env", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), empty)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[store\n"), empty)
	assert.Error(t, err)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err, "explicit env files must exist")

	t.Setenv("HARU_RATE_LIMIT_RPS", "fast")
	_, err = Load("", empty)
	assert.ErrorContains(t, err, "HARU_RATE_LIMIT_RPS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Store.DBPath = " " }},
		{"zero timeout", func(c *Config) { c.Search.QueryTimeoutMS = 0 }},
		{"negative cache", func(c *Config) { c.Search.CacheSize = -1 }},
		{"cache without ttl", func(c *Config) { c.Search.CacheTTLMS = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"zero history", func(c *Config) { c.History.MaxEntries = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"zero conns", func(c *Config) { c.Store.MaxOpenConns = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Search.CacheSize = 0
	cfg.Search.CacheTTLMS = 0
	assert.NoError(t, cfg.Validate(), "ttl is irrelevant with caching off")
}
