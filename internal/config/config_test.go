package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090
  allowed_origins:
    - "https://app.example.com"

simulation:
  default_seed: 12345
  max_concurrent_runs: 4
  log_buffer_lines: 500
  stream_rate_per_sec: 40
  stream_burst: 80

store:
  backend: "redis"
  compress: true
  breaker: true
  local:
    dir: "/var/lib/snapshots"
  s3:
    bucket: "sim-snapshots"
    region: "eu-west-1"
    key_prefix: "runs"
  redis:
    url: "redis://localhost:6379/0"
    key_prefix: "sim"
    ttl_hours: 24

trends:
  enabled: true
  feeds:
    - "https://example.com/music.rss"
  timeout_seconds: 5

logging:
  level: "debug"
  console: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, int64(12345), cfg.Simulation.DefaultSeed)
	assert.Equal(t, 4, cfg.Simulation.MaxConcurrentRuns)
	assert.Equal(t, 500, cfg.Simulation.LogBufferLines)
	assert.Equal(t, 40, cfg.Simulation.StreamRatePerSec)
	assert.Equal(t, 80, cfg.Simulation.StreamBurst)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.True(t, cfg.Store.Compress)
	assert.True(t, cfg.Store.Breaker)
	assert.Equal(t, "/var/lib/snapshots", cfg.Store.Local.Dir)
	assert.Equal(t, "sim-snapshots", cfg.Store.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Store.S3.Region)
	assert.Equal(t, "runs", cfg.Store.S3.KeyPrefix)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Store.Redis.URL)
	assert.Equal(t, "sim", cfg.Store.Redis.KeyPrefix)
	assert.Equal(t, 24, cfg.Store.Redis.TTLHours)

	assert.True(t, cfg.Trends.Enabled)
	assert.Equal(t, []string{"https://example.com/music.rss"}, cfg.Trends.Feeds)
	assert.Equal(t, 5, cfg.Trends.TimeoutSeconds)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
simulation:
  default_seed: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(7), cfg.Simulation.DefaultSeed)
	assert.Equal(t, 200, cfg.Simulation.LogBufferLines)
	assert.Equal(t, 20, cfg.Simulation.StreamRatePerSec)
	assert.Equal(t, 50, cfg.Simulation.StreamBurst)
	assert.Equal(t, "local", cfg.Store.Backend)
	assert.Equal(t, "data/snapshots", cfg.Store.Local.Dir)
	assert.Equal(t, "us-east-1", cfg.Store.S3.Region)
	assert.Equal(t, 72, cfg.Store.Redis.TTLHours)
	assert.Equal(t, "maxbooster", cfg.Store.Redis.KeyPrefix)
	assert.Equal(t, 15, cfg.Trends.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Console)
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Store.Backend)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not, a, map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
logging:
  level: "warn"
`)

	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "9999")
	t.Setenv("HOST", "10.0.0.1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_CONSOLE", "true")
	t.Setenv("MAXBOOSTER_SEED", "42")
	t.Setenv("MAXBOOSTER_TRENDS_ENABLED", "1")
	t.Setenv("MAXBOOSTER_SNAPSHOT_DIR", "/tmp/snaps")
	t.Setenv("MAXBOOSTER_S3_BUCKET", "override-bucket")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console)
	assert.Equal(t, int64(42), cfg.Simulation.DefaultSeed)
	assert.True(t, cfg.Trends.Enabled)
	assert.Equal(t, "/tmp/snaps", cfg.Store.Local.Dir)
	assert.Equal(t, "override-bucket", cfg.Store.S3.Bucket)
}

func TestLoadFromEnvMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Store.Backend)
}

func TestLoadFromEnvIgnoresUnparsablePort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestRedisURLSelectsRedisBackend(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Store.Redis.URL)
	assert.NoError(t, cfg.Validate())
}

func TestRedisURLKeepsExplicitBackend(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: "s3"
  s3:
    bucket: "explicit"
`)
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Store.Redis.URL)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(cfg *Config) {}, ""},
		{"backend none", func(cfg *Config) { cfg.Store.Backend = "none" }, ""},
		{"port zero", func(cfg *Config) { cfg.Server.Port = 0 }, "out of range"},
		{"port too high", func(cfg *Config) { cfg.Server.Port = 70000 }, "out of range"},
		{"unknown backend", func(cfg *Config) { cfg.Store.Backend = "cassandra" }, "unknown"},
		{"s3 without bucket", func(cfg *Config) { cfg.Store.Backend = "s3" }, "requires store.s3.bucket"},
		{"redis without url", func(cfg *Config) { cfg.Store.Backend = "redis" }, "requires store.redis.url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
