// Package config loads the server configuration from YAML with environment
// overrides, so local runs use config/config.yaml and deployments override
// the few values that differ per environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Store      StoreConfig      `yaml:"store"`
	Trends     TrendsConfig     `yaml:"trends"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP control surface settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SimulationConfig holds engine-wide defaults applied to every run the
// control surface starts.
type SimulationConfig struct {
	DefaultSeed       int64 `yaml:"default_seed"`        // 0 = wall-clock seed per run
	MaxConcurrentRuns int   `yaml:"max_concurrent_runs"` // 0 = unlimited
	LogBufferLines    int   `yaml:"log_buffer_lines"`    // per-run ring of formatted log lines
	StreamRatePerSec  int   `yaml:"stream_rate_per_sec"` // websocket event frames per second
	StreamBurst       int   `yaml:"stream_burst"`
}

// StoreConfig selects and configures the snapshot persistence backend.
type StoreConfig struct {
	Backend  string           `yaml:"backend"` // none, local, s3, redis
	Compress bool             `yaml:"compress"`
	Breaker  bool             `yaml:"breaker"`
	Local    LocalStoreConfig `yaml:"local"`
	S3       S3StoreConfig    `yaml:"s3"`
	Redis    RedisStoreConfig `yaml:"redis"`
}

// LocalStoreConfig holds disk backend settings.
type LocalStoreConfig struct {
	Dir string `yaml:"dir"`
}

// S3StoreConfig holds S3 backend settings.
type S3StoreConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Profile   string `yaml:"profile"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	KeyPrefix string `yaml:"key_prefix"`
}

// RedisStoreConfig holds Redis backend settings.
type RedisStoreConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLHours  int    `yaml:"ttl_hours"`
}

// TrendsConfig controls the industry-feed poll that seeds market trends.
type TrendsConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Feeds          []string `yaml:"feeds"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"` // human-readable output instead of JSON
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Simulation.LogBufferLines == 0 {
		cfg.Simulation.LogBufferLines = 200
	}
	if cfg.Simulation.StreamRatePerSec == 0 {
		cfg.Simulation.StreamRatePerSec = 20
	}
	if cfg.Simulation.StreamBurst == 0 {
		cfg.Simulation.StreamBurst = 50
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "local"
	}
	if cfg.Store.Local.Dir == "" {
		cfg.Store.Local.Dir = "data/snapshots"
	}
	if cfg.Store.S3.Region == "" {
		cfg.Store.S3.Region = "us-east-1"
	}
	if cfg.Store.Redis.TTLHours == 0 {
		cfg.Store.Redis.TTLHours = 72
	}
	if cfg.Store.Redis.KeyPrefix == "" {
		cfg.Store.Redis.KeyPrefix = "maxbooster"
	}
	if cfg.Trends.TimeoutSeconds == 0 {
		cfg.Trends.TimeoutSeconds = 15
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so local overrides can live in .env and real env vars win in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		// No config file is fine: defaults plus environment.
		cfg = Default()
	} else if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_CONSOLE"); v != "" {
		cfg.Logging.Console = v == "1" || v == "true"
	}
	if v := os.Getenv("MAXBOOSTER_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("MAXBOOSTER_SNAPSHOT_DIR"); v != "" {
		cfg.Store.Local.Dir = v
	}
	if v := os.Getenv("MAXBOOSTER_S3_BUCKET"); v != "" {
		cfg.Store.S3.Bucket = v
	}
	if v := os.Getenv("MAXBOOSTER_S3_REGION"); v != "" {
		cfg.Store.S3.Region = v
	}
	if v := os.Getenv("MAXBOOSTER_S3_PROFILE"); v != "" {
		cfg.Store.S3.Profile = v
	}
	if v := os.Getenv("MAXBOOSTER_S3_ACCESS_KEY"); v != "" {
		cfg.Store.S3.AccessKey = v
	}
	if v := os.Getenv("MAXBOOSTER_S3_SECRET_KEY"); v != "" {
		cfg.Store.S3.SecretKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Store.Redis.URL = v
		if cfg.Store.Backend == "" || cfg.Store.Backend == "local" {
			cfg.Store.Backend = "redis"
		}
	}
	if v := os.Getenv("MAXBOOSTER_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.DefaultSeed = seed
		}
	}
	if v := os.Getenv("MAXBOOSTER_TRENDS_ENABLED"); v != "" {
		cfg.Trends.Enabled = v == "1" || v == "true"
	}
}

// Validate fails fast on settings the server could not start with.
func (cfg *Config) Validate() error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	switch cfg.Store.Backend {
	case "none", "local", "s3", "redis":
	default:
		return fmt.Errorf("store.backend %q unknown (none, local, s3, redis)", cfg.Store.Backend)
	}
	if cfg.Store.Backend == "s3" && cfg.Store.S3.Bucket == "" {
		return fmt.Errorf("store.backend s3 requires store.s3.bucket")
	}
	if cfg.Store.Backend == "redis" && cfg.Store.Redis.URL == "" {
		return fmt.Errorf("store.backend redis requires store.redis.url")
	}
	return nil
}
