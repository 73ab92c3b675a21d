package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port             int           `yaml:"port"`
	CacheRoot        string        `yaml:"cache_root"`
	CacheType        string        `yaml:"cache"`
	CacheMemoryTiles int           `yaml:"cache_memory_tiles"`
	UserAgent        string        `yaml:"user_agent"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	Decoder          string        `yaml:"decoder"`
	VipsMaxCacheMB   int           `yaml:"vips_max_cache_mb"`
	VipsConcurrency  int           `yaml:"vips_concurrency"`
	LogLevel         string        `yaml:"log_level"`
	LogEncoding      string        `yaml:"log_encoding"`
	AllowedOrigin    string        `yaml:"allowed_origin"`
}

const (
	DecoderRaw  = "raw"
	DecoderVips = "vips"
)

func Default() *Config {
	return &Config{
		Port:             8080,
		CacheRoot:        "tilecache",
		CacheType:        "lru",
		CacheMemoryTiles: 2000,
		UserAgent:        "tileview/1.0",
		ConnectTimeout:   5 * time.Second,
		FetchTimeout:     10 * time.Second,
		Decoder:          DecoderRaw,
		VipsMaxCacheMB:   64,
		VipsConcurrency:  1,
		LogLevel:         "info",
		LogEncoding:      "json",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $TILEVIEW_CONFIG) when set, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TILEVIEW_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.CacheRoot = getEnv("CACHE_ROOT", cfg.CacheRoot)
	cfg.CacheType = getEnv("CACHE", cfg.CacheType)
	cfg.CacheMemoryTiles = getEnvInt("CACHE_MEMORY_TILES", cfg.CacheMemoryTiles)
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)
	cfg.ConnectTimeout = getEnvDuration("CONNECT_TIMEOUT", cfg.ConnectTimeout)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.Decoder = getEnv("DECODER", cfg.Decoder)
	cfg.VipsMaxCacheMB = getEnvInt("VIPS_MAX_CACHE_MB", cfg.VipsMaxCacheMB)
	cfg.VipsConcurrency = getEnvInt("VIPS_CONCURRENCY", cfg.VipsConcurrency)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogEncoding = getEnv("LOG_ENCODING", cfg.LogEncoding)
	cfg.AllowedOrigin = getEnv("ALLOWED_ORIGIN", cfg.AllowedOrigin)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CacheType {
	case "lru", "unbounded", "disabled":
	default:
		return fmt.Errorf("unknown cache type: %s", c.CacheType)
	}
	switch c.Decoder {
	case DecoderRaw, DecoderVips:
	default:
		return fmt.Errorf("unknown decoder: %s", c.Decoder)
	}
	if c.ConnectTimeout <= 0 || c.FetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.CacheRoot == "" {
		return fmt.Errorf("cache root must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
