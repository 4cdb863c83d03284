package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	LogLevel      logrus.Level
	SnowflakeNode int64
	CacheTTL      time.Duration
	EventConsumer string
	StreamMaxLen  int64
}

// Load reads an optional .env file and then the process environment. An empty
// DATABASE_URL selects the in-memory store; an empty REDIS_ADDR disables the
// read-model cache and event streaming.
func Load(files ...string) (*Config, error) {
	// A missing .env is normal outside development.
	envLoaded := godotenv.Load(files...) == nil

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		EventConsumer: getEnv("EVENT_CONSUMER", defaultConsumer()),
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.SnowflakeNode, err = strconv.ParseInt(getEnv("SNOWFLAKE_NODE", "1"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid SNOWFLAKE_NODE: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "10m")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	if cfg.StreamMaxLen, err = strconv.ParseInt(getEnv("STREAM_MAX_LEN", "100000"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid STREAM_MAX_LEN: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	if !envLoaded && len(files) > 0 {
		return nil, fmt.Errorf("failed to load env files %v", files)
	}
	return cfg, nil
}

func (c *Config) UsesPostgres() bool { return c.DatabaseURL != "" }

func (c *Config) UsesRedis() bool { return c.RedisAddr != "" }

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func defaultConsumer() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "ledger-consumer-1"
	}
	return "ledger-" + host
}
