// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	Addr string
	// Remote social service
	RemoteURL     string
	RemoteToken   string
	RemoteTimeout time.Duration
	// Redis cache, disabled when empty
	RedisURL string
	CacheTTL time.Duration

	RecencyWindow time.Duration
	MentionStrict bool
	LogLevel      string
}

func Load() Config {
	return Config{
		Addr:          getenv("SOCIAL_ADDR", ":8080"),
		RemoteURL:     getenv("SOCIAL_REMOTE_URL", "http://localhost:9000"),
		RemoteToken:   getenv("SOCIAL_REMOTE_TOKEN", ""),
		RemoteTimeout: getenvDuration("SOCIAL_REMOTE_TIMEOUT", 10*time.Second),
		RedisURL:      getenv("REDIS_URL", ""),
		CacheTTL:      getenvDuration("SOCIAL_CACHE_TTL", time.Minute),
		RecencyWindow: getenvDuration("SOCIAL_RECENCY_WINDOW", 3*time.Second),
		MentionStrict: getenvBool("SOCIAL_MENTION_STRICT", false),
		LogLevel:      getenv("SOCIAL_LOG_LEVEL", "info"),
	}
}

// RegistFlags registers flags for every field, using the current values as
// defaults, so that flags override the environment.
func (c *Config) RegistFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "address to listen on")
	fs.StringVar(&c.RemoteURL, "remote-url", c.RemoteURL, "base URL of the social service")
	fs.StringVar(&c.RemoteToken, "remote-token", c.RemoteToken, "bearer token for the social service")
	fs.DurationVar(&c.RemoteTimeout, "remote-timeout", c.RemoteTimeout, "timeout of calls to the social service")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "redis url of the cache, empty disables caching")
	fs.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "lifetime of cached comments and searches")
	fs.DurationVar(&c.RecencyWindow, "recency-window", c.RecencyWindow, "how long a local edit wins over background refreshes")
	fs.BoolVar(&c.MentionStrict, "mention-strict", c.MentionStrict, "report mentions no strategy matches as not found")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level: %w", err)
	}
	return l, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getenvDuration accepts Go durations ("1m30s") and plain seconds.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	secs, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
