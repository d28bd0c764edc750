// Package config loads process configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LogLevel    string
	MetricsAddr string

	// Checkpoint stores. An unreachable Redis leaves SQLite as the only store.
	RedisAddr          string
	RedisPassword      string
	SQLitePath         string
	CheckpointKey      string
	CheckpointInterval time.Duration

	DeallocBacklogWarn int

	// Pipeline: one window plus running max and min per size, fed from a
	// Redis channel of JSON samples.
	WindowSizes     string
	InputProperties int
	InputChannel    string
}

// Load reads configuration from environment variables with sensible defaults.
// Malformed numbers and durations are logged and replaced by their default.
func Load() *Config {
	return &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		SQLitePath:         getEnv("SQLITE_PATH", "data/checkpoints.db"),
		CheckpointKey:      getEnv("CHECKPOINT_KEY", "arrayd:checkpoint"),
		CheckpointInterval: getDuration("CHECKPOINT_INTERVAL", 30*time.Second),

		DeallocBacklogWarn: getInt("DEALLOC_BACKLOG_WARN", 4096),

		WindowSizes:     getEnv("WINDOW_SIZES", "20,50,200"),
		InputProperties: getInt("INPUT_PROPERTIES", 1),
		InputChannel:    getEnv("INPUT_CHANNEL", "arrayd:samples"),
	}
}

// ParseWindowSizes parses WindowSizes into a slice of positive sizes,
// skipping invalid and repeated entries.
func (c *Config) ParseWindowSizes() []int {
	parts := strings.Split(c.WindowSizes, ",")
	sizes := make([]int, 0, len(parts))
	seen := make(map[int]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			slog.Warn("skipping invalid window size", slog.String("component", "config"), slog.String("value", p))
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		sizes = append(sizes, n)
	}
	return sizes
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("invalid integer, using default",
			slog.String("component", "config"), slog.String("key", key),
			slog.String("value", v), slog.Int("default", fallback))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default",
			slog.String("component", "config"), slog.String("key", key),
			slog.String("value", v), slog.Duration("default", fallback))
		return fallback
	}
	return d
}
