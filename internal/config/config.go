package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage
	DatabaseURL string
	RedisURL    string

	// Trust score recalculation schedule (standard cron spec, empty disables)
	RecalcCron string

	// Score cache
	ScoreCacheTTL time.Duration

	// Monitoring buffer
	MonitoringBufferSize    int
	MonitoringFlushInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "production"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		RecalcCron: getEnv("TRUST_SCORE_RECALC_CRON", "0 3 * * *"),

		ScoreCacheTTL: getDurationEnv("SCORE_CACHE_TTL", 15*time.Minute),

		MonitoringBufferSize:    getIntEnv("MONITORING_BUFFER_SIZE", 100),
		MonitoringFlushInterval: getDurationEnv("MONITORING_FLUSH_INTERVAL", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fallback
		}
		return intVal
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fallback
		}
		return d
	}
	return fallback
}
