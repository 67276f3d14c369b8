package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	RedisURL      string
	ClickHouseURL string // optional; empty disables the analytics archive

	// Retention / reconstruction
	RetentionCap     int
	HistoryWindow    int
	RollingWindow    int
	PlayedRateWindow int

	// Model artifact
	ArtifactName string

	// Refresh pipeline
	DatasetPath     string
	RefreshInterval time.Duration

	// Archive worker
	ArchiveQueueSize     int
	ArchiveBatchSize     int
	ArchiveFlushInterval time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		RetentionCap:     getEnvInt("RETENTION_CAP", 15000),
		HistoryWindow:    getEnvInt("HISTORY_WINDOW", 50),
		RollingWindow:    getEnvInt("ROLLING_WINDOW", 5),
		PlayedRateWindow: getEnvInt("PLAYED_RATE_WINDOW", 10),

		ArtifactName: getEnv("ARTIFACT_NAME", "player-projection-model"),

		DatasetPath:     getEnv("DATASET_PATH", "data/PlayerStatistics.csv"),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 24*time.Hour),

		ArchiveQueueSize:     getEnvInt("ARCHIVE_QUEUE_SIZE", 10000),
		ArchiveBatchSize:     getEnvInt("ARCHIVE_BATCH_SIZE", 500),
		ArchiveFlushInterval: getEnvDuration("ARCHIVE_FLUSH_INTERVAL", 1*time.Second),

		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
