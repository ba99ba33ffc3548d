package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// HTTP API
	Port            int
	UploadDir       string
	MaxUploadSizeMB int

	// Broker
	RabbitHost     string
	RabbitUser     string
	RabbitPassword string
	RabbitQueue    string
	PrefetchCount  int

	// Job state store
	RedisURL string

	// Notification relay
	NotificationsEnabled bool
	HubURL               string

	// Processor
	MaxParallelism int
	TempDir        string
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	maxUploadSizeMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: %w", err)
	}

	prefetch, err := strconv.Atoi(getEnv("RABBITMQ_PREFETCH", "1"))
	if err != nil || prefetch < 1 {
		return nil, fmt.Errorf("invalid RABBITMQ_PREFETCH: %q", getEnv("RABBITMQ_PREFETCH", "1"))
	}

	maxParallelism, err := strconv.Atoi(getEnv("MAX_PARALLELISM", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PARALLELISM: %w", err)
	}

	tempDir := getEnv("TEMP_DIR", "")
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Config{
		Port:                 port,
		UploadDir:            getEnv("UPLOAD_DIR", "/data/videos"),
		MaxUploadSizeMB:      maxUploadSizeMB,
		RabbitHost:           getEnv("RABBITMQ_HOST", "localhost"),
		RabbitUser:           getEnv("RABBITMQ_USER", "guest"),
		RabbitPassword:       getEnv("RABBITMQ_PASSWORD", "guest"),
		RabbitQueue:          getEnv("RABBITMQ_QUEUE", "video-jobs"),
		PrefetchCount:        prefetch,
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		NotificationsEnabled: getEnv("NOTIFICATIONS_ENABLED", "true") == "true",
		HubURL:               getEnv("HUB_URL", "http://localhost:8080/hubs/processing"),
		MaxParallelism:       maxParallelism,
		TempDir:              tempDir,
	}, nil
}

// AMQPURL assembles the broker dial string from the host and credentials.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s/", c.RabbitUser, c.RabbitPassword, c.RabbitHost)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
