package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	RedisURL            string
	LogLevel            string
	LogFormat           string
	MaxClientsPerStream int
	DefaultListLimit    int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}

	var err error
	cfg.MaxClientsPerStream, err = getEnvInt("MAX_CLIENTS_PER_STREAM", 1000)
	if err != nil {
		return nil, err
	}
	cfg.DefaultListLimit, err = getEnvInt("DEFAULT_LIST_LIMIT", 20)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MaxClientsPerStream <= 0 {
		return nil, fmt.Errorf("MAX_CLIENTS_PER_STREAM must be positive")
	}
	if cfg.DefaultListLimit <= 0 {
		return nil, fmt.Errorf("DEFAULT_LIST_LIMIT must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
