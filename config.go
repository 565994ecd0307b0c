package main

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all environment variables for cellar-service.
type Config struct {
	Port           string
	Env            string
	MongoURL       string
	MongoDB        string
	RedisURL       string
	OpenAIAPIKey   string // empty disables the mapping oracle
	MaxUploadBytes int64
}

// LoadConfig loads environment variables into a Config struct, applying
// defaults for optional values.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:         os.Getenv("PORT"),
		Env:          os.Getenv("APP_ENV"),
		MongoURL:     os.Getenv("MONGO_URL"),
		MongoDB:      os.Getenv("MONGO_DB"),
		RedisURL:     os.Getenv("REDIS_URL"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.Port == "" {
		cfg.Port = "8084"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.MongoURL == "" {
		cfg.MongoURL = "mongodb://localhost:27017"
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "cellar"
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379"
	}

	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", raw)
		}
		cfg.MaxUploadBytes = limit
	}

	return cfg, nil
}
