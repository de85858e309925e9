package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the service reads from the environment. The LLM
// model name and API key are injected here and nowhere else.
type Config struct {
	Port        string
	DatabaseDSN string

	LLMModel   string
	LLMAPIKey  string
	LLMTimeout time.Duration

	UploadsDir     string
	MaxResumeBytes int64

	SessionTTL time.Duration
}

// Load builds a Config from environment variables, applying defaults for
// everything except the database DSN and the LLM API key.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
		LLMModel:       getenv("LLM_MODEL", "gemini-2.5-flash"),
		LLMAPIKey:      os.Getenv("GEMINI_API_KEY"),
		UploadsDir:     getenv("UPLOADS_DIR", "uploads"),
		LLMTimeout:     getenvDuration("LLM_TIMEOUT", 45*time.Second),
		MaxResumeBytes: getenvInt64("MAX_RESUME_BYTES", 5<<20),
		SessionTTL:     getenvDuration("SESSION_TTL", 30*time.Minute),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
