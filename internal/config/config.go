package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime settings for the MoMo agent. Values come from the
// environment; load a .env file in main before calling Load.
type Config struct {
	// Parsing
	DefaultCurrency string
	ParseWorkers    int

	// Model
	GeminiModel string

	// Agent session
	LogDir string
}

// Load reads configuration from the environment, applying documented defaults.
func Load() *Config {
	return &Config{
		DefaultCurrency: getEnv("MOMO_DEFAULT_CURRENCY", "RWF"),
		ParseWorkers:    getEnvInt("MOMO_PARSE_WORKERS", 8),

		GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		LogDir: getEnv("MOMO_LOG_DIR", "logs"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if len(c.DefaultCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("MOMO_DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency))
	}
	if c.ParseWorkers < 1 {
		errors = append(errors, fmt.Sprintf("MOMO_PARSE_WORKERS must be positive, got %d", c.ParseWorkers))
	}
	if c.GeminiModel == "" {
		errors = append(errors, "GEMINI_MODEL must not be empty")
	}
	if c.LogDir == "" {
		errors = append(errors, "MOMO_LOG_DIR must not be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errors, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
