// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/eacar/amplify/internal/modules/settings"
)

// Config holds application configuration.
type Config struct {
	DataDir            string // Base directory for the database (always absolute)
	Port               int
	DevMode            bool
	LogLevel           string
	DevToolsURL        string // Browser DevTools endpoint, e.g. http://localhost:9222
	GroqAPIKey         string
	GroqModel          string
	ValidationSchedule string // cron schedule for periodic cookie validation
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("AMPLIFY_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8080),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevToolsURL:        getEnv("DEVTOOLS_URL", "http://localhost:9222"),
		GroqAPIKey:         getEnv("GROQ_API_KEY", ""),
		GroqModel:          getEnv("GROQ_MODEL", ""),
		ValidationSchedule: getEnv("VALIDATION_SCHEDULE", "@every 6h"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings overlays configuration from the settings database.
// Stored values take precedence over environment variables, so runtime
// changes survive restarts without editing the environment.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	apiKey, err := settingsRepo.Get("groq_api_key")
	if err != nil {
		return fmt.Errorf("failed to get groq_api_key from settings: %w", err)
	}
	if apiKey != nil && *apiKey != "" {
		c.GroqAPIKey = *apiKey
	}

	devtools, err := settingsRepo.Get("devtools_url")
	if err != nil {
		return fmt.Errorf("failed to get devtools_url from settings: %w", err)
	}
	if devtools != nil && *devtools != "" {
		c.DevToolsURL = *devtools
	}

	return nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
