// Package config provides environment configuration for the portal server.
package config

import (
	"errors"
	"os"
)

// Config holds all runtime configuration for the application
type Config struct {
	Port string

	// Gemini settings
	GeminiAPIKey string
	TextModel    string
	LiveModel    string
	LiveVoice    string

	// JWT settings
	JWTSecret string
}

// Load reads configuration from environment variables. A missing API
// credential is a fatal configuration error, reported here before any
// gateway call is attempted.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         envOrDefault("PORT", "8080"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		TextModel:    envOrDefault("GEMINI_TEXT_MODEL", ""),
		LiveModel:    envOrDefault("GEMINI_LIVE_MODEL", ""),
		LiveVoice:    envOrDefault("GEMINI_LIVE_VOICE", "Zephyr"),
		JWTSecret:    envOrDefault("JWT_SECRET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY environment variable is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
