// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	SweepSpec string
}

// Load reads configuration from environment variables. A .env file in
// the working directory is applied first when present; real environment
// variables win over it.
func Load() *Config {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		DBPath:    getEnv("DB_PATH", "credit.db"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		SweepSpec: getEnv("SWEEP_SPEC", "0 2 * * *"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
