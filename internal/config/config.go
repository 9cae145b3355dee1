// Package config provides the engine's compile-time constants table and
// the runtime configuration for the HTTP server and scheduler.
//
// Configuration loading order mirrors the teacher service: a .env file (if
// present) is loaded first, then environment variables, each with an
// explicit fallback default.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for cmd/server.
type Config struct {
	Port          int    // HTTP server port
	LogLevel      string // debug, info, warn, error
	DevMode       bool
	MarketDataDB  string // sqlite path for the cached market-row store
	DefaultWorkers int   // RUHESTAND_MC_WORKERS; cmd/server does not pass it on, so the server's Monte Carlo runs use runtime.NumCPU() workers
}

// Load reads configuration from environment variables, falling back to
// sane defaults for local development.
func Load() (*Config, error) {
	// godotenv.Load returns an error when no .env file exists; that's fine.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvInt("RUHESTAND_PORT", 8010),
		LogLevel:       getEnv("RUHESTAND_LOG_LEVEL", "info"),
		DevMode:        getEnv("RUHESTAND_DEV", "") == "true",
		MarketDataDB:   getEnv("RUHESTAND_MARKET_DB", "./data/market.db"),
		DefaultWorkers: getEnvInt("RUHESTAND_MC_WORKERS", 0),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
