// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/season and internal/api.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is populated from environment variables with sensible defaults —
// the teacher's internal/config/config.go envOr/envInt/envBool/envList
// pattern, fields replaced with the SQLite/simulation knobs this domain
// needs.
type Config struct {
	// Storage
	DatabasePath string

	// API server
	APIHost string
	APIPort int

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Simulation settings (spec.md §6.4)
	SkipGameSimulation  bool
	SkipTransactionAI   bool
	SkipOffseasonEvents bool

	// Starting dynasty/season defaults, used by `season new`.
	DefaultDynastyName string
	DefaultStartSeason int

	// Maintenance
	DriftCheckInterval time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	return &Config{
		DatabasePath: envOr("SEASON_DB_PATH", "season.db"),

		APIHost: envOr("API_HOST", "0.0.0.0"),
		APIPort: envInt("API_PORT", envInt("PORT", 8080)),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		SkipGameSimulation:  envBool("SKIP_GAME_SIMULATION", false),
		SkipTransactionAI:   envBool("SKIP_TRANSACTION_AI", false),
		SkipOffseasonEvents: envBool("SKIP_OFFSEASON_EVENTS", false),

		DefaultDynastyName: envOr("DEFAULT_DYNASTY_NAME", "My Dynasty"),
		DefaultStartSeason: envInt("DEFAULT_START_SEASON", time.Now().Year()),

		DriftCheckInterval: time.Duration(envInt("DRIFT_CHECK_INTERVAL_MINUTES", 15)) * time.Minute,
	}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
