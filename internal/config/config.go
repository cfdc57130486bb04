// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mathmaster/mathmaster/internal/llm"
	"github.com/mathmaster/mathmaster/internal/store"
)

type Config struct {
	Port        string
	Env         string
	CORSOrigins []string

	DBDriver string
	DBDSN    string

	RedisURL string
	AMQPURL  string

	SessionIdleTimeout time.Duration

	LLM llm.Config
}

// Load reads .env files (missing files are ignored) and then the
// environment. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "3000"),
		Env:                getEnvOrDefault("APP_ENV", "development"),
		CORSOrigins:        splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		DBDriver:           getEnvOrDefault("MATHMASTER_DB_DRIVER", store.DriverSQLite),
		RedisURL:           os.Getenv("REDIS_URL"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		SessionIdleTimeout: getDurationOrDefault("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		LLM:                llm.ConfigFromEnv(),
	}

	switch cfg.DBDriver {
	case store.DriverPostgres:
		cfg.DBDSN = getEnvOrDefault("DATABASE_URL", os.Getenv("MATHMASTER_DB"))
	default:
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBDSN = p
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
