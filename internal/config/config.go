package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// FlagBackend selects where local-scope flags are persisted.
type FlagBackend string

const (
	FlagBackendMemory   FlagBackend = "memory"
	FlagBackendSQLite   FlagBackend = "sqlite"
	FlagBackendDynamoDB FlagBackend = "dynamodb"
)

// Config holds all configuration for the engine process.
type Config struct {
	Env      string
	HTTPAddr string

	// Chat server connection
	SocketURL        string
	SocketToken      string
	SocketTokenParam string // SSM parameter name, used when SocketToken is empty

	// Flag persistence
	FlagBackend     FlagBackend
	FlagTable       string
	FlagDBPath      string
	SessionRedisURL string
	SessionTTL      time.Duration

	PruneInterval time.Duration
	StaleAfter    time.Duration
}

// Load reads configuration from environment variables, loading a .env file
// first if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		SocketURL:        os.Getenv("SOCKET_URL"),
		SocketToken:      os.Getenv("SOCKET_TOKEN"),
		SocketTokenParam: os.Getenv("SOCKET_TOKEN_PARAM"),
		FlagBackend:      FlagBackend(strings.ToLower(getEnv("FLAG_BACKEND", string(FlagBackendMemory)))),
		FlagTable:        os.Getenv("FLAG_TABLE"),
		FlagDBPath:       getEnv("FLAG_DB_PATH", "livechat-flags.db"),
		SessionRedisURL:  os.Getenv("SESSION_REDIS_URL"),
		SessionTTL:       envDuration("SESSION_TTL", 12*time.Hour),
		PruneInterval:    envDuration("PRUNE_INTERVAL", time.Minute),
		StaleAfter:       envDuration("STALE_AFTER", 2*time.Hour),
	}

	if cfg.SocketURL == "" {
		return nil, errors.New("config: SOCKET_URL is required")
	}
	switch cfg.FlagBackend {
	case FlagBackendMemory, FlagBackendSQLite:
	case FlagBackendDynamoDB:
		if cfg.FlagTable == "" {
			return nil, errors.New("config: FLAG_TABLE is required for the dynamodb flag backend")
		}
	default:
		return nil, fmt.Errorf("config: unknown FLAG_BACKEND %q", cfg.FlagBackend)
	}
	if cfg.PruneInterval <= 0 {
		return nil, errors.New("config: PRUNE_INTERVAL must be positive")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c *Config) NeedsAWS() bool {
	return c.FlagBackend == FlagBackendDynamoDB || (c.SocketToken == "" && c.SocketTokenParam != "")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envDuration accepts Go durations ("90s") or plain milliseconds ("2500").
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
