// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration. Every field can be set with a
// TALLYUP_-prefixed environment variable, e.g. TALLYUP_ADDR.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `envconfig:"ADDR" default:":8080"`

	// DBPath is the SQLite database file path.
	DBPath string `envconfig:"DB_PATH" default:"./data/tallyup.db"`

	// JWTSecret signs session tokens. Required; there is no safe default.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// TokenTTL is how long session tokens stay valid.
	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// CORSOrigins lists the allowed browser origins.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// ShutdownTimeout bounds graceful shutdown on SIGTERM.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	// Missing .env is fine; the environment is authoritative anyway.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("tallyup", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
