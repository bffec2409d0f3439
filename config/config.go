// Package config loads server configuration from the environment once at
// startup. The resulting Config is treated as immutable.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds everything the server needs to start.
type Config struct {
	// Server
	ServerAddress string

	// Redis
	RedisURL string

	// Ethereum
	EthereumWSURL   string
	EthereumHTTPURL string

	// Auth
	JWTSecret string

	// CORS
	CORSOrigins []string

	// Rooms
	DefaultRoom string
}

// Load reads the configuration from environment variables. Missing required
// variables are reported together in one error.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.ServerAddress = getEnvString("SERVER_ADDRESS", "0.0.0.0:3000")
	cfg.RedisURL = getEnvString("REDIS_URL", "redis://localhost:6379")
	cfg.EthereumWSURL = getEnvString("ETHEREUM_WS_URL", "wss://ethereum-rpc.publicnode.com")
	cfg.EthereumHTTPURL = getEnvString("ETHEREUM_HTTP_URL", "https://ethereum-rpc.publicnode.com")
	cfg.DefaultRoom = getEnvString("DEFAULT_ROOM", "general")

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
