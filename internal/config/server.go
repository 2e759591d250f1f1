package config

import (
	"fmt"
	"strings"
)

// Catalog backends for the demo storefront.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// ServerConfig holds configuration for the demo storefront server
type ServerConfig struct {
	Port          string
	Backend       string
	AdminUsername string
	AdminPassword string
	// Postgres is set only for the postgres backend.
	Postgres *PostgresConfig
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) (ServerConfig, error) {
	config := ServerConfig{
		Port:          getenv("PORT"),
		Backend:       strings.ToLower(getenv("STORE_BACKEND")),
		AdminUsername: getenv("STORE_ADMIN_USERNAME"),
		AdminPassword: getenv("STORE_ADMIN_PASSWORD"),
	}

	if config.Port == "" {
		config.Port = "8080" // Default to port 8080
	}
	if config.Backend == "" {
		config.Backend = BackendMemory
	}
	if config.Backend != BackendMemory && config.Backend != BackendPostgres {
		return config, fmt.Errorf("STORE_BACKEND must be %s or %s, got %q", BackendMemory, BackendPostgres, config.Backend)
	}
	if config.Backend == BackendPostgres {
		pg, err := LoadPostgresConfig(getenv)
		if err != nil {
			return config, fmt.Errorf("failed to load postgres config: %w", err)
		}
		config.Postgres = pg
	}
	if config.AdminUsername == "" {
		config.AdminUsername = "demo"
	}
	if config.AdminPassword == "" {
		config.AdminPassword = "demo"
	}

	return config, nil
}
