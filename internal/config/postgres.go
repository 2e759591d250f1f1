package config

import (
	"fmt"
	"strconv"
)

// PostgresConfig holds the catalog database connection settings
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables.
// POSTGRES_PORT defaults to 5432 and POSTGRES_SSLMODE to disable.
func LoadPostgresConfig(getenv func(string) string) (*PostgresConfig, error) {
	config := &PostgresConfig{
		Host:     getenv("POSTGRES_HOSTNAME"),
		Port:     5432,
		User:     getenv("POSTGRES_USER"),
		Password: getenv("POSTGRES_PASSWORD"),
		Database: getenv("POSTGRES_DB"),
		SSLMode:  getenv("POSTGRES_SSLMODE"),
	}

	if v := getenv("POSTGRES_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("POSTGRES_PORT must be a valid port, got %q", v)
		}
		config.Port = port
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	required := []struct{ key, value string }{
		{"POSTGRES_USER", config.User},
		{"POSTGRES_PASSWORD", config.Password},
		{"POSTGRES_DB", config.Database},
		{"POSTGRES_HOSTNAME", config.Host},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s is required", r.key)
		}
	}

	return config, nil
}

// ConnectionString returns a lib/pq keyword/value connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
