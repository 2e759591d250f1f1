package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/adyen/shopharness/internal/config"
	_ "github.com/lib/pq"
)

var DB *sql.DB

// Connect opens the catalog database and verifies it answers
func Connect(cfg *config.PostgresConfig) error {
	if cfg == nil {
		return fmt.Errorf("no postgres configuration")
	}

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to reach %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	DB = db
	return nil
}

// Close closes the catalog database
func Close() error {
	if DB == nil {
		return nil
	}
	err := DB.Close()
	DB = nil
	return err
}
