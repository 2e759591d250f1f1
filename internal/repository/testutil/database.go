package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/adyen/shopharness/internal/config"
	"github.com/adyen/shopharness/internal/database"
)

// localDefaults match the docker-compose postgres service.
var localDefaults = map[string]string{
	"POSTGRES_USER":     "postgres",
	"POSTGRES_PASSWORD": "postgres",
	"POSTGRES_DB":       "postgres",
	"POSTGRES_HOSTNAME": "localhost",
}

// TestDatabase is a catalog database isolated in its own schema
type TestDatabase struct {
	DB         *sql.DB
	SchemaName string
	admin      *sql.DB
}

// SetupTestDatabase creates a throwaway schema, migrates it and registers
// its removal with t.Cleanup. Tests are skipped when postgres is unreachable.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	pg, err := config.LoadPostgresConfig(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return localDefaults[key]
	})
	if err != nil {
		t.Fatalf("Failed to load postgres config: %v", err)
	}

	admin, err := sql.Open("postgres", pg.ConnectionString())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := admin.Ping(); err != nil {
		admin.Close()
		t.Skipf("postgres not reachable at %s:%d: %v", pg.Host, pg.Port, err)
	}

	td := &TestDatabase{
		SchemaName: "catalog_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		admin:      admin,
	}
	t.Cleanup(func() { td.Teardown(t) })

	if _, err := admin.Exec(fmt.Sprintf("CREATE SCHEMA %s", td.SchemaName)); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	td.DB, err = sql.Open("postgres", fmt.Sprintf("%s search_path=%s", pg.ConnectionString(), td.SchemaName))
	if err != nil {
		t.Fatalf("Failed to open schema %s: %v", td.SchemaName, err)
	}
	td.DB.SetMaxOpenConns(5)

	if err := database.Migrate(td.DB); err != nil {
		t.Fatalf("Failed to migrate schema %s: %v", td.SchemaName, err)
	}
	return td
}

// Teardown drops the schema and closes both connections. It is safe to call twice.
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		td.DB.Close()
		td.DB = nil
	}
	if td.admin == nil {
		return
	}
	if _, err := td.admin.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", td.SchemaName)); err != nil {
		t.Logf("Warning: failed to drop schema %s: %v", td.SchemaName, err)
	}
	td.admin.Close()
	td.admin = nil
}
