package testdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/selivandex/agent-registry/internal/adapters/database"
)

// Setup connects to the test database named by TEST_DATABASE_URL, runs
// migrations and truncates all tables. Tests that need Postgres are
// skipped when the variable is unset.
func Setup(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(conn.DB, migrationsPath(t)); err != nil {
		conn.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	if _, err := conn.Exec(`TRUNCATE agents, owners RESTART IDENTITY`); err != nil {
		conn.Close()
		t.Fatalf("failed to truncate tables: %v", err)
	}

	db := database.NewFromConn(conn)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// migrationsPath walks up from the working directory to the repo root
func migrationsPath(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("migrations directory not found")
		}
		dir = parent
	}
}
