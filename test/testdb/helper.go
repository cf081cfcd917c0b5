package testdb

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/database"
)

// Setup connects to TEST_DATABASE_URL, applies the embedded migrations and
// truncates history tables when the test ends. Tests are skipped when the
// variable is unset.
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

	if err := database.RunMigrations(conn.DB, ""); err != nil {
		conn.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db := database.NewFromConn(conn)
	truncate(t, conn)

	t.Cleanup(func() {
		truncate(t, conn)
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close database: %v", err)
		}
	})

	return db
}

func truncate(t *testing.T, conn *sqlx.DB) {
	t.Helper()

	if _, err := conn.Exec(`TRUNCATE scored_articles, snapshots`); err != nil {
		t.Logf("warning: failed to truncate history tables: %v", err)
	}
}
