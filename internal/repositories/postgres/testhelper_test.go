package postgres

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agegraph/typegraph/internal/infrastructure/config"
	"github.com/agegraph/typegraph/internal/infrastructure/database"
)

// testGraph is created for every integration test and dropped afterwards
const testGraph = "typegraph_test"

// SetupTestDB connects to the test database, runs migrations and creates testGraph.
// Tests are skipped unless INTEGRATION=1.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run against a Postgres with Apache AGE")
	}

	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	migrations, err := filepath.Abs("../../infrastructure/database/migrations/postgres")
	if err != nil {
		t.Fatalf("Failed to resolve migrations path: %v", err)
	}
	if err := pg.RunMigrations(migrations); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	graphs := NewPostgresGraphRepository(pg.DB)
	_ = graphs.DropGraph(ctx, testGraph)
	if err := graphs.CreateGraph(ctx, testGraph); err != nil {
		t.Fatalf("Failed to create graph: %v", err)
	}

	return pg.DB
}

// CleanupTestDB removes test data and closes the connection
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Attribute rows go with their type (ON DELETE CASCADE)
	if _, err := db.ExecContext(ctx, "DELETE FROM app_data.type_definitions WHERE graph_id = $1", testGraph); err != nil {
		t.Logf("Warning: Failed to clean up type definitions: %v", err)
	}
	if err := NewPostgresGraphRepository(db).DropGraph(ctx, testGraph); err != nil {
		t.Logf("Warning: Failed to drop graph: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}
