package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/handlers"
	"github.com/agegraph/typegraph/internal/infrastructure/config"
	"github.com/agegraph/typegraph/internal/infrastructure/database"
	"github.com/agegraph/typegraph/internal/repositories/postgres"
	"github.com/agegraph/typegraph/internal/services"
	"github.com/agegraph/typegraph/pkg/cache/memorycache"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

// E2ETestServer represents an E2E test server
type E2ETestServer struct {
	Server   *grpc.Server
	Client   *handlers.GraphServiceClient
	Conn     *grpc.ClientConn
	DB       *sql.DB
	Graph    string
	Listener *bufconn.Listener
}

// SetupE2ETest starts the full stack on an in-memory listener against the test database.
// Each test gets its own graph. Skipped unless INTEGRATION=1.
func SetupE2ETest(t *testing.T, graph string) *E2ETestServer {
	t.Helper()

	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run against a Postgres with Apache AGE")
	}

	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("failed to init config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		t.Fatalf("failed to find project root: %v", err)
	}
	migrationsPath := filepath.Join(projectRoot, "internal/infrastructure/database/migrations/postgres")
	if err := pg.RunMigrations(migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	graphRepo := postgres.NewPostgresGraphRepository(pg.DB)
	cleanupGraph(t, pg.DB, graph)
	if err := graphRepo.CreateGraph(context.Background(), graph); err != nil {
		t.Fatalf("failed to create graph: %v", err)
	}

	typeCache, err := memorycache.New(&memorycache.Config[*entities.TypeDefinition]{
		MaxSizeBytes: 1 << 20,
		DefaultTTL:   time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	logger := zaptest.NewLogger(t)
	schemaService := services.NewSchemaService(
		postgres.NewPostgresSchemaRepository(pg.DB),
		postgres.NewPostgresAttributeRepository(pg.DB),
		services.WithTypeCache(typeCache),
		services.WithSchemaLogger(logger),
	)
	entityService := services.NewEntityService(schemaService, graphRepo,
		services.WithEntityLogger(logger),
		services.WithPageLimit(cfg.Graph.ListPageLimit),
		services.WithDecodeWorkers(cfg.Graph.DecodeWorkers),
	)

	listener := bufconn.Listen(bufSize)
	server := grpc.NewServer()
	handlers.RegisterGraphServiceServer(server, handlers.NewGraphHandler(schemaService, entityService, logger))

	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	conn, err := grpc.NewClient(
		"passthrough://bufconn",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return listener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to create client connection: %v", err)
	}

	e := &E2ETestServer{
		Server:   server,
		Client:   handlers.NewGraphServiceClient(conn),
		Conn:     conn,
		DB:       pg.DB,
		Graph:    graph,
		Listener: listener,
	}
	t.Cleanup(func() {
		e.Teardown(t)
		_ = typeCache.Close()
	})
	return e
}

// Teardown cleans up the E2E test environment
func (e *E2ETestServer) Teardown(t *testing.T) {
	t.Helper()

	if e.Conn != nil {
		e.Conn.Close()
	}
	if e.Server != nil {
		e.Server.Stop()
	}
	if e.Listener != nil {
		e.Listener.Close()
	}
	if e.DB != nil {
		cleanupGraph(t, e.DB, e.Graph)
		e.DB.Close()
	}
}

// cleanupGraph removes the type definitions and the AGE graph of one test
func cleanupGraph(t *testing.T, db *sql.DB, graph string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "DELETE FROM app_data.type_definitions WHERE graph_id = $1", graph); err != nil {
		t.Logf("warning: failed to clean up type definitions: %v", err)
	}
	// The graph may not exist yet
	_ = postgres.NewPostgresGraphRepository(db).DropGraph(ctx, graph)
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("project root not found")
		}
		dir = parent
	}
}
