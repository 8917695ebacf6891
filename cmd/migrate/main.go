package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/infrastructure/config"
	"github.com/agegraph/typegraph/internal/infrastructure/database"
	"github.com/agegraph/typegraph/internal/infrastructure/logging"
	"github.com/agegraph/typegraph/internal/repositories/postgres"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	migrationsPathSuffix = "internal/infrastructure/database/migrations/postgres"

	graphCommandTimeout = 30 * time.Second
)

var (
	envFlag      string
	pg           *database.Postgres
	defaultGraph string
	logger       = zap.NewNop().Sugar()
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool for typegraph",
	Long: `Database migration tool for typegraph.
Manages the PostgreSQL schema with golang-migrate and the Apache AGE graphs
that hold typed entities.`,
	PersistentPreRunE:  setupDatabase,
	PersistentPostRunE: closeDatabase,
	SilenceUsage:       true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Long:  `Apply all pending migrations to the database.`,
	RunE:  runUp,
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback migrations",
	Long:  `Rollback the specified number of migrations (default: 1).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDown,
}

var gotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate to a specific version",
	Long:  `Migrate to a specific version number.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGoto,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current migration version",
	Long:  `Display the current migration version of the database.`,
	RunE:  runVersion,
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Force set migration version (use with caution)",
	Long:  `Force set the migration version without running migrations. Use with caution.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runForce,
}

var createGraphCmd = &cobra.Command{
	Use:   "create-graph [name]",
	Short: "Create an AGE graph",
	Long: `Create an Apache AGE graph. Succeeds if the graph already exists.
Without a name, GRAPH_DEFAULT is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE:  runCreateGraph,
}

var dropGraphCmd = &cobra.Command{
	Use:   "drop-graph [name]",
	Short: "Drop an AGE graph and all of its data",
	Long: `Drop an Apache AGE graph with all vertices and edges.
Type definitions of the graph are not removed. Without a name, GRAPH_DEFAULT is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDropGraph,
}

func init() {
	// Add global --env flag to all commands
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")

	// Add subcommands
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(gotoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(forceCmd)
	rootCmd.AddCommand(createGraphCmd)
	rootCmd.AddCommand(dropGraphCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorw("command failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func setupDatabase(cmd *cobra.Command, args []string) error {
	// Initialize configuration from .env.{env} file
	if err := config.InitConfig(envFlag); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The CLI always logs to the console
	base, err := logging.New(config.LogConfig{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = base.Sugar()
	logger.Infow("using environment", "env", envFlag)
	defaultGraph = cfg.Graph.DefaultGraph

	pg, err = database.NewPostgres(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Infow("connected to database",
		"user", cfg.Database.User,
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Database)
	return nil
}

func closeDatabase(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()
	if pg == nil {
		return nil
	}
	return pg.Close()
}

func getMigrationsPath() (string, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return "", fmt.Errorf("failed to find project root: %w", err)
	}

	migrationsPath := filepath.Join(projectRoot, migrationsPathSuffix)
	logger.Debugw("using migrations path", "path", migrationsPath)
	return migrationsPath, nil
}

// withMigrate runs fn on a migrate instance for the configured database
func withMigrate(fn func(m *migrate.Migrate) error) error {
	migrationsPath, err := getMigrationsPath()
	if err != nil {
		return err
	}

	m, err := createMigrate(pg, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func runUp(cmd *cobra.Command, args []string) error {
	return withMigrate(func(m *migrate.Migrate) error {
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Info("no migrations to apply")
		case err != nil:
			return fmt.Errorf("migration up failed: %w", err)
		default:
			logger.Info("migration up completed")
		}
		return nil
	})
}

func runDown(cmd *cobra.Command, args []string) error {
	steps := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("steps must be a positive integer, got %q", args[0])
		}
		steps = n
	}

	return withMigrate(func(m *migrate.Migrate) error {
		err := m.Steps(-steps)
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Info("no migrations to roll back")
		case err != nil:
			return fmt.Errorf("migration down failed: %w", err)
		default:
			logger.Infow("migration down completed", "steps", steps)
		}
		return nil
	})
}

func runGoto(cmd *cobra.Command, args []string) error {
	version, err := strconv.ParseUint(args[0], 10, 0)
	if err != nil {
		return fmt.Errorf("version must be a non-negative integer, got %q", args[0])
	}

	return withMigrate(func(m *migrate.Migrate) error {
		err := m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Infow("already at version", "version", version)
		case err != nil:
			return fmt.Errorf("migration goto failed: %w", err)
		default:
			logger.Infow("migration goto completed", "version", version)
		}
		return nil
	})
}

func runVersion(cmd *cobra.Command, args []string) error {
	return withMigrate(func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}

		logger.Infow("current version", "version", version, "dirty", dirty)
		return nil
	})
}

func runForce(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("version must be an integer, got %q", args[0])
	}

	return withMigrate(func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return fmt.Errorf("migration force failed: %w", err)
		}
		logger.Infow("migration forced", "version", version)
		return nil
	})
}

// graphName returns the positional graph name or the configured default
func graphName(args []string) (string, error) {
	name := defaultGraph
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		return "", errors.New("graph name is required (pass it as an argument or set GRAPH_DEFAULT)")
	}
	if err := entities.ValidateGraphID(name); err != nil {
		return "", err
	}
	return name, nil
}

func runCreateGraph(cmd *cobra.Command, args []string) error {
	name, err := graphName(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), graphCommandTimeout)
	defer cancel()

	if err := postgres.NewPostgresGraphRepository(pg.DB).CreateGraph(ctx, name); err != nil {
		return fmt.Errorf("failed to create graph %s: %w", name, err)
	}
	logger.Infow("graph ready", "graph", name)
	return nil
}

func runDropGraph(cmd *cobra.Command, args []string) error {
	name, err := graphName(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), graphCommandTimeout)
	defer cancel()

	if err := postgres.NewPostgresGraphRepository(pg.DB).DropGraph(ctx, name); err != nil {
		return fmt.Errorf("failed to drop graph %s: %w", name, err)
	}
	logger.Infow("graph dropped", "graph", name)
	return nil
}

func createMigrate(pg *database.Postgres, migrationsPath string) (*migrate.Migrate, error) {
	driver, err := database.NewMigrateDriver(pg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return m, nil
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}
