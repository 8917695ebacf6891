package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/agegraph/typegraph/internal/infrastructure/config"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

// SessionInit is executed on every new connection so cypher() resolves
var SessionInit = []string{
	"LOAD 'age'",
	`SET search_path = ag_catalog, "$user", public`,
}

// migrationsSchema holds golang-migrate's bookkeeping table; the session
// search_path starts with ag_catalog
const migrationsSchema = "public"

// Postgres represents PostgreSQL connection
type Postgres struct {
	DB *sql.DB
}

// ageConnector wraps the lib/pq connector and prepares each session for AGE
type ageConnector struct {
	base driver.Connector
	init []string
}

func (c *ageConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.base.Connect(ctx)
	if err != nil {
		return nil, err
	}

	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("driver connection %T does not support ExecContext", conn)
	}
	for _, stmt := range c.init {
		if _, err := execer.ExecContext(ctx, stmt, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize session (%s): %w", stmt, err)
		}
	}
	return conn, nil
}

func (c *ageConnector) Driver() driver.Driver {
	return c.base.Driver()
}

// NewConnector returns a connector for cfg whose sessions run SessionInit
func NewConnector(cfg *config.DatabaseConfig) (driver.Connector, error) {
	base, err := pq.NewConnector(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	return &ageConnector{base: base, init: SessionInit}, nil
}

// NewPostgres creates a new PostgreSQL connection with AGE loaded on every session
func NewPostgres(cfg *config.DatabaseConfig) (*Postgres, error) {
	connector, err := NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = min(5, maxOpen)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{DB: db}, nil
}

// NewMigrateDriver creates a golang-migrate driver for db
func NewMigrateDriver(db *sql.DB) (*migratepg.Postgres, error) {
	drv, err := migratepg.WithInstance(db, &migratepg.Config{SchemaName: migrationsSchema})
	if err != nil {
		return nil, err
	}
	return drv.(*migratepg.Postgres), nil
}

// RunMigrations runs database migrations
func (p *Postgres) RunMigrations(migrationsPath string) error {
	driver, err := NewMigrateDriver(p.DB)
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck checks if the database connection is healthy
func (p *Postgres) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	if p.DB != nil {
		return p.DB.Close()
	}
	return nil
}
