package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agegraph/typegraph/internal/repositories"
)

// PostgresGraphRepository runs cypher statements through AGE's SQL interface
type PostgresGraphRepository struct {
	db *sql.DB
}

// NewPostgresGraphRepository creates a new graph repository.
// Sessions of db must have AGE loaded (see database.NewPostgres).
func NewPostgresGraphRepository(db *sql.DB) *PostgresGraphRepository {
	return &PostgresGraphRepository{db: db}
}

var _ repositories.GraphRepository = (*PostgresGraphRepository)(nil)

// Query runs stmt outside any transaction
func (r *PostgresGraphRepository) Query(ctx context.Context, stmt string) ([]string, error) {
	return queryRows(ctx, r.db, stmt)
}

// RunInTx runs fn in a transaction
func (r *PostgresGraphRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repositories.CypherRunner) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &txRunner{tx: tx}); err != nil {
		return err
	}

	// Cancelled before commit: roll back
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateGraph creates an AGE graph named name. An existing graph is not an error.
func (r *PostgresGraphRepository) CreateGraph(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, "SELECT ag_catalog.create_graph($1)", name)
	if err != nil && !IsAlreadyExists(err) {
		return fmt.Errorf("failed to create graph %s: %w", name, err)
	}
	return nil
}

// DropGraph removes an AGE graph and all its labels
func (r *PostgresGraphRepository) DropGraph(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, "SELECT ag_catalog.drop_graph($1, true)", name); err != nil {
		return fmt.Errorf("failed to drop graph %s: %w", name, err)
	}
	return nil
}

type txRunner struct {
	tx *sql.Tx
}

func (t *txRunner) Query(ctx context.Context, stmt string) ([]string, error) {
	return queryRows(ctx, t.tx, stmt)
}

// queryRows returns the single agtype column of every row as text
func queryRows(ctx context.Context, q querier, stmt string) ([]string, error) {
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute cypher: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan agtype row: %w", err)
		}
		result = append(result, raw.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agtype rows: %w", err)
	}
	return result, nil
}
