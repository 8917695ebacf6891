package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/repositories"
	"github.com/google/uuid"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresSchemaRepository implements SchemaRepository using PostgreSQL and AGE
type PostgresSchemaRepository struct {
	db         *sql.DB
	attributes *PostgresAttributeRepository
}

// NewPostgresSchemaRepository creates a new PostgreSQL schema repository
func NewPostgresSchemaRepository(db *sql.DB) *PostgresSchemaRepository {
	return &PostgresSchemaRepository{
		db:         db,
		attributes: NewPostgresAttributeRepository(db),
	}
}

var _ repositories.SchemaRepository = (*PostgresSchemaRepository)(nil)

const typeColumns = `id, graph_id, kind, name, normalized_name, description, created_by, created_at`

// Save creates the AGE label and stores the type with its attributes
func (r *PostgresSchemaRepository) Save(ctx context.Context, def *entities.TypeDefinition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// In AGE, node types are vertex labels and edge types are edge labels
	labelQuery := "SELECT ag_catalog.create_vlabel($1, $2)"
	if def.Kind == entities.KindEdge {
		labelQuery = "SELECT ag_catalog.create_elabel($1, $2)"
	}
	if _, err := tx.ExecContext(ctx, labelQuery, def.GraphID, def.NormalizedName); err != nil {
		return classifyCreate("create label", err)
	}

	query := `
		INSERT INTO app_data.type_definitions (` + typeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		def.ID, def.GraphID, string(def.Kind), def.Name, def.NormalizedName,
		def.Description, def.CreatedBy, def.CreatedAt,
	)
	if err != nil {
		return classifyCreate("insert type definition", err)
	}

	if err := r.attributes.insert(ctx, tx, def.Attributes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByID retrieves a type definition with its attributes
func (r *PostgresSchemaRepository) FindByID(ctx context.Context, graphID string, typeID string) (*entities.TypeDefinition, error) {
	query := `SELECT ` + typeColumns + ` FROM app_data.type_definitions WHERE graph_id = $1 AND id = $2`
	return r.findOne(ctx, query, graphID, typeID)
}

// FindByName retrieves a type definition by normalized name
func (r *PostgresSchemaRepository) FindByName(ctx context.Context, graphID string, normalizedName string) (*entities.TypeDefinition, error) {
	query := `SELECT ` + typeColumns + ` FROM app_data.type_definitions WHERE graph_id = $1 AND normalized_name = $2`
	return r.findOne(ctx, query, graphID, normalizedName)
}

func (r *PostgresSchemaRepository) findOne(ctx context.Context, query string, args ...any) (*entities.TypeDefinition, error) {
	def, err := scanType(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("type definition %v: %w", args[1], repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get type definition: %w", err)
	}

	def.Attributes, err = r.attributes.ListByType(ctx, def.ID)
	if err != nil {
		return nil, err
	}
	return def, nil
}

// List retrieves the type definitions of a graph ordered by creation time
func (r *PostgresSchemaRepository) List(ctx context.Context, graphID string, kind *entities.TypeKind) ([]*entities.TypeDefinition, error) {
	query := `SELECT ` + typeColumns + ` FROM app_data.type_definitions WHERE graph_id = $1`
	args := []any{graphID}
	if kind != nil {
		query += ` AND kind = $2`
		args = append(args, string(*kind))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list type definitions: %w", err)
	}
	defer rows.Close()

	var defs []*entities.TypeDefinition
	for rows.Next() {
		def, err := scanType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan type definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating type definitions: %w", err)
	}
	return defs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanType(row rowScanner) (*entities.TypeDefinition, error) {
	var (
		def       entities.TypeDefinition
		kind      string
		createdBy uuid.UUID
		createdAt time.Time
	)
	err := row.Scan(&def.ID, &def.GraphID, &kind, &def.Name, &def.NormalizedName,
		&def.Description, &createdBy, &createdAt)
	if err != nil {
		return nil, err
	}
	def.Kind = entities.TypeKind(kind)
	def.CreatedBy = createdBy
	def.CreatedAt = createdAt.UTC()
	return &def, nil
}

// classifyCreate maps duplicate-object failures to ErrTypeAlreadyExists
func classifyCreate(op string, err error) error {
	if IsAlreadyExists(err) {
		return fmt.Errorf("%w: %s", entities.ErrTypeAlreadyExists, strings.TrimPrefix(err.Error(), "pq: "))
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
