package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/repositories"
	"github.com/lib/pq"
)

// PostgresAttributeRepository implements AttributeRepository using PostgreSQL
type PostgresAttributeRepository struct {
	db *sql.DB
}

// NewPostgresAttributeRepository creates a new PostgreSQL attribute repository
func NewPostgresAttributeRepository(db *sql.DB) *PostgresAttributeRepository {
	return &PostgresAttributeRepository{db: db}
}

var _ repositories.AttributeRepository = (*PostgresAttributeRepository)(nil)

const attributeColumns = `id, type_id, name, normalized_name, data_type, required, description, position`

// insert stores attrs using q, which is normally the transaction that stores their type
func (r *PostgresAttributeRepository) insert(ctx context.Context, q querier, attrs []*entities.AttributeDefinition) error {
	query := `
		INSERT INTO app_data.attribute_definitions (` + attributeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, attr := range attrs {
		_, err := q.ExecContext(ctx, query,
			attr.ID, attr.TypeID, attr.Name, attr.NormalizedName,
			string(attr.DataType), attr.Required, attr.Description, attr.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert attribute %s: %w", attr.Name, err)
		}
	}
	return nil
}

// ListByType retrieves the attributes of a type ordered by declaration
func (r *PostgresAttributeRepository) ListByType(ctx context.Context, typeID string) ([]*entities.AttributeDefinition, error) {
	byType, err := r.ListByTypes(ctx, []string{typeID})
	if err != nil {
		return nil, err
	}
	return byType[typeID], nil
}

// ListByTypes retrieves attributes for several types in one query
func (r *PostgresAttributeRepository) ListByTypes(ctx context.Context, typeIDs []string) (map[string][]*entities.AttributeDefinition, error) {
	result := make(map[string][]*entities.AttributeDefinition, len(typeIDs))
	if len(typeIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + attributeColumns + `
		FROM app_data.attribute_definitions
		WHERE type_id = ANY($1)
		ORDER BY type_id, position
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(typeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			attr     entities.AttributeDefinition
			dataType string
		)
		err := rows.Scan(&attr.ID, &attr.TypeID, &attr.Name, &attr.NormalizedName,
			&dataType, &attr.Required, &attr.Description, &attr.Position)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attr.DataType = entities.DataType(dataType)
		result[attr.TypeID] = append(result[attr.TypeID], &attr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}
	return result, nil
}
