package repositories

import (
	"context"
	"errors"

	"github.com/agegraph/typegraph/internal/entities"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// SchemaRepository defines the interface for type definition data access
type SchemaRepository interface {
	// Save registers the label with the graph engine and stores the type with its
	// attributes in a single transaction
	Save(ctx context.Context, def *entities.TypeDefinition) error

	// FindByID retrieves a type definition with its attributes
	FindByID(ctx context.Context, graphID string, typeID string) (*entities.TypeDefinition, error)

	// FindByName retrieves a type definition by normalized name, regardless of kind
	FindByName(ctx context.Context, graphID string, normalizedName string) (*entities.TypeDefinition, error)

	// List retrieves the type definitions of a graph without attributes.
	// A nil kind returns both node and edge types.
	List(ctx context.Context, graphID string, kind *entities.TypeKind) ([]*entities.TypeDefinition, error)
}
