package repositories

import (
	"context"

	"github.com/agegraph/typegraph/internal/entities"
)

// AttributeRepository defines the interface for attribute definition data access
type AttributeRepository interface {
	// ListByType retrieves the attributes of a type ordered by declaration
	ListByType(ctx context.Context, typeID string) ([]*entities.AttributeDefinition, error)

	// ListByTypes retrieves attributes for several types at once, keyed by type ID
	ListByTypes(ctx context.Context, typeIDs []string) (map[string][]*entities.AttributeDefinition, error)
}
