package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reserved property keys added to every created entity
const (
	PropertyName      = "name"
	PropertyCreatedBy = "created_by"
	PropertyCreatedAt = "created_at"
)

// Entity represents a node or edge instance stored in the graph
// Example: POWER_PLANT {name: 'Drax', capacity: 3906}
type Entity struct {
	ID         int64          // Graph engine id (AGE graphid)
	GraphID    string         // Owning graph
	TypeID     string         // Id of the TypeDefinition this entity was created against
	Kind       TypeKind       // node or edge
	Label      string         // Normalized type name
	Properties map[string]any // Scalars, null, or flat scalar arrays
}

// String returns a short representation of the entity
// Format: LABEL#id
func (e *Entity) String() string {
	return fmt.Sprintf("%s#%d", e.Label, e.ID)
}

// Name returns the "name" property if it is a string
func (e *Entity) Name() (string, bool) {
	name, ok := e.Properties[PropertyName].(string)
	return name, ok
}

// WithAuditProperties returns a copy of props with created_by and created_at set
func WithAuditProperties(props map[string]any, createdBy uuid.UUID, now time.Time) map[string]any {
	out := make(map[string]any, len(props)+2)
	for k, v := range props {
		out[k] = v
	}
	out[PropertyCreatedBy] = createdBy.String()
	out[PropertyCreatedAt] = now.UTC().Format(time.RFC3339)
	return out
}
