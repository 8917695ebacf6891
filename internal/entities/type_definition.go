package entities

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// TypeKind distinguishes node types from edge types
type TypeKind string

const (
	KindNode TypeKind = "node"
	KindEdge TypeKind = "edge"
)

// idAlphabet is the alphabet used for generated type ids
const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// typeIDLength is the number of random characters after the kind prefix
const typeIDLength = 8

// ParseTypeKind parses "node" or "edge" (case-insensitive)
func ParseTypeKind(s string) (TypeKind, error) {
	switch TypeKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindNode:
		return KindNode, nil
	case KindEdge:
		return KindEdge, nil
	default:
		return "", fmt.Errorf("%w: unknown type kind: %q", ErrInvalidArgument, s)
	}
}

// IDPrefix returns the prefix used for ids of this kind.
// AGE requires identifiers to start with a letter.
func (k TypeKind) IDPrefix() string {
	if k == KindEdge {
		return "e"
	}
	return "v"
}

// Valid reports whether k is a known kind
func (k TypeKind) Valid() bool {
	return k == KindNode || k == KindEdge
}

// TypeDefinition represents a declared node or edge type of a graph.
// NormalizedName is the label registered with the graph engine.
type TypeDefinition struct {
	ID             string    // Prefixed short id (e.g., "vK3J9QZ2A")
	GraphID        string    // Owning graph
	Kind           TypeKind  // node or edge
	Name           string    // Display name as supplied (e.g., "Power Plant")
	NormalizedName string    // Label name (e.g., "POWER_PLANT")
	Description    string    // Free-form description
	CreatedBy      uuid.UUID // Acting user
	CreatedAt      time.Time
	Attributes     []*AttributeDefinition // Ordered by declaration
}

// NewTypeDefinition validates the name and builds a new, unsaved type definition
func NewTypeDefinition(kind TypeKind, graphID, name, description string, createdBy uuid.UUID) (*TypeDefinition, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown type kind: %q", ErrInvalidArgument, kind)
	}
	if err := ValidateGraphID(graphID); err != nil {
		return nil, err
	}
	if err := ValidateTypeName(name); err != nil {
		return nil, err
	}

	return &TypeDefinition{
		ID:             NewTypeID(kind),
		GraphID:        graphID,
		Kind:           kind,
		Name:           name,
		NormalizedName: NormalizeName(name),
		Description:    description,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ValidateGraphID checks that graphID is usable as an AGE graph name
func ValidateGraphID(graphID string) error {
	if graphID == "" {
		return fmt.Errorf("%w: graph ID is required", ErrInvalidArgument)
	}
	if !IsIdentifier(graphID) {
		return fmt.Errorf("%w: graph ID %q must contain only letters, digits and underscores", ErrInvalidArgument, graphID)
	}
	return nil
}

// ValidateTypeName checks that name is non-empty and contains only ASCII letters
// and whitespace, so NormalizeName always yields a label IsIdentifier accepts.
func ValidateTypeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidTypeName)
	}
	for _, r := range name {
		isASCIILetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isASCIILetter && !unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q contains invalid characters, only ASCII letters and spaces are allowed", ErrInvalidTypeName, name)
		}
	}
	if !IsIdentifier(NormalizeName(name)) {
		return fmt.Errorf("%w: %q does not normalize to a valid label", ErrInvalidTypeName, name)
	}
	return nil
}

// NormalizeName upper-cases name and joins words with underscores.
// "Power Plant" and "power  plant" both become "POWER_PLANT".
func NormalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

// NewTypeID generates a random id prefixed by the kind
func NewTypeID(kind TypeKind) string {
	var b strings.Builder
	b.WriteString(kind.IDPrefix())
	for i := 0; i < typeIDLength; i++ {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}

// GetAttribute returns the attribute definition by normalized name
func (t *TypeDefinition) GetAttribute(name string) *AttributeDefinition {
	for _, a := range t.Attributes {
		if a.NormalizedName == name {
			return a
		}
	}
	return nil
}
