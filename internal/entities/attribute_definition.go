package entities

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DataType is the declared semantic type of an attribute
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeNumber  DataType = "number"
	DataTypeBoolean DataType = "boolean"
	DataTypeDate    DataType = "date"
)

// maxAttributeNameLength bounds attribute names, which become property keys
const maxAttributeNameLength = 50

// ParseDataType parses a data type name (case-insensitive)
func ParseDataType(s string) (DataType, error) {
	switch DataType(strings.ToLower(strings.TrimSpace(s))) {
	case DataTypeString:
		return DataTypeString, nil
	case DataTypeNumber:
		return DataTypeNumber, nil
	case DataTypeBoolean:
		return DataTypeBoolean, nil
	case DataTypeDate:
		return DataTypeDate, nil
	default:
		return "", fmt.Errorf("%w: unknown data type %q", ErrInvalidAttribute, s)
	}
}

// String returns the data type name
func (d DataType) String() string {
	return string(d)
}

// AttributeSpec is the caller-supplied description of an attribute to create
type AttributeSpec struct {
	Name        string
	DataType    DataType
	Required    bool
	Description string
}

// AttributeDefinition represents an attribute declared on a type.
// Definitions are created with their type and never mutated afterwards.
type AttributeDefinition struct {
	ID             uuid.UUID
	TypeID         string   // Owning TypeDefinition id
	Name           string   // Property key (e.g., "age")
	NormalizedName string   // Upper-cased name used for uniqueness (e.g., "AGE")
	DataType       DataType // string, number, boolean or date
	Required       bool
	Description    string
	Position       int // Declaration order within the type
}

// NewAttributeDefinition builds an attribute definition for typeID from spec
func NewAttributeDefinition(spec AttributeSpec, typeID string, position int) (*AttributeDefinition, error) {
	if !IsIdentifier(spec.Name) || len(spec.Name) > maxAttributeNameLength {
		return nil, fmt.Errorf("%w: name %q must start with a letter or underscore and contain only letters, digits and underscores (max %d chars)",
			ErrInvalidAttribute, spec.Name, maxAttributeNameLength)
	}
	dataType, err := ParseDataType(string(spec.DataType))
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", spec.Name, err)
	}

	return &AttributeDefinition{
		ID:             uuid.New(),
		TypeID:         typeID,
		Name:           spec.Name,
		NormalizedName: NormalizeName(spec.Name),
		DataType:       dataType,
		Required:       spec.Required,
		Description:    spec.Description,
		Position:       position,
	}, nil
}

// BuildAttributes converts specs into definitions, rejecting duplicates
func BuildAttributes(typeID string, specs []AttributeSpec) ([]*AttributeDefinition, error) {
	attrs := make([]*AttributeDefinition, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		attr, err := NewAttributeDefinition(spec, typeID, i)
		if err != nil {
			return nil, err
		}
		if seen[attr.NormalizedName] {
			return nil, fmt.Errorf("%w: duplicate attribute name: %s", ErrInvalidAttribute, spec.Name)
		}
		seen[attr.NormalizedName] = true
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// IsIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
